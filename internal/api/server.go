package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/gavel/internal/state"
)

// Server exposes liveness and read-only trial-state snapshots. It reads
// the persisted state file, never the engine's live state: the engine is
// the single writer and dashboards consume snapshots.
type Server struct {
	router *chi.Mux
	port   int
	store  *state.FileStore
}

func NewServer(port int, store *state.FileStore) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		port:   port,
		store:  store,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/gavel/status", s.status)
	router.Get("/api/v1/gavel/state", s.snapshot)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"agent":  "gavel",
		"status": "watching",
	}

	st, err := s.store.Load()
	if err == nil && st != nil {
		resp["session_id"] = st.SessionID.String()
		resp["events_processed"] = st.EventsProcessed
		resp["momentum_score"] = st.MomentumScore
		resp["momentum_trend"] = st.MomentumTrend
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Load()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, state.ErrCorrupt) {
			status = http.StatusUnprocessableEntity
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if st == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "no trial state persisted yet"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(st)
}
