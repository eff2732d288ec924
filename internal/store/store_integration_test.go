//go:build integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/gavel/internal/state"
	"github.com/MikeSquared-Agency/gavel/internal/testimony"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestIntegration_ArchiveContradiction(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	sessionID := uuid.New()

	c := state.Contradiction{
		ID:         uuid.New(),
		Topic:      "contract",
		Witness:    "Integration Witness",
		DetectedAt: time.Now().UTC(),
		StatementA: state.Statement{Text: "There was no contract.", Phase: testimony.PhaseCross},
		StatementB: state.Statement{Text: "We honored the contract.", Phase: testimony.PhaseDirect},
		ImpeachmentValue: state.ImpeachmentHigh,
	}

	if err := s.ArchiveContradiction(ctx, sessionID, c); err != nil {
		t.Fatalf("ArchiveContradiction failed: %v", err)
	}

	// Re-archiving with exploited set updates in place rather than duplicating.
	c.Exploited = true
	if err := s.ArchiveContradiction(ctx, sessionID, c); err != nil {
		t.Fatalf("re-archive failed: %v", err)
	}
}

func TestIntegration_ArchiveAction(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	sessionID := uuid.New()

	a := state.TrialAction{
		ID:                uuid.New(),
		Priority:          state.PriorityP0,
		Type:              state.ActionImpeachment,
		Target:            "Integration Witness",
		SuggestedLanguage: "Which is it?",
		Rationale:         "integration test",
		EvidenceRefs:      []string{"EX-1"},
		RiskTradeoff:      "none",
		Confidence:        0.9,
		CreatedAt:         time.Now().UTC(),
	}

	if err := s.ArchiveAction(ctx, sessionID, a); err != nil {
		t.Fatalf("ArchiveAction failed: %v", err)
	}

	// Idempotent on replay.
	if err := s.ArchiveAction(ctx, sessionID, a); err != nil {
		t.Fatalf("re-archive failed: %v", err)
	}
}

func TestIntegration_UpsertWitness(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	sessionID := uuid.New()

	if err := s.UpsertWitness(ctx, sessionID, "Integration Witness", 53); err != nil {
		t.Fatalf("UpsertWitness failed: %v", err)
	}
	if err := s.UpsertWitness(ctx, sessionID, "Integration Witness", 45); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	w, err := s.GetWitness(ctx, sessionID, "Integration Witness")
	if err != nil {
		t.Fatalf("GetWitness failed: %v", err)
	}
	if w.Credibility != 45 {
		t.Errorf("expected latest credibility 45, got %d", w.Credibility)
	}
}
