package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/gavel/internal/api"
	"github.com/MikeSquared-Agency/gavel/internal/config"
	"github.com/MikeSquared-Agency/gavel/internal/engine"
	"github.com/MikeSquared-Agency/gavel/internal/hermes"
	"github.com/MikeSquared-Agency/gavel/internal/slack"
	"github.com/MikeSquared-Agency/gavel/internal/state"
	"github.com/MikeSquared-Agency/gavel/internal/store"
	"github.com/MikeSquared-Agency/gavel/internal/testimony"
	"github.com/MikeSquared-Agency/gavel/internal/watch"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("gavel starting", "port", cfg.Port)

	if cfg.FeedPath == "" {
		slog.Error("GAVEL_FEED is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fileStore := state.NewFileStore(cfg.StatePath)
	source := testimony.NewSource(cfg.FeedPath)
	eng := engine.New(cfg, nil, slog.Default())

	watcher := watch.New(source, fileStore, eng,
		time.Duration(cfg.PollSeconds)*time.Second, slog.Default())

	// Postgres archive (optional — the file store is the source of truth)
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		watcher.SetArchiver(db)
		slog.Info("database connected")
	} else {
		slog.Warn("DATABASE_URL not set — running without archive")
	}

	// NATS/Hermes
	hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer hermesClient.Close()
	watcher.SetPublisher(hermesClient)
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Slack poster (optional — Gavel works without Slack, just no war-room alerts)
	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		watcher.SetAlerter(slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, slog.Default()))
		slog.Info("slack poster ready", "channel", cfg.SlackChannel)
	} else {
		slog.Warn("slack not configured — running without war-room alerts")
	}

	// Inbound exploit marks, direct and via slack reactions
	if err := hermesClient.Subscribe(hermes.SubjectExploit, watcher.HandleExploit); err != nil {
		slog.Error("failed to subscribe to exploit marks", "error", err)
		os.Exit(1)
	}
	if err := hermesClient.Subscribe(hermes.SubjectReaction, watcher.HandleReaction); err != nil {
		slog.Error("failed to subscribe to slack reactions", "error", err)
		os.Exit(1)
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, fileStore)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	// Announce registration
	if err := hermesClient.Publish("swarm.agent.gavel.registered", map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"port":      cfg.Port,
		"feed":      cfg.FeedPath,
	}); err != nil {
		slog.Warn("failed to publish registration", "error", err)
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		slog.Info("shutting down")
		cancel()
	}()

	slog.Info("gavel ready — watching feed", "feed", cfg.FeedPath, "poll_seconds", cfg.PollSeconds)

	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("watcher failed", "error", err)
		os.Exit(1)
	}
	slog.Info("gavel stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
