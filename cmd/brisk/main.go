package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MikeSquared-Agency/brisk/internal/agent"
	"github.com/MikeSquared-Agency/brisk/internal/api"
	"github.com/MikeSquared-Agency/brisk/internal/auth"
	"github.com/MikeSquared-Agency/brisk/internal/config"
	"github.com/MikeSquared-Agency/brisk/internal/events"
	"github.com/MikeSquared-Agency/brisk/internal/hermes"
	"github.com/MikeSquared-Agency/brisk/internal/processor"
	"github.com/MikeSquared-Agency/brisk/internal/store"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel)

	slog.Info("brisk starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("BRISK_DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	applied, err := db.Migrate(ctx)
	if err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected", "migrations_applied", applied)

	if cfg.JWTSecret == "" {
		slog.Error("BRISK_JWT_SECRET is required")
		os.Exit(1)
	}

	// Agent webhook (optional, the chat endpoint answers 500 without it)
	agentClient := agent.NewClient(cfg.WebhookURL, cfg.AgentTimeout)
	if !agentClient.Configured() {
		slog.Warn("agent webhook not configured, chat endpoint disabled")
	}

	// NATS/Hermes (optional, no events or budget alerts without it)
	var publisher *events.Publisher
	if cfg.NatsURL != "" {
		hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer hermesClient.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)

		publisher = events.NewPublisher(hermesClient, slog.Default())

		proc := processor.New(db, publisher, cfg.Location(), slog.Default())
		if err := hermesClient.Subscribe(hermes.SubjectTransactionAll, hermes.QueueBudgetProcessor, proc.HandleTransactionEvent); err != nil {
			slog.Error("failed to subscribe to transaction events", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("NATS not configured, running without events")
	}

	// HTTP API
	srv := api.NewServer(api.Deps{
		Port:     cfg.Port,
		Store:    db,
		Verifier: auth.NewVerifier(cfg.JWTSecret),
		Agent:    agentClient,
		Events:   publisher,
		Limiter:  api.NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		Location: cfg.Location(),
		Logger:   slog.Default(),
	})
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	publisher.ServiceRegistered(cfg.Port)

	slog.Info("brisk ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, done := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown incomplete", "error", err)
	}
	cancel()
	slog.Info("brisk stopped")
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
