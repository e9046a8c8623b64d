package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/WahabBasa/todoist-agent-backend/internal/config"
	"github.com/WahabBasa/todoist-agent-backend/internal/platform/postgres"
	"github.com/WahabBasa/todoist-agent-backend/internal/service"
	"github.com/WahabBasa/todoist-agent-backend/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	leaseStore store.LeaseStore

	// Services
	sessionLocker service.SessionLocker
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before wiring.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.leaseStore = postgres.NewPostgresLeaseStore(db)

	app.sessionLocker = service.NewLockService(db, app.leaseStore, cfg.Lock, logger)
	logger.Info("Session lock service initialized",
		"default_ttl_ms", cfg.Lock.DefaultTTLMs,
		"min_ttl_ms", cfg.Lock.MinTTLMs)

	if ctx.Err() != nil {
		return nil, fmt.Errorf("initialization canceled: %w", ctx.Err())
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
