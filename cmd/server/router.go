package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/WahabBasa/todoist-agent-backend/internal/api"
	apiMiddleware "github.com/WahabBasa/todoist-agent-backend/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	lockHandler := api.NewLockHandler(app.sessionLocker, app.logger)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		// Session lock endpoints: the agent-turn orchestrator acquires the
		// lock before running a session's turn and releases it afterward.
		r.Post("/sessions/{sessionID}/lock", lockHandler.AcquireLock)
		r.Delete("/sessions/{sessionID}/lock", lockHandler.ReleaseLock)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
