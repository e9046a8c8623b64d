// Package api provides HTTP handlers for the API.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/WahabBasa/todoist-agent-backend/internal/api/shared"
	"github.com/WahabBasa/todoist-agent-backend/internal/domain"
	"github.com/WahabBasa/todoist-agent-backend/internal/platform/logger"
	"github.com/WahabBasa/todoist-agent-backend/internal/redact"
	"github.com/WahabBasa/todoist-agent-backend/internal/service"
)

// AcquireLockRequest is the request body for acquiring a session lock.
// Both fields are optional: an omitted request_id is generated server-side
// and echoed back so the caller can renew and release with it, and an
// omitted ttl_ms selects the configured default.
type AcquireLockRequest struct {
	RequestID string `json:"request_id" validate:"omitempty,max=128"`
	TTLMs     int64  `json:"ttl_ms"     validate:"omitempty,gte=0"`
}

// ReleaseLockRequest is the request body for releasing a session lock.
type ReleaseLockRequest struct {
	RequestID string `json:"request_id" validate:"required,max=128"`
}

// AcquireLockResponse is the response body for the acquire endpoint. For
// acquired/renewed outcomes, RequestID identifies the holder and ExpiresAt
// the lease deadline; for busy outcomes, OwnerRequestID and ExpiresAt
// describe the current holder instead.
type AcquireLockResponse struct {
	Status         string    `json:"status"`
	SessionID      string    `json:"session_id"`
	RequestID      string    `json:"request_id,omitempty"`
	OwnerRequestID string    `json:"owner_request_id,omitempty"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// ReleaseLockResponse is the response body for the release endpoint.
// OwnerRequestID is set only for not_owner outcomes.
type ReleaseLockResponse struct {
	Status         string `json:"status"`
	SessionID      string `json:"session_id"`
	OwnerRequestID string `json:"owner_request_id,omitempty"`
}

// LockHandler handles session lock HTTP requests.
type LockHandler struct {
	locker service.SessionLocker
	logger *slog.Logger
}

// NewLockHandler creates a new LockHandler.
func NewLockHandler(locker service.SessionLocker, log *slog.Logger) *LockHandler {
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for LockHandler")
	}

	return &LockHandler{
		locker: locker,
		logger: log.With(slog.String("component", "lock_handler")),
	}
}

// AcquireLock handles POST /sessions/{sessionID}/lock requests.
// Contention is not an error: a live lease held by someone else yields 409
// with the owner and expiry in the body.
func (h *LockHandler) AcquireLock(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		log.Warn("session ID not found in URL path")
		shared.RespondWithError(w, r, http.StatusBadRequest, "Session ID is required")
		return
	}

	var req AcquireLockRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("session_id", sessionID))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		log.Warn("validation error",
			slog.String("error", redact.Error(err)),
			slog.String("session_id", sessionID))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error")
		return
	}

	// Retried invocations of the same logical request supply the same
	// request_id; a fresh caller may omit it and use the generated one.
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	result, err := h.locker.Acquire(
		r.Context(),
		sessionID,
		requestID,
		time.Duration(req.TTLMs)*time.Millisecond,
	)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		shared.RespondWithErrorAndLog(w, r, statusCode, GetSafeErrorMessage(err), err)
		return
	}

	status := http.StatusOK
	if result.Status == domain.AcquireStatusBusy {
		status = http.StatusConflict
	}

	log.Debug("acquire lock handled",
		slog.String("session_id", sessionID),
		slog.String("status", string(result.Status)))
	shared.RespondWithJSON(w, r, status, acquireToResponse(result))
}

// ReleaseLock handles DELETE /sessions/{sessionID}/lock requests.
// Double-release and release of an already-expired lease are reported as
// outcomes (missing, expired), never as errors.
func (h *LockHandler) ReleaseLock(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		log.Warn("session ID not found in URL path")
		shared.RespondWithError(w, r, http.StatusBadRequest, "Session ID is required")
		return
	}

	var req ReleaseLockRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("session_id", sessionID))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		log.Warn("validation error",
			slog.String("error", redact.Error(err)),
			slog.String("session_id", sessionID))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error")
		return
	}

	result, err := h.locker.Release(r.Context(), sessionID, req.RequestID)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		shared.RespondWithErrorAndLog(w, r, statusCode, GetSafeErrorMessage(err), err)
		return
	}

	status := http.StatusOK
	if result.Status == domain.ReleaseStatusNotOwner {
		status = http.StatusConflict
	}

	log.Debug("release lock handled",
		slog.String("session_id", sessionID),
		slog.String("status", string(result.Status)))
	shared.RespondWithJSON(w, r, status, releaseToResponse(result))
}

func acquireToResponse(result *domain.AcquireResult) AcquireLockResponse {
	resp := AcquireLockResponse{
		Status:    string(result.Status),
		SessionID: result.SessionID,
		ExpiresAt: result.ExpiresAt,
	}
	if result.Status == domain.AcquireStatusBusy {
		resp.OwnerRequestID = result.OwnerRequestID
	} else {
		resp.RequestID = result.RequestID
	}
	return resp
}

func releaseToResponse(result *domain.ReleaseResult) ReleaseLockResponse {
	return ReleaseLockResponse{
		Status:         string(result.Status),
		SessionID:      result.SessionID,
		OwnerRequestID: result.OwnerRequestID,
	}
}
