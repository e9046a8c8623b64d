package api

import (
	"errors"
	"net/http"

	"github.com/WahabBasa/todoist-agent-backend/internal/domain"
	"github.com/WahabBasa/todoist-agent-backend/internal/store"
)

// MapErrorToStatusCode maps service and store errors to HTTP status codes.
// Anything unrecognized is an infrastructure failure and maps to 500; the
// lock operations themselves never produce domain errors beyond input
// validation, because contention states are outcomes, not errors.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptySessionID),
		errors.Is(err, domain.ErrEmptyRequestID):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-safe message for the given error.
// Raw error strings never reach the client; they may embed SQL or
// connection details.
func GetSafeErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptySessionID):
		return "Session ID is required"
	case errors.Is(err, domain.ErrEmptyRequestID):
		return "Request ID is required"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"
	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"
	default:
		return "An internal error occurred"
	}
}
