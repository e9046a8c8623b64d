package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WahabBasa/todoist-agent-backend/internal/domain"
	"github.com/WahabBasa/todoist-agent-backend/internal/platform/memory"
)

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewLockHandler(memory.NewLockManager(), logger)

	r := chi.NewRouter()
	r.Post("/api/sessions/{sessionID}/lock", handler.AcquireLock)
	r.Delete("/api/sessions/{sessionID}/lock", handler.ReleaseLock)

	return r
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeAcquire(t *testing.T, rr *httptest.ResponseRecorder) AcquireLockResponse {
	t.Helper()

	var resp AcquireLockResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func decodeRelease(t *testing.T, rr *httptest.ResponseRecorder) ReleaseLockResponse {
	t.Helper()

	var resp ReleaseLockResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func TestAcquireLock(t *testing.T) {
	t.Run("acquires fresh lock", func(t *testing.T) {
		router := newTestRouter(t)

		rr := doJSON(t, router, http.MethodPost, "/api/sessions/s1/lock", AcquireLockRequest{
			RequestID: "r1",
			TTLMs:     5000,
		})

		assert.Equal(t, http.StatusOK, rr.Code)
		resp := decodeAcquire(t, rr)
		assert.Equal(t, "acquired", resp.Status)
		assert.Equal(t, "s1", resp.SessionID)
		assert.Equal(t, "r1", resp.RequestID)
		assert.Empty(t, resp.OwnerRequestID)
		assert.True(t, resp.ExpiresAt.After(time.Now().UTC()))
	})

	t.Run("generates request id when omitted", func(t *testing.T) {
		router := newTestRouter(t)

		rr := doJSON(t, router, http.MethodPost, "/api/sessions/s1/lock", AcquireLockRequest{})

		assert.Equal(t, http.StatusOK, rr.Code)
		resp := decodeAcquire(t, rr)
		assert.Equal(t, "acquired", resp.Status)
		require.NotEmpty(t, resp.RequestID)

		// The generated id works for renewal and release.
		rr = doJSON(t, router, http.MethodPost, "/api/sessions/s1/lock", AcquireLockRequest{
			RequestID: resp.RequestID,
		})
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "renewed", decodeAcquire(t, rr).Status)
	})

	t.Run("tolerates empty body", func(t *testing.T) {
		router := newTestRouter(t)

		req := httptest.NewRequest(http.MethodPost, "/api/sessions/s1/lock", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "acquired", decodeAcquire(t, rr).Status)
	})

	t.Run("renews own lock", func(t *testing.T) {
		router := newTestRouter(t)

		doJSON(t, router, http.MethodPost, "/api/sessions/s1/lock", AcquireLockRequest{RequestID: "r1"})
		rr := doJSON(t, router, http.MethodPost, "/api/sessions/s1/lock", AcquireLockRequest{RequestID: "r1"})

		assert.Equal(t, http.StatusOK, rr.Code)
		resp := decodeAcquire(t, rr)
		assert.Equal(t, "renewed", resp.Status)
		assert.Equal(t, "r1", resp.RequestID)
	})

	t.Run("conflicting lock yields 409 with owner", func(t *testing.T) {
		router := newTestRouter(t)

		doJSON(t, router, http.MethodPost, "/api/sessions/s1/lock", AcquireLockRequest{RequestID: "r1"})
		rr := doJSON(t, router, http.MethodPost, "/api/sessions/s1/lock", AcquireLockRequest{RequestID: "r2"})

		assert.Equal(t, http.StatusConflict, rr.Code)
		resp := decodeAcquire(t, rr)
		assert.Equal(t, "busy", resp.Status)
		assert.Equal(t, "r1", resp.OwnerRequestID)
		assert.Empty(t, resp.RequestID)
		assert.True(t, resp.ExpiresAt.After(time.Now().UTC()))
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		router := newTestRouter(t)

		req := httptest.NewRequest(http.MethodPost, "/api/sessions/s1/lock",
			bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects negative ttl", func(t *testing.T) {
		router := newTestRouter(t)

		rr := doJSON(t, router, http.MethodPost, "/api/sessions/s1/lock", AcquireLockRequest{
			RequestID: "r1",
			TTLMs:     -100,
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestReleaseLock(t *testing.T) {
	t.Run("owner releases", func(t *testing.T) {
		router := newTestRouter(t)

		doJSON(t, router, http.MethodPost, "/api/sessions/s1/lock", AcquireLockRequest{RequestID: "r1"})
		rr := doJSON(t, router, http.MethodDelete, "/api/sessions/s1/lock", ReleaseLockRequest{RequestID: "r1"})

		assert.Equal(t, http.StatusOK, rr.Code)
		resp := decodeRelease(t, rr)
		assert.Equal(t, "released", resp.Status)
		assert.Equal(t, "s1", resp.SessionID)
		assert.Empty(t, resp.OwnerRequestID)
	})

	t.Run("missing lock reported as outcome", func(t *testing.T) {
		router := newTestRouter(t)

		rr := doJSON(t, router, http.MethodDelete, "/api/sessions/s1/lock", ReleaseLockRequest{RequestID: "r1"})

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "missing", decodeRelease(t, rr).Status)
	})

	t.Run("foreign live lock yields 409 with owner", func(t *testing.T) {
		router := newTestRouter(t)

		doJSON(t, router, http.MethodPost, "/api/sessions/s1/lock", AcquireLockRequest{RequestID: "r1"})
		rr := doJSON(t, router, http.MethodDelete, "/api/sessions/s1/lock", ReleaseLockRequest{RequestID: "r2"})

		assert.Equal(t, http.StatusConflict, rr.Code)
		resp := decodeRelease(t, rr)
		assert.Equal(t, "not_owner", resp.Status)
		assert.Equal(t, "r1", resp.OwnerRequestID)
	})

	t.Run("requires request id", func(t *testing.T) {
		router := newTestRouter(t)

		rr := doJSON(t, router, http.MethodDelete, "/api/sessions/s1/lock", ReleaseLockRequest{})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

// failingLocker simulates store failure behind the handler.
type failingLocker struct{}

func (f *failingLocker) Acquire(ctx context.Context, sessionID, requestID string, ttl time.Duration) (*domain.AcquireResult, error) {
	return nil, errors.New("database unavailable")
}

func (f *failingLocker) Release(ctx context.Context, sessionID, requestID string) (*domain.ReleaseResult, error) {
	return nil, errors.New("database unavailable")
}

func TestLockHandler_InfrastructureErrors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewLockHandler(&failingLocker{}, logger)

	r := chi.NewRouter()
	r.Post("/api/sessions/{sessionID}/lock", handler.AcquireLock)
	r.Delete("/api/sessions/{sessionID}/lock", handler.ReleaseLock)

	rr := doJSON(t, r, http.MethodPost, "/api/sessions/s1/lock", AcquireLockRequest{RequestID: "r1"})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "database unavailable")

	rr = doJSON(t, r, http.MethodDelete, "/api/sessions/s1/lock", ReleaseLockRequest{RequestID: "r1"})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestNewLockHandler_NilLoggerPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewLockHandler(memory.NewLockManager(), nil)
	})
}
