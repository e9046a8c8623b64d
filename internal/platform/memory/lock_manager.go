// Package memory provides an in-process implementation of the session lock
// for single-process deployments and tests. A mutex-guarded map stands in
// for the transactional record store: holding the mutex across each
// read-modify-write gives the same atomicity the database transaction gives
// the PostgreSQL-backed service.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/WahabBasa/todoist-agent-backend/internal/domain"
)

// LockManager implements service.SessionLocker over an in-memory lease map.
// Lease semantics match the transactional implementation exactly: at most
// one lease per session, idempotent renewal, lazy takeover of stale leases,
// and owner-checked release.
type LockManager struct {
	mu     sync.Mutex
	leases map[string]*domain.Lease
}

// NewLockManager creates an empty LockManager.
func NewLockManager() *LockManager {
	return &LockManager{
		leases: make(map[string]*domain.Lease),
	}
}

// Acquire claims, renews, or reports contention for the session lease.
// The whole branch runs under the manager's mutex, so two concurrent calls
// for the same session can never both observe "no existing lease".
func (m *LockManager) Acquire(
	ctx context.Context,
	sessionID, requestID string,
	ttl time.Duration,
) (*domain.AcquireResult, error) {
	if sessionID == "" {
		return nil, domain.ErrEmptySessionID
	}
	if requestID == "" {
		return nil, domain.ErrEmptyRequestID
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ttl = domain.ClampTTL(ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()

	lease, ok := m.leases[sessionID]
	if !ok {
		m.leases[sessionID] = &domain.Lease{
			SessionID: sessionID,
			RequestID: requestID,
			ExpiresAt: now.Add(ttl),
			CreatedAt: now,
			UpdatedAt: now,
		}
		return &domain.AcquireResult{
			Status:    domain.AcquireStatusAcquired,
			SessionID: sessionID,
			RequestID: requestID,
			ExpiresAt: m.leases[sessionID].ExpiresAt,
		}, nil
	}

	switch {
	case lease.IsHeldBy(requestID):
		lease.ExpiresAt = now.Add(ttl)
		lease.UpdatedAt = now
		return &domain.AcquireResult{
			Status:    domain.AcquireStatusRenewed,
			SessionID: sessionID,
			RequestID: requestID,
			ExpiresAt: lease.ExpiresAt,
		}, nil

	case lease.IsExpiredAt(now):
		// Takeover: overwrite the stale holder in place.
		lease.RequestID = requestID
		lease.ExpiresAt = now.Add(ttl)
		lease.UpdatedAt = now
		return &domain.AcquireResult{
			Status:    domain.AcquireStatusAcquired,
			SessionID: sessionID,
			RequestID: requestID,
			ExpiresAt: lease.ExpiresAt,
		}, nil

	default:
		return &domain.AcquireResult{
			Status:         domain.AcquireStatusBusy,
			SessionID:      sessionID,
			RequestID:      requestID,
			OwnerRequestID: lease.RequestID,
			ExpiresAt:      lease.ExpiresAt,
		}, nil
	}
}

// Release deletes the caller's lease, reaps a stale one, or reports the live
// owner.
func (m *LockManager) Release(
	ctx context.Context,
	sessionID, requestID string,
) (*domain.ReleaseResult, error) {
	if sessionID == "" {
		return nil, domain.ErrEmptySessionID
	}
	if requestID == "" {
		return nil, domain.ErrEmptyRequestID
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()

	lease, ok := m.leases[sessionID]
	if !ok {
		return &domain.ReleaseResult{
			Status:    domain.ReleaseStatusMissing,
			SessionID: sessionID,
		}, nil
	}

	switch {
	case lease.IsExpiredAt(now):
		// Lazy garbage collection of an abandoned lease, whoever it
		// nominally belongs to.
		delete(m.leases, sessionID)
		return &domain.ReleaseResult{
			Status:    domain.ReleaseStatusExpired,
			SessionID: sessionID,
		}, nil

	case lease.IsHeldBy(requestID):
		delete(m.leases, sessionID)
		return &domain.ReleaseResult{
			Status:    domain.ReleaseStatusReleased,
			SessionID: sessionID,
		}, nil

	default:
		return &domain.ReleaseResult{
			Status:         domain.ReleaseStatusNotOwner,
			SessionID:      sessionID,
			OwnerRequestID: lease.RequestID,
		}, nil
	}
}
