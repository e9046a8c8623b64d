package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/WahabBasa/todoist-agent-backend/internal/config"
	"github.com/WahabBasa/todoist-agent-backend/internal/domain"
	"github.com/WahabBasa/todoist-agent-backend/internal/store"
)

// acquireMaxAttempts bounds retries of the acquire transaction when two
// callers race to create the first lease for a session. The loser's insert
// fails on the unique index; one retry observes the winner's record and
// resolves through the normal busy/takeover branches.
const acquireMaxAttempts = 2

// SessionLocker guarantees at most one in-flight agent turn per chat
// session. Callers acquire a lease before running a turn and release it
// afterward; every contention state is a defined outcome rather than an
// error. Only infrastructure failures of the underlying store surface as Go
// errors.
type SessionLocker interface {
	// Acquire attempts to claim the session for the given holder. A ttl <= 0
	// selects the configured default. Outcomes: acquired (fresh lease or
	// takeover of a stale one), renewed (caller already holds it), or busy
	// (another holder's lease is live; the result reports the owner and its
	// expiry).
	Acquire(
		ctx context.Context,
		sessionID, requestID string,
		ttl time.Duration,
	) (*domain.AcquireResult, error)

	// Release gives up the caller's claim on the session. Outcomes:
	// released (caller owned the live lease), missing (no lease record;
	// double-release is expected), expired (the record was stale and has
	// been reaped regardless of owner), or not_owner (a different holder's
	// live lease was left untouched).
	Release(ctx context.Context, sessionID, requestID string) (*domain.ReleaseResult, error)
}

// LockService implements SessionLocker on top of a transactional lease
// store. Each operation runs as a single database transaction: the lease row
// is locked, exactly one branch of the algorithm fires, and the mutation
// commits atomically. The service performs no background work; expiry is
// discovered lazily by the next caller that touches the record.
type LockService struct {
	db         *sql.DB
	leaseStore store.LeaseStore
	defaultTTL time.Duration
	minTTL     time.Duration
	logger     *slog.Logger
}

// NewLockService creates a LockService with the lease TTL policy from cfg.
func NewLockService(
	db *sql.DB,
	leaseStore store.LeaseStore,
	cfg config.LockConfig,
	logger *slog.Logger,
) *LockService {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for LockService")
	}

	defaultTTL := time.Duration(cfg.DefaultTTLMs) * time.Millisecond
	if defaultTTL <= 0 {
		defaultTTL = domain.DefaultLeaseTTL
	}
	minTTL := time.Duration(cfg.MinTTLMs) * time.Millisecond
	if minTTL < domain.MinLeaseTTL {
		minTTL = domain.MinLeaseTTL
	}

	return &LockService{
		db:         db,
		leaseStore: leaseStore,
		defaultTTL: defaultTTL,
		minTTL:     minTTL,
		logger:     logger.With("component", "lock_service"),
	}
}

// Acquire claims, renews, or reports contention for the session lease in a
// single atomic transaction.
func (s *LockService) Acquire(
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
	ttl = s.clampTTL(ttl)

	var result *domain.AcquireResult
	var err error
	for attempt := 1; attempt <= acquireMaxAttempts; attempt++ {
		result, err = s.acquireTx(ctx, sessionID, requestID, ttl)
		if err == nil || !errors.Is(err, store.ErrLeaseExists) {
			break
		}
		// Lost the race to create the first lease for this session. The
		// retry sees the winner's record and resolves via busy or takeover.
		s.logger.Debug("lost lease creation race, retrying acquire",
			"session_id", sessionID,
			"request_id", requestID,
			"attempt", attempt)
	}
	if err != nil {
		s.logger.Error("failed to acquire session lease",
			"error", err,
			"session_id", sessionID,
			"request_id", requestID)
		return nil, fmt.Errorf("failed to acquire session lease: %w", err)
	}

	s.logger.Debug("acquire completed",
		"session_id", sessionID,
		"request_id", requestID,
		"status", string(result.Status))

	return result, nil
}

// acquireTx runs one attempt of the acquire algorithm inside a transaction.
// Exactly one branch fires: create, renew, takeover, or busy.
func (s *LockService) acquireTx(
	ctx context.Context,
	sessionID, requestID string,
	ttl time.Duration,
) (*domain.AcquireResult, error) {
	var result *domain.AcquireResult

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.leaseStore.WithTx(tx)
		now := time.Now().UTC()

		lease, err := txStore.Get(ctx, sessionID)
		if err != nil {
			if !errors.Is(err, store.ErrLeaseNotFound) {
				return err
			}

			// No lease exists: create one owned by the caller.
			fresh := &domain.Lease{
				SessionID: sessionID,
				RequestID: requestID,
				ExpiresAt: now.Add(ttl),
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := txStore.Create(ctx, fresh); err != nil {
				return err
			}
			result = &domain.AcquireResult{
				Status:    domain.AcquireStatusAcquired,
				SessionID: sessionID,
				RequestID: requestID,
				ExpiresAt: fresh.ExpiresAt,
			}
			return nil
		}

		switch {
		case lease.IsHeldBy(requestID):
			// Idempotent renewal: the holder may extend its own lease
			// repeatedly without releasing.
			lease.ExpiresAt = now.Add(ttl)
			if err := txStore.Update(ctx, lease); err != nil {
				return err
			}
			result = &domain.AcquireResult{
				Status:    domain.AcquireStatusRenewed,
				SessionID: sessionID,
				RequestID: requestID,
				ExpiresAt: lease.ExpiresAt,
			}

		case lease.IsExpiredAt(now):
			// Stale lease held by someone else: take it over in place.
			lease.RequestID = requestID
			lease.ExpiresAt = now.Add(ttl)
			if err := txStore.Update(ctx, lease); err != nil {
				return err
			}
			result = &domain.AcquireResult{
				Status:    domain.AcquireStatusAcquired,
				SessionID: sessionID,
				RequestID: requestID,
				ExpiresAt: lease.ExpiresAt,
			}

		default:
			// Live lease held by someone else: report the owner so the
			// caller can decide whether to wait, retry, or abort.
			result = &domain.AcquireResult{
				Status:         domain.AcquireStatusBusy,
				SessionID:      sessionID,
				RequestID:      requestID,
				OwnerRequestID: lease.RequestID,
				ExpiresAt:      lease.ExpiresAt,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Release deletes the caller's lease, reaps a stale one, or reports the
// live owner, in a single atomic transaction.
func (s *LockService) Release(
	ctx context.Context,
	sessionID, requestID string,
) (*domain.ReleaseResult, error) {
	if sessionID == "" {
		return nil, domain.ErrEmptySessionID
	}
	if requestID == "" {
		return nil, domain.ErrEmptyRequestID
	}

	var result *domain.ReleaseResult

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.leaseStore.WithTx(tx)
		now := time.Now().UTC()

		lease, err := txStore.Get(ctx, sessionID)
		if err != nil {
			if !errors.Is(err, store.ErrLeaseNotFound) {
				return err
			}
			// Nothing to release. Double-release and release after a reaped
			// takeover are routine, not errors.
			result = &domain.ReleaseResult{
				Status:    domain.ReleaseStatusMissing,
				SessionID: sessionID,
			}
			return nil
		}

		switch {
		case lease.IsExpiredAt(now):
			// Stale record, whoever it nominally belongs to: reap it. The
			// caller's own claim has already lapsed either way.
			if err := txStore.Delete(ctx, sessionID); err != nil {
				return err
			}
			result = &domain.ReleaseResult{
				Status:    domain.ReleaseStatusExpired,
				SessionID: sessionID,
			}

		case lease.IsHeldBy(requestID):
			if err := txStore.Delete(ctx, sessionID); err != nil {
				return err
			}
			result = &domain.ReleaseResult{
				Status:    domain.ReleaseStatusReleased,
				SessionID: sessionID,
			}

		default:
			// Live lease owned by someone else: never tear down state the
			// caller does not own.
			result = &domain.ReleaseResult{
				Status:         domain.ReleaseStatusNotOwner,
				SessionID:      sessionID,
				OwnerRequestID: lease.RequestID,
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to release session lease",
			"error", err,
			"session_id", sessionID,
			"request_id", requestID)
		return nil, fmt.Errorf("failed to release session lease: %w", err)
	}

	s.logger.Debug("release completed",
		"session_id", sessionID,
		"request_id", requestID,
		"status", string(result.Status))

	return result, nil
}

// clampTTL applies the configured lease TTL policy: non-positive values
// select the default, values below the floor are raised to it.
func (s *LockService) clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return s.defaultTTL
	}
	if ttl < s.minTTL {
		return s.minTTL
	}
	return ttl
}
