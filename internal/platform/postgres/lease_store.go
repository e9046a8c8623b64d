package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/WahabBasa/todoist-agent-backend/internal/domain"
	"github.com/WahabBasa/todoist-agent-backend/internal/platform/logger"
	"github.com/WahabBasa/todoist-agent-backend/internal/store"
)

// PostgresLeaseStore implements the store.LeaseStore interface using
// PostgreSQL. The session_leases table has a primary key on session_id, so
// at most one lease record can exist per session; concurrent creators are
// serialized by the unique index and the loser receives ErrLeaseExists.
type PostgresLeaseStore struct {
	db store.DBTX
}

// NewPostgresLeaseStore creates a new PostgresLeaseStore.
func NewPostgresLeaseStore(db store.DBTX) *PostgresLeaseStore {
	return &PostgresLeaseStore{
		db: db,
	}
}

// WithTx returns a LeaseStore bound to the given transaction. Get calls on
// the returned store lock the lease row until the transaction ends.
func (s *PostgresLeaseStore) WithTx(tx *sql.Tx) store.LeaseStore {
	return &PostgresLeaseStore{
		db: tx,
	}
}

// Get retrieves the lease record for the given session. The FOR UPDATE
// clause locks the row for the remainder of the surrounding transaction so
// concurrent acquire/release sequences on the same session serialize; on a
// plain connection it degrades to an ordinary read.
func (s *PostgresLeaseStore) Get(ctx context.Context, sessionID string) (*domain.Lease, error) {
	query := `
		SELECT session_id, request_id, expires_at, created_at, updated_at
		FROM session_leases
		WHERE session_id = $1
		FOR UPDATE
	`

	var lease domain.Lease
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&lease.SessionID,
		&lease.RequestID,
		&lease.ExpiresAt,
		&lease.CreatedAt,
		&lease.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrLeaseNotFound
		}
		return nil, fmt.Errorf("failed to get session lease: %w", MapError(err))
	}

	return &lease, nil
}

// Create inserts a new lease record. Returns store.ErrLeaseExists if another
// transaction created one first.
func (s *PostgresLeaseStore) Create(ctx context.Context, lease *domain.Lease) error {
	log := logger.FromContext(ctx)

	if err := lease.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO session_leases (session_id, request_id, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, query,
		lease.SessionID,
		lease.RequestID,
		lease.ExpiresAt,
		now,
		now,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrLeaseExists, err)
		}
		log.Error("failed to create session lease",
			"session_id", lease.SessionID,
			"error", err)
		return fmt.Errorf("failed to create session lease: %w", MapError(err))
	}

	return nil
}

// Update overwrites the holder and expiry of an existing lease record. Used
// both for idempotent renewal by the current holder and for takeover of a
// stale lease by a new one.
func (s *PostgresLeaseStore) Update(ctx context.Context, lease *domain.Lease) error {
	log := logger.FromContext(ctx)

	if err := lease.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE session_leases
		SET request_id = $1, expires_at = $2, updated_at = $3
		WHERE session_id = $4
	`

	result, err := s.db.ExecContext(ctx, query,
		lease.RequestID,
		lease.ExpiresAt,
		time.Now().UTC(),
		lease.SessionID,
	)
	if err != nil {
		log.Error("failed to update session lease",
			"session_id", lease.SessionID,
			"error", err)
		return fmt.Errorf("failed to update session lease: %w", MapError(err))
	}

	return CheckRowsAffected(result, "session lease")
}

// Delete removes the lease record for the given session.
func (s *PostgresLeaseStore) Delete(ctx context.Context, sessionID string) error {
	log := logger.FromContext(ctx)

	query := `
		DELETE FROM session_leases
		WHERE session_id = $1
	`

	result, err := s.db.ExecContext(ctx, query, sessionID)
	if err != nil {
		log.Error("failed to delete session lease",
			"session_id", sessionID,
			"error", err)
		return fmt.Errorf("failed to delete session lease: %w", MapError(err))
	}

	return CheckRowsAffected(result, "session lease")
}
