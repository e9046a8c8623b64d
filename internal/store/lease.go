package store

import (
	"context"
	"database/sql"

	"github.com/WahabBasa/todoist-agent-backend/internal/domain"
)

// LeaseStore defines the interface for session lease persistence. It exposes
// plain record operations only; the acquire/release branching lives in the
// service layer, which composes these calls inside a single transaction.
type LeaseStore interface {
	// Get retrieves the lease record for the given session.
	// When invoked on a transaction-aware store (see WithTx), the record is
	// locked for the remainder of the transaction so that concurrent
	// read-modify-write sequences on the same session serialize.
	// Returns ErrLeaseNotFound if no record exists.
	Get(ctx context.Context, sessionID string) (*domain.Lease, error)

	// Create inserts a new lease record for a session that has none.
	// Returns ErrLeaseExists if a record already exists; the unique index on
	// the session ID guarantees two concurrent creators cannot both succeed.
	Create(ctx context.Context, lease *domain.Lease) error

	// Update overwrites the holder and expiry of an existing lease record.
	// Returns ErrLeaseNotFound if the record has vanished.
	Update(ctx context.Context, lease *domain.Lease) error

	// Delete removes the lease record for the given session.
	// Returns ErrLeaseNotFound if no record exists.
	Delete(ctx context.Context, sessionID string) error

	// WithTx returns a LeaseStore bound to the provided transaction, so that
	// several operations execute atomically. The transaction is created and
	// managed by the caller (typically the lock service).
	WithTx(tx *sql.Tx) LeaseStore
}
