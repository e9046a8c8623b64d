package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WahabBasa/todoist-agent-backend/internal/domain"
	"github.com/WahabBasa/todoist-agent-backend/internal/store"
)

func newLeaseStore(t *testing.T) (*PostgresLeaseStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewPostgresLeaseStore(db), mock
}

func testLease(expiresAt time.Time) *domain.Lease {
	now := time.Now().UTC()
	return &domain.Lease{
		SessionID: "s1",
		RequestID: "r1",
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestGet(t *testing.T) {
	t.Run("returns lease", func(t *testing.T) {
		s, mock := newLeaseStore(t)

		now := time.Now().UTC()
		expiresAt := now.Add(10 * time.Second)
		rows := mock.NewRows([]string{"session_id", "request_id", "expires_at", "created_at", "updated_at"}).
			AddRow("s1", "r1", expiresAt, now, now)

		mock.ExpectQuery("SELECT session_id, request_id, expires_at, created_at, updated_at FROM session_leases").
			WithArgs("s1").
			WillReturnRows(rows)

		lease, err := s.Get(context.Background(), "s1")
		require.NoError(t, err)

		assert.Equal(t, "s1", lease.SessionID)
		assert.Equal(t, "r1", lease.RequestID)
		assert.WithinDuration(t, expiresAt, lease.ExpiresAt, time.Millisecond)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing row to ErrLeaseNotFound", func(t *testing.T) {
		s, mock := newLeaseStore(t)

		mock.ExpectQuery("SELECT session_id, request_id, expires_at").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		lease, err := s.Get(context.Background(), "missing")
		assert.Nil(t, lease)
		assert.ErrorIs(t, err, store.ErrLeaseNotFound)
		assert.ErrorIs(t, err, store.ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps infrastructure errors", func(t *testing.T) {
		s, mock := newLeaseStore(t)

		mock.ExpectQuery("SELECT session_id, request_id, expires_at").
			WithArgs("s1").
			WillReturnError(errors.New("connection reset"))

		_, err := s.Get(context.Background(), "s1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get session lease")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreate(t *testing.T) {
	t.Run("inserts lease", func(t *testing.T) {
		s, mock := newLeaseStore(t)

		lease := testLease(time.Now().UTC().Add(10 * time.Second))
		mock.ExpectExec("INSERT INTO session_leases").
			WithArgs("s1", "r1", lease.ExpiresAt, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := s.Create(context.Background(), lease)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps unique violation to ErrLeaseExists", func(t *testing.T) {
		s, mock := newLeaseStore(t)

		lease := testLease(time.Now().UTC().Add(10 * time.Second))
		mock.ExpectExec("INSERT INTO session_leases").
			WithArgs("s1", "r1", lease.ExpiresAt, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})

		err := s.Create(context.Background(), lease)
		assert.ErrorIs(t, err, store.ErrLeaseExists)
		assert.ErrorIs(t, err, store.ErrDuplicate)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects invalid lease", func(t *testing.T) {
		s, _ := newLeaseStore(t)

		err := s.Create(context.Background(), &domain.Lease{RequestID: "r1"})
		assert.ErrorIs(t, err, domain.ErrEmptySessionID)
	})
}

func TestUpdate(t *testing.T) {
	t.Run("updates holder and expiry", func(t *testing.T) {
		s, mock := newLeaseStore(t)

		lease := testLease(time.Now().UTC().Add(10 * time.Second))
		mock.ExpectExec("UPDATE session_leases").
			WithArgs("r1", lease.ExpiresAt, sqlmock.AnyArg(), "s1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := s.Update(context.Background(), lease)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows affected maps to ErrNotFound", func(t *testing.T) {
		s, mock := newLeaseStore(t)

		lease := testLease(time.Now().UTC().Add(10 * time.Second))
		mock.ExpectExec("UPDATE session_leases").
			WithArgs("r1", lease.ExpiresAt, sqlmock.AnyArg(), "s1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := s.Update(context.Background(), lease)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDelete(t *testing.T) {
	t.Run("deletes lease", func(t *testing.T) {
		s, mock := newLeaseStore(t)

		mock.ExpectExec("DELETE FROM session_leases").
			WithArgs("s1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := s.Delete(context.Background(), "s1")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows affected maps to ErrNotFound", func(t *testing.T) {
		s, mock := newLeaseStore(t)

		mock.ExpectExec("DELETE FROM session_leases").
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := s.Delete(context.Background(), "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWithTx(t *testing.T) {
	s, mock := newLeaseStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT session_id, request_id, expires_at").
		WithArgs("s1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	db := s.db.(*sql.DB)
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	txStore := s.WithTx(tx)
	_, err = txStore.Get(context.Background(), "s1")
	assert.ErrorIs(t, err, store.ErrLeaseNotFound)

	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}
