package domain

import (
	"errors"
	"time"
)

// Common validation errors
var (
	ErrEmptySessionID = errors.New("session ID cannot be empty")
	ErrEmptyRequestID = errors.New("request ID cannot be empty")
	ErrZeroExpiry     = errors.New("lease expiry cannot be zero")
)

// TTL policy for session leases. Callers may ask for any duration; the
// service clamps it to these bounds so a malformed request can never create
// an effectively permanent or instantly-stale lease.
const (
	// DefaultLeaseTTL is applied when the caller does not specify a TTL.
	DefaultLeaseTTL = 15 * time.Second

	// MinLeaseTTL is the floor for caller-supplied TTLs.
	MinLeaseTTL = 1 * time.Second
)

// Lease is a time-bounded claim of exclusive ownership over a chat session.
// At most one lease exists per session at any instant. The RequestID is an
// opaque token identifying the current holder; it is never interpreted
// beyond equality comparison.
type Lease struct {
	SessionID string    `json:"session_id"`
	RequestID string    `json:"request_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLease creates a lease for the given session and holder, valid for ttl
// from now. The ttl is clamped via ClampTTL. Returns an error if validation
// fails.
func NewLease(sessionID, requestID string, ttl time.Duration) (*Lease, error) {
	now := time.Now().UTC()
	lease := &Lease{
		SessionID: sessionID,
		RequestID: requestID,
		ExpiresAt: now.Add(ClampTTL(ttl)),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := lease.Validate(); err != nil {
		return nil, err
	}

	return lease, nil
}

// Validate checks if the Lease has valid data.
// Returns an error if any field fails validation.
func (l *Lease) Validate() error {
	if l.SessionID == "" {
		return ErrEmptySessionID
	}

	if l.RequestID == "" {
		return ErrEmptyRequestID
	}

	if l.ExpiresAt.IsZero() {
		return ErrZeroExpiry
	}

	return nil
}

// IsExpiredAt reports whether the lease is stale at the given instant.
// A lease is live iff ExpiresAt > now; at exactly ExpiresAt it is stale.
func (l *Lease) IsExpiredAt(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}

// IsHeldBy reports whether the lease currently belongs to the given holder.
func (l *Lease) IsHeldBy(requestID string) bool {
	return l.RequestID == requestID
}

// ClampTTL normalizes a caller-supplied TTL: non-positive values default to
// DefaultLeaseTTL, values below the floor are raised to MinLeaseTTL.
func ClampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultLeaseTTL
	}
	if ttl < MinLeaseTTL {
		return MinLeaseTTL
	}
	return ttl
}
