package domain

import "time"

// AcquireStatus enumerates the defined outcomes of an acquire call.
// Every branch of the acquire algorithm maps to exactly one of these;
// contention is a routine result, not an error.
type AcquireStatus string

const (
	// AcquireStatusAcquired means the caller now holds the lease, either by
	// creating a fresh one or by taking over a stale one.
	AcquireStatusAcquired AcquireStatus = "acquired"

	// AcquireStatusRenewed means the caller already held the lease and its
	// expiry was extended.
	AcquireStatusRenewed AcquireStatus = "renewed"

	// AcquireStatusBusy means another holder owns a live lease; nothing was
	// mutated.
	AcquireStatusBusy AcquireStatus = "busy"
)

// ReleaseStatus enumerates the defined outcomes of a release call.
type ReleaseStatus string

const (
	// ReleaseStatusReleased means the caller owned the live lease and it was
	// deleted.
	ReleaseStatusReleased ReleaseStatus = "released"

	// ReleaseStatusMissing means no lease record existed; double-release is a
	// no-op rather than an error.
	ReleaseStatusMissing ReleaseStatus = "missing"

	// ReleaseStatusExpired means the record found was stale. It is deleted as
	// lazy garbage collection, but the caller's own claim had already lapsed.
	ReleaseStatusExpired ReleaseStatus = "expired"

	// ReleaseStatusNotOwner means a different holder owns a live lease; the
	// record is left untouched.
	ReleaseStatusNotOwner ReleaseStatus = "not_owner"
)

// AcquireResult reports the outcome of an acquire call. For busy results,
// OwnerRequestID and ExpiresAt describe the current holder so the caller can
// decide whether to wait, retry, or abort.
type AcquireResult struct {
	Status         AcquireStatus
	SessionID      string
	RequestID      string
	OwnerRequestID string
	ExpiresAt      time.Time
}

// ReleaseResult reports the outcome of a release call. OwnerRequestID is set
// only for not_owner results.
type ReleaseResult struct {
	Status         ReleaseStatus
	SessionID      string
	OwnerRequestID string
}
