// Package domain contains the core entities of the session locking system:
// the lease record, the TTL policy applied to it, and the outcome types the
// lock operations report. It has no dependency on any storage or delivery
// mechanism.
package domain
