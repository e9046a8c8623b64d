// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying record store from the lock
// manager's core logic, so the acquire/release semantics stay independent
// of the specific database technology providing atomic transactions.
package store
