// Package postgres provides the PostgreSQL-backed implementation of the
// lease store defined in internal/store. It handles query execution, row
// locking, and mapping between database errors and store sentinels.
package postgres
