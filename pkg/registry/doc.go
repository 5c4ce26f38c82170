// Package registry tells the gateway which tenants exist.
//
// Postgres is the source of truth, a "tenants" table created by the embedded
// goose migrations (see Migrations). Cached puts a short-lived Redis copy of
// FindByUUID results in front of any Registry. Missing tenants are
// ErrNotFound, unique violations ErrDuplicate and backend failures
// ErrUnavailable.
package registry
