package gateway

import "errors"

var (
	// ErrTenantNotFound is permanent for the tenant: it is absent or inactive.
	ErrTenantNotFound = errors.New("gateway: tenant not found")
	// ErrUnauthorized means the inbound shared secret did not match.
	ErrUnauthorized = errors.New("gateway: unauthorized")
	// ErrCredentialUnavailable is transient and safe to retry.
	ErrCredentialUnavailable = errors.New("gateway: credential unavailable")
	ErrRegistryUnavailable   = errors.New("gateway: registry unavailable")
	ErrSessionUnavailable    = errors.New("gateway: session unavailable")
	ErrGatewayClosed         = errors.New("gateway: closed")
	ErrEmptyTenantID         = errors.New("gateway: empty tenant id")
)
