package credentials

import "errors"

var (
	// ErrCredentialUnavailable wraps every failed fetch. It is retryable.
	ErrCredentialUnavailable = errors.New("credentials: credential unavailable")
	// ErrSecretNotFound means the secret store has no entry for the tenant.
	ErrSecretNotFound = errors.New("credentials: secret not found")
	// ErrInvalidSecret means the stored secret does not match the schema.
	ErrInvalidSecret = errors.New("credentials: invalid secret")
	ErrEmptyTenantID = errors.New("credentials: empty tenant id")
)
