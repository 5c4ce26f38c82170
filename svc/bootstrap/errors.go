package bootstrap

import "errors"

var (
	ErrMissingSecrets = errors.New("bootstrap: missing required secrets")
	ErrSecretRead     = errors.New("bootstrap: secret read failed")
)
