package registry

import "errors"

var (
	ErrNotFound    = errors.New("registry: tenant not found")
	ErrDuplicate   = errors.New("registry: tenant already exists")
	ErrUnavailable = errors.New("registry: backend unavailable")
)
