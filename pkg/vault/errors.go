package vault

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hashicorp/vault/api"
)

var (
	ErrNotFound         = errors.New("vault: secret not found")
	ErrPermissionDenied = errors.New("vault: permission denied")
	ErrUnavailable      = errors.New("vault: store unavailable")
	ErrAuthFailed       = errors.New("vault: authentication failed")
	ErrEmptyPath        = errors.New("vault: empty secret path")
)

// classify maps a client error onto the package sentinels while keeping the
// original error in the chain.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case isNotFound(err):
		return errors.Join(ErrNotFound, err)
	case isPermissionDenied(err):
		return errors.Join(ErrPermissionDenied, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return errors.Join(ErrUnavailable, err)
	}
}

func isNotFound(err error) bool {
	if errors.Is(err, api.ErrSecretNotFound) {
		return true
	}
	var apiErr *api.ResponseError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	// The client only reports some misses as text.
	msg := err.Error()
	return strings.Contains(msg, "no secret found") || strings.Contains(msg, "secret not found")
}

func isPermissionDenied(err error) bool {
	var apiErr *api.ResponseError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusForbidden
	}
	return false
}
