package telegram

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrUnauthorized     = errors.New("telegram: unauthorized")
	ErrForbidden        = errors.New("telegram: forbidden")
	ErrNotFound         = errors.New("telegram: not found")
	ErrTooManyRequests  = errors.New("telegram: too many requests")
	ErrInvalidToken     = errors.New("telegram: invalid bot token")
	ErrClientClosed     = errors.New("telegram: client closed")
	ErrTemporaryFailure = errors.New("telegram: temporary failure")
)

// APIError is a Bot API response with ok=false.
type APIError struct {
	Method      string
	Code        int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %s: %d %s", e.Method, e.Code, e.Description)
}

// Unwrap exposes the sentinel matching the error code.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrTooManyRequests
	}
	if e.Code >= 500 {
		return ErrTemporaryFailure
	}
	return nil
}

func (e *APIError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}
