// Package telegram is a minimal Bot API client: the operations the gateway
// and the onboarding service call, and nothing else.
//
// A Client is bound to one bot token. Calls that fail with 429, a 5xx status
// or a network error are retried with backoff, honouring retry_after. API
// failures are *APIError values that unwrap to ErrUnauthorized,
// ErrForbidden, ErrNotFound, ErrTooManyRequests or ErrTemporaryFailure, so
// callers can write errors.Is(err, telegram.ErrUnauthorized) to detect a
// revoked token.
//
// Factory hands out clients over one shared connection pool.
package telegram
