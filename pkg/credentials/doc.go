// Package credentials resolves and caches the bot credential of each tenant.
//
// Cache keeps credentials for a fixed TTL (60s by default) measured from
// insertion and bounded by capacity with least-recently-used eviction. A miss
// is filled through a Loader; concurrent misses for one tenant collapse into
// a single fetch and all fetches share one admission semaphore. Invalidate
// makes the next Get read the source again, including any read cache kept by
// the loader.
//
// VaultLoader is the production Loader. It reads the secret at
// <prefix>/<tenant id> and decodes it with this layout:
//
//	bot_token       string, required
//	version         integer or numeric string, defaults to 1
//	webhook_secret  string, optional
//
// Every fetch failure wraps ErrCredentialUnavailable; ErrSecretNotFound and
// ErrInvalidSecret stay visible to errors.Is.
package credentials
