// Package vault adapts a HashiCorp Vault KV v2 mount into the small typed
// surface the bot needs: Read, Write and Delete of secret maps by path.
//
// Every successful read is cached locally for Config.CacheTTL (5s by
// default). Write and Delete drop the local copy before they return, so a
// read that follows a write in the same process never sees the old value.
// Forget and ClearCache drop copies explicitly. A read still in flight when
// a copy is dropped returns its result but does not cache it. Each call to the store is
// bounded by Config.Timeout; a timeout surfaces as ErrUnavailable.
//
// Login authenticates once at startup with a static token or AppRole and
// returns ErrAuthFailed otherwise. Store errors are classified into
// ErrNotFound, ErrPermissionDenied and ErrUnavailable.
package vault
