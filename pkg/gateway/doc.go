// Package gateway turns a tenant id taken from a webhook path into a live,
// authenticated bot session.
//
// Resolve checks the tenant registry, fetches the tenant credential through
// the credentials cache and returns the session bound to that credential.
// Sessions are kept per tenant. When the cached token changes, the next
// Resolve installs a session for the new token before closing the old one,
// so no caller receives a session bound to a superseded token. Resolution for
// one tenant is serialized by a per-tenant lock; different tenants never wait
// on each other.
//
// Handler exposes the gateway as the inbound webhook endpoint:
//
//	r := chi.NewRouter()
//	r.Method(http.MethodPost, "/webhook/{tenantID}", gateway.NewHandler(gw, dispatcher))
//
// Status codes: 404 for unknown or inactive tenants, 401 for a wrong shared
// secret, 503 with Retry-After when the registry or the secret store cannot
// answer. Dispatcher failures are logged and acknowledged with 200.
package gateway
