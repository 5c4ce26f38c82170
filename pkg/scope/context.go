package scope

import "context"

type (
	tenantKey  struct{}
	requestKey struct{}
	userKey    struct{}
)

// WithTenantID binds a tenant identifier to ctx. The binding is visible to
// every context derived from the returned one and to nothing else, so the
// caller's context keeps whatever it had before.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// TenantID returns the tenant bound to ctx. The boolean is false when no
// tenant is bound, which is distinct from a bound empty identifier.
func TenantID(ctx context.Context) (string, bool) {
	return lookup(ctx, tenantKey{})
}

// WithRequestID binds a request identifier to ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestKey{}, requestID)
}

// RequestID returns the request identifier bound to ctx.
func RequestID(ctx context.Context) (string, bool) {
	return lookup(ctx, requestKey{})
}

// WithUserID binds the chat user that produced the current update.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserID returns the chat user bound to ctx.
func UserID(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(userKey{}).(int64)
	return id, ok
}

// Detach returns a context that carries every value of ctx but is never
// cancelled. Use it for work that must outlive the request it was started by
// while still logging under the request's identity.
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func lookup(ctx context.Context, key any) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(key).(string)
	return v, ok
}
