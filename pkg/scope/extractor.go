package scope

import (
	"context"
	"log/slog"
)

// TenantExtractor returns a logger ContextExtractor that records the bound
// tenant under "tenant_id". Unbound contexts add nothing.
func TenantExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := TenantID(ctx); ok {
			return slog.String("tenant_id", id), true
		}
		return slog.Attr{}, false
	}
}

// RequestExtractor returns a logger ContextExtractor for "request_id".
func RequestExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := RequestID(ctx); ok {
			return slog.String("request_id", id), true
		}
		return slog.Attr{}, false
	}
}

// UserExtractor returns a logger ContextExtractor for "user_id".
func UserExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := UserID(ctx); ok {
			return slog.Int64("user_id", id), true
		}
		return slog.Attr{}, false
	}
}
