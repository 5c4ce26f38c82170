package credentials

import (
	"context"
	"log/slog"
)

// Credential is the secret material of one tenant's bot identity. Values are
// replaced on rotation, never mutated.
type Credential struct {
	TenantID    string
	Token       string
	Version     int
	ExtraSecret *string
}

// LogValue keeps the token out of log records.
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("tenant_id", c.TenantID),
		slog.Int("version", c.Version),
	)
}

// Loader fetches a credential from its source of truth.
type Loader interface {
	Load(ctx context.Context, tenantID string) (Credential, error)
}

// Forgetter is implemented by loaders that keep their own read cache. The
// credential cache calls Forget on invalidation so the next load is fresh
// end to end.
type Forgetter interface {
	Forget(tenantID string)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, tenantID string) (Credential, error)

func (f LoaderFunc) Load(ctx context.Context, tenantID string) (Credential, error) {
	return f(ctx, tenantID)
}
