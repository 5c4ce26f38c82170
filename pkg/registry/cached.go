package registry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/tenantbot/pkg/logger"
	"github.com/dmitrymomot/tenantbot/pkg/redis"
)

const (
	DefaultCacheTTL    = 30 * time.Second
	defaultCachePrefix = "tenantbot:registry:"
)

// Cached is a read-through Redis cache in front of another Registry. Only
// found records of FindByUUID are cached; Delete drops the entry. Redis
// failures are logged and the call falls through to the wrapped registry.
type Cached struct {
	next  Registry
	store *redis.JSONStore
	ttl   time.Duration
	log   *slog.Logger
}

// CachedOption configures Cached.
type CachedOption func(*Cached)

func WithCacheTTL(ttl time.Duration) CachedOption {
	return func(c *Cached) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithLogger(l *slog.Logger) CachedOption {
	return func(c *Cached) { c.log = logger.OrDiscard(l) }
}

func NewCached(next Registry, client goredis.UniversalClient, opts ...CachedOption) *Cached {
	c := &Cached{
		next:  next,
		store: redis.NewJSONStore(client, defaultCachePrefix),
		ttl:   DefaultCacheTTL,
		log:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cached) FindByUUID(ctx context.Context, uuid string) (Record, error) {
	var rec Record
	found, err := c.store.Get(ctx, uuid, &rec)
	if err != nil {
		c.log.WarnContext(ctx, "registry_cache_read_failed", logger.TenantID(uuid), logger.Error(err))
	}
	if found {
		return rec, nil
	}

	rec, err = c.next.FindByUUID(ctx, uuid)
	if err != nil {
		return Record{}, err
	}
	if err := c.store.Set(ctx, uuid, rec, c.ttl); err != nil {
		c.log.WarnContext(ctx, "registry_cache_write_failed", logger.TenantID(uuid), logger.Error(err))
	}
	return rec, nil
}

func (c *Cached) ListActiveUUIDs(ctx context.Context, ownerID int64) ([]string, error) {
	return c.next.ListActiveUUIDs(ctx, ownerID)
}

func (c *Cached) Create(ctx context.Context, ownerID int64, uuid string, name *string) (Record, error) {
	rec, err := c.next.Create(ctx, ownerID, uuid, name)
	if err != nil {
		return Record{}, err
	}
	c.forget(ctx, uuid)
	return rec, nil
}

func (c *Cached) Delete(ctx context.Context, uuid string) error {
	// Drop on both sides of the delete so a concurrent read cannot re-cache
	// the record between them for longer than one TTL.
	c.forget(ctx, uuid)
	if err := c.next.Delete(ctx, uuid); err != nil {
		return err
	}
	c.forget(ctx, uuid)
	return nil
}

func (c *Cached) forget(ctx context.Context, uuid string) {
	if err := c.store.Delete(ctx, uuid); err != nil && !errors.Is(err, context.Canceled) {
		c.log.WarnContext(ctx, "registry_cache_delete_failed", logger.TenantID(uuid), logger.Error(err))
	}
}
