package credentials

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/juju/clock"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/tenantbot/pkg/cache"
	"github.com/dmitrymomot/tenantbot/pkg/logger"
	"github.com/dmitrymomot/tenantbot/pkg/scope"
)

// Cache serves tenant credentials from memory and refills misses through a
// Loader.
//
// Concurrent misses for the same tenant share one upstream fetch. Every
// fetch, from Get or GetMany, passes one admission semaphore, so at most
// MaxConcurrency reads hit the source at any moment. A fetch outlives the
// caller that started it: an aborted request does not cancel the read other
// callers are waiting for.
type Cache struct {
	loader       Loader
	entries      *cache.Cache[Credential]
	group        singleflight.Group
	admission    *semaphore.Weighted
	fetchTimeout time.Duration
	clock        clock.Clock
	log          *slog.Logger

	// mu orders generation changes with stores so that a fetch started
	// before an Invalidate or Put never overwrites the newer state.
	mu         sync.Mutex
	generation uint64
}

// Option configures a Cache.
type Option func(*Cache)

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.log = logger.OrDiscard(l) }
}

// WithClock drives TTL expiry and the sweeper.
func WithClock(clk clock.Clock) Option {
	return func(c *Cache) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// NewCache builds a credential cache in front of loader. Zero values in cfg
// fall back to the package defaults.
func NewCache(loader Loader, cfg Config, opts ...Option) *Cache {
	if loader == nil {
		panic("credentials: nil loader")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}

	c := &Cache{
		loader:       loader,
		admission:    semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
		fetchTimeout: cfg.FetchTimeout,
		clock:        clock.WallClock,
		log:          logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.entries = cache.New(cfg.TTL,
		cache.WithClock[Credential](c.clock),
		cache.WithCapacity[Credential](cfg.Capacity),
		cache.WithEvictCallback(c.evicted),
	)
	return c
}

// Get returns the cached credential for tenantID or fetches it. A fetched
// value is stored before Get returns. Failures wrap ErrCredentialUnavailable.
func (c *Cache) Get(ctx context.Context, tenantID string) (Credential, error) {
	if tenantID == "" {
		return Credential{}, errors.Join(ErrCredentialUnavailable, ErrEmptyTenantID)
	}
	if cred, ok := c.entries.Get(tenantID); ok {
		return cred, nil
	}

	detached := scope.Detach(ctx)
	ch := c.group.DoChan(tenantID, func() (any, error) {
		return c.fetch(detached, tenantID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Credential{}, res.Err
		}
		return res.Val.(Credential), nil
	case <-ctx.Done():
		return Credential{}, errors.Join(ErrCredentialUnavailable, ctx.Err())
	}
}

func (c *Cache) fetch(ctx context.Context, tenantID string) (Credential, error) {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	// A caller that missed just before the previous flight stored its value
	// would otherwise start a second read.
	if cred, ok := c.entries.Get(tenantID); ok {
		return cred, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	if err := c.admission.Acquire(ctx, 1); err != nil {
		return Credential{}, errors.Join(ErrCredentialUnavailable, err)
	}
	defer c.admission.Release(1)

	start := c.clock.Now()
	cred, err := c.loader.Load(ctx, tenantID)
	if err != nil {
		c.log.WarnContext(ctx, "credential_fetch_failed",
			logger.TenantID(tenantID),
			logger.Error(err),
		)
		return Credential{}, errors.Join(ErrCredentialUnavailable, err)
	}
	if cred.TenantID == "" {
		cred.TenantID = tenantID
	}

	if !c.store(tenantID, cred, gen) {
		c.log.DebugContext(ctx, "credential_fetch_superseded", logger.TenantID(tenantID))
	}
	c.log.DebugContext(ctx, "credential_fetched",
		logger.TenantID(tenantID),
		logger.Version(cred.Version),
		logger.Duration(c.clock.Now().Sub(start)),
	)
	return cred, nil
}

func (c *Cache) store(tenantID string, cred Credential, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return false
	}
	c.entries.Put(tenantID, cred)
	return true
}

func (c *Cache) evicted(tenantID string, cred Credential) {
	c.log.Debug("credential_evicted",
		logger.TenantID(tenantID),
		logger.Version(cred.Version),
	)
}

// GetMany returns credentials for keys. Cached keys are served without I/O;
// misses are fetched concurrently under the shared admission limit. Keys
// that fail are logged and left out of the result.
func (c *Cache) GetMany(ctx context.Context, keys []string) map[string]Credential {
	found, _ := c.GetManyWithErrors(ctx, keys)
	return found
}

// GetManyWithErrors is GetMany that also reports the failure of every key
// missing from the result.
func (c *Cache) GetManyWithErrors(ctx context.Context, keys []string) (map[string]Credential, map[string]error) {
	found := make(map[string]Credential, len(keys))
	failed := make(map[string]error)

	var misses []string
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if cred, ok := c.entries.Get(key); ok {
			found[key] = cred
			continue
		}
		misses = append(misses, key)
	}
	if len(misses) == 0 {
		return found, failed
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, key := range misses {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cred, err := c.Get(ctx, key)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[key] = err
				return
			}
			found[key] = cred
		}()
	}
	wg.Wait()

	for key, err := range failed {
		c.log.WarnContext(ctx, "credential_batch_item_failed",
			logger.TenantID(key),
			logger.Error(err),
		)
	}
	return found, failed
}

// Put stores cred for tenantID with a fresh TTL. A fetch already in flight
// for the tenant will not overwrite it.
func (c *Cache) Put(tenantID string, cred Credential) {
	if cred.TenantID == "" {
		cred.TenantID = tenantID
	}
	c.mu.Lock()
	c.generation++
	c.entries.Put(tenantID, cred)
	c.group.Forget(tenantID)
	c.mu.Unlock()
}

// Invalidate drops the cached credential so the next Get reads the source
// again. A fetch in flight still answers its waiters but is not cached.
func (c *Cache) Invalidate(tenantID string) {
	if f, ok := c.loader.(Forgetter); ok {
		f.Forget(tenantID)
	}
	c.mu.Lock()
	c.generation++
	c.entries.Remove(tenantID)
	c.group.Forget(tenantID)
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired ones included until
// they are read or swept.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// StartSweeper removes expired entries every interval until ctx is done.
// Expiry is enforced on read regardless; sweeping only bounds memory.
func (c *Cache) StartSweeper(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.clock.After(every):
				if n := c.entries.Sweep(); n > 0 {
					c.log.DebugContext(ctx, "credential_cache_swept", logger.Count(n))
				}
			}
		}
	}()
}
