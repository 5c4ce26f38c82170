package vault

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"strings"
	"sync"

	"github.com/hashicorp/vault/api"
	"github.com/juju/clock"

	"github.com/dmitrymomot/tenantbot/pkg/cache"
	"github.com/dmitrymomot/tenantbot/pkg/logger"
)

// kvStore is the subset of *api.KVv2 the client needs.
type kvStore interface {
	Get(ctx context.Context, secretPath string) (*api.KVSecret, error)
	Put(ctx context.Context, secretPath string, data map[string]interface{}, opts ...api.KVOption) (*api.KVSecret, error)
	DeleteMetadata(ctx context.Context, secretPath string) error
}

// Client reads and writes KV v2 secrets and keeps a short-lived local copy
// of every successful read.
type Client struct {
	cfg   Config
	api   *api.Client
	kv    kvStore
	cache *cache.Cache[map[string]any]
	log   *slog.Logger

	// mu orders local copy updates against reads in flight. A read stores
	// its result only if its path was not dropped after the read started.
	mu       sync.Mutex
	seq      uint64
	inflight int
	dropped  map[string]uint64
	cleared  uint64
}

// Option configures a Client.
type Option func(*options)

type options struct {
	log   *slog.Logger
	clock clock.Clock
	kv    kvStore
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClock drives the read cache expiry.
func WithClock(clk clock.Clock) Option {
	return func(o *options) { o.clock = clk }
}

// New creates an unauthenticated client. Call Login before the first read.
func New(cfg Config, opts ...Option) (*Client, error) {
	o := &options{clock: clock.WallClock}
	for _, opt := range opts {
		opt(o)
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Mount == "" {
		cfg.Mount = "kv"
	}

	apiCfg := api.DefaultConfig()
	apiCfg.Address = cfg.Addr
	apiCfg.Timeout = cfg.Timeout
	apiCfg.MaxRetries = 0
	if cfg.CACert != "" {
		if err := apiCfg.ConfigureTLS(&api.TLSConfig{CACert: cfg.CACert}); err != nil {
			return nil, errors.Join(ErrUnavailable, err)
		}
	}
	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}
	// NewClient picks up VAULT_TOKEN from the environment; Login decides.
	client.ClearToken()

	kv := o.kv
	if kv == nil {
		kv = client.KVv2(cfg.Mount)
	}

	return &Client{
		cfg:     cfg,
		api:     client,
		kv:      kv,
		cache:   cache.New(cfg.CacheTTL, cache.WithClock[map[string]any](o.clock)),
		log:     logger.OrDiscard(o.log).With(logger.Component("vault")),
		dropped: make(map[string]uint64),
	}, nil
}

// Login authenticates once, with a static token when configured and with
// AppRole otherwise. Any failure, including missing credentials, is
// ErrAuthFailed and should abort startup.
func (c *Client) Login(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	switch {
	case c.cfg.Token != "":
		c.api.SetToken(c.cfg.Token)
		if _, err := c.api.Auth().Token().LookupSelfWithContext(ctx); err != nil {
			c.api.ClearToken()
			return errors.Join(ErrAuthFailed, err)
		}
		c.log.InfoContext(ctx, "vault_login", slog.String("method", "token"))
		return nil

	case c.cfg.RoleID != "" && c.cfg.SecretID != "":
		secret, err := c.api.Logical().WriteWithContext(ctx, "auth/approle/login", map[string]any{
			"role_id":   c.cfg.RoleID,
			"secret_id": c.cfg.SecretID,
		})
		if err != nil {
			return errors.Join(ErrAuthFailed, err)
		}
		if secret == nil || secret.Auth == nil || secret.Auth.ClientToken == "" {
			return errors.Join(ErrAuthFailed, errors.New("approle login returned no token"))
		}
		c.api.SetToken(secret.Auth.ClientToken)
		c.log.InfoContext(ctx, "vault_login", slog.String("method", "approle"))
		return nil
	}

	return errors.Join(ErrAuthFailed, errors.New("no token or approle credentials configured"))
}

// Read returns the data of the secret at path. A read within the cache TTL
// of a previous read or write is served locally. The returned map is a copy.
func (c *Client) Read(ctx context.Context, path string) (map[string]any, error) {
	path = normalize(path)
	if path == "" {
		return nil, ErrEmptyPath
	}
	if data, ok := c.cache.Get(path); ok {
		return maps.Clone(data), nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := c.beginRead()
	secret, err := c.kv.Get(ctx, path)
	if err != nil {
		c.endRead(path, start, nil)
		return nil, classify(err)
	}
	if secret == nil || secret.Data == nil {
		// Soft-deleted versions come back without data.
		c.endRead(path, start, nil)
		return nil, ErrNotFound
	}

	data := maps.Clone(secret.Data)
	c.endRead(path, start, data)
	return maps.Clone(data), nil
}

func (c *Client) beginRead() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight++
	return c.seq
}

// endRead stores data unless path was dropped after the read began.
func (c *Client) endRead(path string, start uint64, data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if data != nil && c.dropped[path] <= start && c.cleared <= start {
		c.cache.Put(path, data)
	}
	c.inflight--
	if c.inflight == 0 {
		clear(c.dropped)
		c.cleared = 0
	}
}

// drop removes the local copy of path and, when data is not nil, replaces
// it. Reads in flight will not restore an older copy.
func (c *Client) drop(path string, data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	if c.inflight > 0 {
		c.dropped[path] = c.seq
	}
	if data != nil {
		c.cache.Put(path, data)
		return
	}
	c.cache.Remove(path)
}

// ReadOptional reads path and, when it does not exist, each fallback path in
// order. It returns ErrNotFound only when none of them exists.
func (c *Client) ReadOptional(ctx context.Context, path string, fallbacks ...string) (map[string]any, error) {
	data, err := c.Read(ctx, path)
	if !errors.Is(err, ErrNotFound) {
		return data, err
	}
	for _, alt := range fallbacks {
		data, altErr := c.Read(ctx, alt)
		if altErr == nil {
			c.log.InfoContext(ctx, "vault_path_fallback_used",
				slog.String("primary", path),
				slog.String("fallback", alt),
			)
			return data, nil
		}
		if !errors.Is(altErr, ErrNotFound) {
			return nil, altErr
		}
	}
	c.log.WarnContext(ctx, "vault_path_missing", logger.Path(path))
	return nil, err
}

// Write creates a new version of the secret at path. The local copy is
// replaced before Write returns.
func (c *Client) Write(ctx context.Context, path string, data map[string]any) error {
	path = normalize(path)
	if path == "" {
		return ErrEmptyPath
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	// Drop first so a failed write never leaves the old value served.
	c.drop(path, nil)
	if _, err := c.kv.Put(ctx, path, data); err != nil {
		return classify(err)
	}
	c.drop(path, maps.Clone(data))
	return nil
}

// Delete removes the secret with all its versions and forgets the local copy.
// Deleting a missing secret is not an error.
func (c *Client) Delete(ctx context.Context, path string) error {
	path = normalize(path)
	if path == "" {
		return ErrEmptyPath
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	c.drop(path, nil)
	if err := c.kv.DeleteMetadata(ctx, path); err != nil {
		err = classify(err)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}

// Forget drops the local copy of path.
func (c *Client) Forget(path string) {
	c.drop(normalize(path), nil)
}

// ClearCache drops every local copy whose path starts with prefix, or all of
// them for an empty prefix. It returns the number of dropped entries.
func (c *Client) ClearCache(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	if c.inflight > 0 {
		c.cleared = c.seq
	}
	return c.cache.RemovePrefix(normalize(prefix))
}

// Healthcheck reports whether the store answers and is unsealed.
func (c *Client) Healthcheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	health, err := c.api.Sys().HealthWithContext(ctx)
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	if health.Sealed {
		return errors.Join(ErrUnavailable, errors.New("vault is sealed"))
	}
	return nil
}

func normalize(path string) string {
	return strings.Trim(path, "/")
}
