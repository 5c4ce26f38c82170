package gateway

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/im7mortal/kmutex"
	"github.com/juju/clock"

	"github.com/dmitrymomot/tenantbot/pkg/credentials"
	"github.com/dmitrymomot/tenantbot/pkg/logger"
	"github.com/dmitrymomot/tenantbot/pkg/registry"
)

// TenantFinder is the part of the tenant registry the gateway reads.
type TenantFinder interface {
	FindByUUID(ctx context.Context, uuid string) (registry.Record, error)
}

// CredentialSource is the part of the credential cache the gateway uses.
// *credentials.Cache implements it.
type CredentialSource interface {
	Get(ctx context.Context, tenantID string) (credentials.Credential, error)
	Invalidate(tenantID string)
}

// Gateway resolves tenants to sessions and owns every open session.
type Gateway struct {
	tenants   TenantFinder
	creds     CredentialSource
	connector Connector
	secret    string
	clock     clock.Clock
	log       *slog.Logger

	locks *kmutex.Kmutex

	mu       sync.RWMutex
	sessions map[string]*Session

	closed       atomic.Bool
	bgMu         sync.Mutex
	bg           sync.WaitGroup
	shutdownOnce sync.Once
	shutdownErr  error
}

// Option configures a Gateway.
type Option func(*Gateway)

func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.log = logger.OrDiscard(l) }
}

func WithClock(clk clock.Clock) Option {
	return func(g *Gateway) {
		if clk != nil {
			g.clock = clk
		}
	}
}

// WithWebhookSecret sets the shared secret expected on inbound requests.
// An empty secret accepts every request.
func WithWebhookSecret(secret string) Option {
	return func(g *Gateway) { g.secret = secret }
}

func New(tenants TenantFinder, creds CredentialSource, connector Connector, opts ...Option) *Gateway {
	if tenants == nil || creds == nil || connector == nil {
		panic("gateway: nil dependency")
	}
	g := &Gateway{
		tenants:   tenants,
		creds:     creds,
		connector: connector,
		clock:     clock.WallClock,
		log:       logger.Discard(),
		locks:     kmutex.New(),
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Resolve returns the live session for tenantID.
//
// The tenant must exist and be active in the registry. The credential is read
// from the cache under the tenant's lock. If the open session was made for a
// different token, a new session is installed and the old one is closed
// afterwards.
func (g *Gateway) Resolve(ctx context.Context, tenantID string) (*Session, error) {
	if tenantID == "" {
		return nil, errors.Join(ErrTenantNotFound, ErrEmptyTenantID)
	}
	if g.closed.Load() {
		return nil, ErrGatewayClosed
	}

	rec, err := g.tenants.FindByUUID(ctx, tenantID)
	switch {
	case errors.Is(err, registry.ErrNotFound):
		g.log.WarnContext(ctx, "tenant_not_found")
		return nil, ErrTenantNotFound
	case err != nil:
		g.log.ErrorContext(ctx, "tenant lookup failed", logger.Error(err))
		return nil, errors.Join(ErrRegistryUnavailable, err)
	case !rec.Active:
		g.log.WarnContext(ctx, "tenant_not_found", slog.Bool("inactive", true))
		return nil, ErrTenantNotFound
	}

	g.locks.Lock(tenantID)
	defer g.locks.Unlock(tenantID)

	if g.closed.Load() {
		return nil, ErrGatewayClosed
	}

	cred, err := g.creds.Get(ctx, tenantID)
	if err != nil {
		g.log.ErrorContext(ctx, "credential fetch failed", logger.Error(err))
		return nil, errors.Join(ErrCredentialUnavailable, err)
	}

	g.mu.RLock()
	current := g.sessions[tenantID]
	g.mu.RUnlock()

	if current != nil && current.token == cred.Token {
		return current, nil
	}

	bot, err := g.connector.Connect(ctx, cred)
	if err != nil {
		g.log.ErrorContext(ctx, "session create failed", logger.Error(err))
		return nil, errors.Join(ErrSessionUnavailable, err)
	}
	next := &Session{
		TenantID:    tenantID,
		Version:     cred.Version,
		Bot:         bot,
		CreatedAt:   g.clock.Now(),
		token:       cred.Token,
		extraSecret: cred.ExtraSecret,
	}

	g.mu.Lock()
	if g.closed.Load() {
		g.mu.Unlock()
		g.closeSession(ctx, next)
		return nil, ErrGatewayClosed
	}
	g.sessions[tenantID] = next
	g.mu.Unlock()

	if current != nil {
		g.log.InfoContext(ctx, "session_rotated",
			slog.Int("from_version", current.Version),
			slog.Int("to_version", next.Version),
		)
		g.closeSession(ctx, current)
	}
	g.log.InfoContext(ctx, "tenant_resolved", logger.Version(next.Version))
	return next, nil
}

// InvalidateTenant drops the cached credential of tenantID and closes its
// session. The next Resolve reads the secret store again.
func (g *Gateway) InvalidateTenant(ctx context.Context, tenantID string) {
	g.creds.Invalidate(tenantID)

	g.locks.Lock(tenantID)
	defer g.locks.Unlock(tenantID)

	g.mu.Lock()
	s := g.sessions[tenantID]
	delete(g.sessions, tenantID)
	g.mu.Unlock()

	if s != nil {
		g.closeSession(ctx, s)
	}
	g.log.InfoContext(ctx, "tenant_invalidated", logger.TenantID(tenantID))
}

// VerifySecret reports whether observed matches the webhook secret expected
// for s, in constant time. A tenant's own webhook_secret takes precedence
// over the shared secret; with neither configured every request passes.
func (g *Gateway) VerifySecret(s *Session, observed string) bool {
	want := g.secret
	if s != nil {
		if extra, ok := s.ExtraSecret(); ok && extra != "" {
			want = extra
		}
	}
	if want == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(observed)) == 1
}

// Sessions returns the number of open sessions.
func (g *Gateway) Sessions() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.sessions)
}

// Go runs fn in the background and tracks it so Shutdown waits for it. It
// reports false without running fn once the gateway is closed.
func (g *Gateway) Go(fn func()) bool {
	g.bgMu.Lock()
	defer g.bgMu.Unlock()
	if g.closed.Load() {
		return false
	}
	g.bg.Add(1)
	go func() {
		defer g.bg.Done()
		fn()
	}()
	return true
}

// Shutdown stops resolution, waits for background work and closes every
// session concurrently. It is safe to call more than once; later calls
// return the result of the first.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.shutdownOnce.Do(func() {
		g.shutdownErr = g.shutdown(ctx)
	})
	return g.shutdownErr
}

func (g *Gateway) shutdown(ctx context.Context) error {
	g.bgMu.Lock()
	g.closed.Store(true)
	g.bgMu.Unlock()

	bgErr := wait(ctx, &g.bg)
	if bgErr != nil {
		g.log.WarnContext(ctx, "background dispatch still running at shutdown", logger.Error(bgErr))
	}

	g.mu.Lock()
	open := make([]*Session, 0, len(g.sessions))
	for _, s := range g.sessions {
		open = append(open, s)
	}
	g.sessions = make(map[string]*Session)
	g.mu.Unlock()

	var (
		wg        sync.WaitGroup
		errMu     sync.Mutex
		closeErrs []error
	)
	for _, s := range open {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			if err := s.Bot.Close(); err != nil {
				errMu.Lock()
				closeErrs = append(closeErrs, err)
				errMu.Unlock()
			}
		}(s)
	}
	waitErr := wait(ctx, &wg)

	errMu.Lock()
	defer errMu.Unlock()
	g.log.InfoContext(ctx, "gateway stopped", logger.Count(len(open)))
	return errors.Join(append([]error{bgErr, waitErr}, closeErrs...)...)
}

func (g *Gateway) closeSession(ctx context.Context, s *Session) {
	if err := s.Bot.Close(); err != nil {
		g.log.WarnContext(ctx, "session close failed",
			logger.TenantID(s.TenantID),
			logger.Version(s.Version),
			logger.Error(err),
		)
	}
}

func wait(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
