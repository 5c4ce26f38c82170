package gateway_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/juju/clock/testclock"

	"github.com/dmitrymomot/tenantbot/pkg/credentials"
	"github.com/dmitrymomot/tenantbot/pkg/gateway"
	"github.com/dmitrymomot/tenantbot/pkg/registry"
	"github.com/dmitrymomot/tenantbot/pkg/telegram"
)

type fakeTenants struct {
	mu      sync.Mutex
	records map[string]registry.Record
	err     error
	calls   atomic.Int32
}

func newTenants(ids ...string) *fakeTenants {
	f := &fakeTenants{records: map[string]registry.Record{}}
	for i, id := range ids {
		f.records[id] = registry.Record{NumericID: int64(i + 1), UUID: id, OwnerID: 42, Active: true}
	}
	return f
}

func (f *fakeTenants) FindByUUID(_ context.Context, uuid string) (registry.Record, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return registry.Record{}, f.err
	}
	rec, ok := f.records[uuid]
	if !ok {
		return registry.Record{}, registry.ErrNotFound
	}
	return rec, nil
}

func (f *fakeTenants) deactivate(uuid string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := f.records[uuid]
	rec.Active = false
	f.records[uuid] = rec
}

// secretStore plays the secret store behind the credential cache.
type secretStore struct {
	mu      sync.Mutex
	tokens  map[string]string
	secrets map[string]string
	err     error
	reads   atomic.Int32
	gate    chan struct{}
}

func newStore() *secretStore {
	return &secretStore{tokens: map[string]string{}, secrets: map[string]string{}}
}

// setSecret stores a tenant specific webhook secret next to the token.
func (s *secretStore) setSecret(tenantID, secret string) {
	s.mu.Lock()
	s.secrets[tenantID] = secret
	s.mu.Unlock()
}

func (s *secretStore) set(tenantID, token string) {
	s.mu.Lock()
	s.tokens[tenantID] = token
	s.mu.Unlock()
}

func (s *secretStore) Load(ctx context.Context, tenantID string) (credentials.Credential, error) {
	s.reads.Add(1)
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return credentials.Credential{}, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return credentials.Credential{}, s.err
	}
	token, ok := s.tokens[tenantID]
	if !ok {
		return credentials.Credential{}, credentials.ErrSecretNotFound
	}
	cred := credentials.Credential{TenantID: tenantID, Token: token, Version: len(token)}
	if secret, ok := s.secrets[tenantID]; ok {
		cred.ExtraSecret = &secret
	}
	return cred, nil
}

type fakeBot struct {
	token  string
	closed atomic.Bool
}

func (b *fakeBot) GetMe(context.Context) (telegram.User, error) {
	return telegram.User{ID: 1, IsBot: true, Username: "bot_" + b.token}, nil
}

func (b *fakeBot) SendMessage(context.Context, int64, string, ...telegram.SendOption) (telegram.Message, error) {
	return telegram.Message{}, nil
}

func (b *fakeBot) CopyMessage(context.Context, int64, int64, int64) (telegram.MessageID, error) {
	return telegram.MessageID{}, nil
}

func (b *fakeBot) GetChatMember(context.Context, int64, int64) (telegram.ChatMember, error) {
	return telegram.ChatMember{}, nil
}

func (b *fakeBot) Close() error {
	b.closed.Store(true)
	return nil
}

type recordingConnector struct {
	mu   sync.Mutex
	bots []*fakeBot
}

func (c *recordingConnector) Connect(_ context.Context, cred credentials.Credential) (gateway.BotAPI, error) {
	bot := &fakeBot{token: cred.Token}
	c.mu.Lock()
	c.bots = append(c.bots, bot)
	c.mu.Unlock()
	return bot, nil
}

func (c *recordingConnector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bots)
}

const credentialTTL = 60 * time.Second

type fixture struct {
	tenants   *fakeTenants
	store     *secretStore
	clock     *testclock.Clock
	cache     *credentials.Cache
	connector *recordingConnector
	gw        *gateway.Gateway
}

func newFixture(opts ...gateway.Option) *fixture {
	f := &fixture{
		tenants:   newTenants("t-001", "t-002"),
		store:     newStore(),
		clock:     testclock.NewClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		connector: &recordingConnector{},
	}
	f.store.set("t-001", "abc")
	f.store.set("t-002", "def")
	f.cache = credentials.NewCache(f.store, credentials.Config{TTL: credentialTTL, MaxConcurrency: 4},
		credentials.WithClock(f.clock),
	)
	f.gw = gateway.New(f.tenants, f.cache, f.connector, append([]gateway.Option{gateway.WithClock(f.clock)}, opts...)...)
	return f
}
