package vault_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantbot/pkg/vault"
)

type fakeKV struct {
	mu      sync.Mutex
	data    map[string]map[string]any
	reads   map[string]int
	failGet error
	failPut error

	// gate, when set, parks the next Get after it has taken its snapshot.
	gate *gate
}

type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}), release: make(chan struct{})}
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]map[string]any{}, reads: map[string]int{}}
}

func (f *fakeKV) Get(_ context.Context, path string) (*api.KVSecret, error) {
	f.mu.Lock()
	f.reads[path]++
	failGet := f.failGet
	d, ok := f.data[path]
	g := f.gate
	f.gate = nil
	f.mu.Unlock()

	if g != nil {
		close(g.entered)
		<-g.release
	}
	if failGet != nil {
		return nil, failGet
	}
	if !ok {
		return nil, api.ErrSecretNotFound
	}
	return &api.KVSecret{Data: d}, nil
}

func (f *fakeKV) park() *gate {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = newGate()
	return f.gate
}

func (f *fakeKV) Put(_ context.Context, path string, data map[string]interface{}, _ ...api.KVOption) (*api.KVSecret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut != nil {
		return nil, f.failPut
	}
	f.data[path] = data
	return &api.KVSecret{Data: data}, nil
}

func (f *fakeKV) DeleteMetadata(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[path]; !ok {
		return &api.ResponseError{StatusCode: http.StatusNotFound}
	}
	delete(f.data, path)
	return nil
}

func (f *fakeKV) readCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[path]
}

func newTestClient(t *testing.T, kv *fakeKV) (*vault.Client, *testclock.Clock) {
	t.Helper()
	clk := testclock.NewClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	c, err := vault.New(vault.Config{Addr: "http://127.0.0.1:1", CacheTTL: 5 * time.Second},
		vault.WithKV(kv), vault.WithClock(clk))
	require.NoError(t, err)
	return c, clk
}

func TestReadCaching(t *testing.T) {
	t.Parallel()
	kv := newFakeKV()
	kv.data["tgbot/tenants/u1"] = map[string]any{"bot_token": "abc"}
	c, clk := newTestClient(t, kv)
	ctx := context.Background()

	got, err := c.Read(ctx, "tgbot/tenants/u1")
	require.NoError(t, err)
	assert.Equal(t, "abc", got["bot_token"])

	got["bot_token"] = "mutated"
	got, err = c.Read(ctx, "/tgbot/tenants/u1/")
	require.NoError(t, err)
	assert.Equal(t, "abc", got["bot_token"], "callers get copies")
	assert.Equal(t, 1, kv.readCount("tgbot/tenants/u1"))

	clk.Advance(5 * time.Second)
	_, err = c.Read(ctx, "tgbot/tenants/u1")
	require.NoError(t, err)
	assert.Equal(t, 2, kv.readCount("tgbot/tenants/u1"), "expired copy refetched")
}

func TestWriteAndDeleteInvalidateLocalCopy(t *testing.T) {
	t.Parallel()
	kv := newFakeKV()
	kv.data["p"] = map[string]any{"bot_token": "old"}
	c, _ := newTestClient(t, kv)
	ctx := context.Background()

	_, err := c.Read(ctx, "p")
	require.NoError(t, err)

	require.NoError(t, c.Write(ctx, "p", map[string]any{"bot_token": "new"}))
	got, err := c.Read(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "new", got["bot_token"])

	require.NoError(t, c.Delete(ctx, "p"))
	_, err = c.Read(ctx, "p")
	assert.ErrorIs(t, err, vault.ErrNotFound)

	assert.NoError(t, c.Delete(ctx, "p"), "deleting a missing secret")
}

func TestFailedWriteDropsLocalCopy(t *testing.T) {
	t.Parallel()
	kv := newFakeKV()
	kv.data["p"] = map[string]any{"bot_token": "old"}
	c, _ := newTestClient(t, kv)
	ctx := context.Background()

	_, err := c.Read(ctx, "p")
	require.NoError(t, err)

	kv.failPut = errors.New("connection reset")
	err = c.Write(ctx, "p", map[string]any{"bot_token": "new"})
	assert.ErrorIs(t, err, vault.ErrUnavailable)

	_, err = c.Read(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 2, kv.readCount("p"))
}

func TestForgetAndClearCache(t *testing.T) {
	t.Parallel()
	kv := newFakeKV()
	kv.data["tgbot/tenants/a"] = map[string]any{"bot_token": "a"}
	kv.data["tgbot/tenants/b"] = map[string]any{"bot_token": "b"}
	kv.data["tgbot/common/webhook_secret"] = map[string]any{"webhook_secret": "s"}
	c, _ := newTestClient(t, kv)
	ctx := context.Background()

	for _, p := range []string{"tgbot/tenants/a", "tgbot/tenants/b", "tgbot/common/webhook_secret"} {
		_, err := c.Read(ctx, p)
		require.NoError(t, err)
	}

	c.Forget("tgbot/tenants/a")
	_, _ = c.Read(ctx, "tgbot/tenants/a")
	assert.Equal(t, 2, kv.readCount("tgbot/tenants/a"))

	assert.Equal(t, 2, c.ClearCache("tgbot/tenants/"))
	_, _ = c.Read(ctx, "tgbot/common/webhook_secret")
	assert.Equal(t, 1, kv.readCount("tgbot/common/webhook_secret"), "other prefixes kept")

	assert.Equal(t, 1, c.ClearCache(""))
}

// readDuring starts a Read of path that stalls after fetching, runs change
// while it is stalled and then lets it finish.
func readDuring(t *testing.T, c *vault.Client, kv *fakeKV, path string, change func()) {
	t.Helper()
	g := kv.park()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Read(context.Background(), path)
	}()
	<-g.entered
	change()
	close(g.release)
	<-done
}

func TestChangeDuringReadIsNotOverwritten(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("delete", func(t *testing.T) {
		t.Parallel()
		kv := newFakeKV()
		kv.data["p"] = map[string]any{"bot_token": "old"}
		c, _ := newTestClient(t, kv)

		readDuring(t, c, kv, "p", func() {
			require.NoError(t, c.Delete(ctx, "p"))
		})

		_, err := c.Read(ctx, "p")
		require.ErrorIs(t, err, vault.ErrNotFound)
		assert.Equal(t, 2, kv.readCount("p"))
	})

	t.Run("write", func(t *testing.T) {
		t.Parallel()
		kv := newFakeKV()
		kv.data["p"] = map[string]any{"bot_token": "old"}
		c, _ := newTestClient(t, kv)

		readDuring(t, c, kv, "p", func() {
			require.NoError(t, c.Write(ctx, "p", map[string]any{"bot_token": "new"}))
		})

		got, err := c.Read(ctx, "p")
		require.NoError(t, err)
		assert.Equal(t, "new", got["bot_token"])
		assert.Equal(t, 1, kv.readCount("p"), "written value served locally")
	})

	t.Run("forget", func(t *testing.T) {
		t.Parallel()
		kv := newFakeKV()
		kv.data["p"] = map[string]any{"bot_token": "old"}
		c, _ := newTestClient(t, kv)

		readDuring(t, c, kv, "p", func() {
			kv.mu.Lock()
			kv.data["p"] = map[string]any{"bot_token": "rotated"}
			kv.mu.Unlock()
			c.Forget("p")
		})

		got, err := c.Read(ctx, "p")
		require.NoError(t, err)
		assert.Equal(t, "rotated", got["bot_token"])
		assert.Equal(t, 2, kv.readCount("p"))
	})

	t.Run("clear cache", func(t *testing.T) {
		t.Parallel()
		kv := newFakeKV()
		kv.data["tgbot/tenants/a"] = map[string]any{"bot_token": "old"}
		c, _ := newTestClient(t, kv)

		readDuring(t, c, kv, "tgbot/tenants/a", func() {
			kv.mu.Lock()
			kv.data["tgbot/tenants/a"] = map[string]any{"bot_token": "rotated"}
			kv.mu.Unlock()
			c.ClearCache("tgbot/tenants")
		})

		got, err := c.Read(ctx, "tgbot/tenants/a")
		require.NoError(t, err)
		assert.Equal(t, "rotated", got["bot_token"])
	})

	t.Run("unrelated path still cached", func(t *testing.T) {
		t.Parallel()
		kv := newFakeKV()
		kv.data["p"] = map[string]any{"bot_token": "old"}
		kv.data["q"] = map[string]any{"bot_token": "other"}
		c, _ := newTestClient(t, kv)

		readDuring(t, c, kv, "p", func() {
			c.Forget("q")
		})

		_, err := c.Read(ctx, "p")
		require.NoError(t, err)
		assert.Equal(t, 1, kv.readCount("p"))
	})
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not found status", &api.ResponseError{StatusCode: http.StatusNotFound}, vault.ErrNotFound},
		{"not found text", errors.New("no secret found at path"), vault.ErrNotFound},
		{"forbidden", &api.ResponseError{StatusCode: http.StatusForbidden}, vault.ErrPermissionDenied},
		{"server error", &api.ResponseError{StatusCode: http.StatusInternalServerError}, vault.ErrUnavailable},
		{"timeout", context.DeadlineExceeded, vault.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			kv := newFakeKV()
			kv.failGet = tt.err
			c, _ := newTestClient(t, kv)
			_, err := c.Read(context.Background(), "p")
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.err, "original error kept")
		})
	}
}

func TestReadOptional(t *testing.T) {
	t.Parallel()
	kv := newFakeKV()
	kv.data["tgbot/main"] = map[string]any{"bot_token": "main"}
	c, _ := newTestClient(t, kv)
	ctx := context.Background()

	got, err := c.ReadOptional(ctx, "tgbot/main_bot", "tgbot/missing", "tgbot/main")
	require.NoError(t, err)
	assert.Equal(t, "main", got["bot_token"])

	_, err = c.ReadOptional(ctx, "tgbot/nothing", "tgbot/missing")
	assert.ErrorIs(t, err, vault.ErrNotFound)

	_, err = c.Read(ctx, "")
	assert.ErrorIs(t, err, vault.ErrEmptyPath)
}

func vaultServer(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("approle", func(t *testing.T) {
		t.Parallel()
		var body map[string]string
		addr := vaultServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/auth/approle/login" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			_ = json.NewEncoder(w).Encode(map[string]any{"auth": map[string]any{"client_token": "s.issued"}})
		})
		c, err := vault.New(vault.Config{Addr: addr, RoleID: "role", SecretID: "secret"})
		require.NoError(t, err)
		require.NoError(t, c.Login(context.Background()))
		assert.Equal(t, "role", body["role_id"])
		assert.Equal(t, "secret", body["secret_id"])
	})

	t.Run("token", func(t *testing.T) {
		t.Parallel()
		var seen string
		addr := vaultServer(t, func(w http.ResponseWriter, r *http.Request) {
			seen = r.Header.Get("X-Vault-Token")
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"id": "root"}})
		})
		c, err := vault.New(vault.Config{Addr: addr, Token: "root"})
		require.NoError(t, err)
		require.NoError(t, c.Login(context.Background()))
		assert.Equal(t, "root", seen)
	})

	t.Run("rejected token", func(t *testing.T) {
		t.Parallel()
		addr := vaultServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"errors":["permission denied"]}`))
		})
		c, err := vault.New(vault.Config{Addr: addr, Token: "bad"})
		require.NoError(t, err)
		assert.ErrorIs(t, c.Login(context.Background()), vault.ErrAuthFailed)
	})

	t.Run("missing credentials", func(t *testing.T) {
		t.Parallel()
		c, err := vault.New(vault.Config{Addr: "http://127.0.0.1:1"})
		require.NoError(t, err)
		assert.ErrorIs(t, c.Login(context.Background()), vault.ErrAuthFailed)
	})
}
