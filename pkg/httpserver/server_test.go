package httpserver_test

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantbot/pkg/httpserver"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "unable to get free port")
	addr := l.Addr().String()
	require.NoError(t, l.Close(), "close listener")
	return addr
}

func waitReady(t *testing.T, addr string) {
	t.Helper()
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return true
	}, 3*time.Second, 20*time.Millisecond)
}

func TestRunAndCancel(t *testing.T) {
	t.Parallel()
	addr := freeAddr(t)
	srv := httpserver.New(httpserver.WithAddr(addr), httpserver.WithShutdownTimeout(time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))
	}()
	waitReady(t, addr)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		require.Fail(t, "run did not finish")
	}
	require.NoError(t, srv.Shutdown(context.Background()), "repeated shutdown")
}

func TestManualShutdown(t *testing.T) {
	t.Parallel()
	addr := freeAddr(t)
	srv := httpserver.New(httpserver.WithAddr(addr), httpserver.WithShutdownTimeout(time.Second))

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(context.Background(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	}()
	waitReady(t, addr)

	require.NoError(t, srv.Shutdown(context.Background()))
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		require.Fail(t, "run did not finish")
	}
}

func TestStartError(t *testing.T) {
	t.Parallel()
	srv := httpserver.New(httpserver.WithAddr(":invalid"))
	err := srv.Run(context.Background(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	require.Error(t, err)
	assert.ErrorIs(t, err, httpserver.ErrStart)
}

func TestSecondRunRefused(t *testing.T) {
	t.Parallel()
	addr := freeAddr(t)
	srv := httpserver.New(httpserver.WithAddr(addr), httpserver.WithShutdownTimeout(time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	}()
	waitReady(t, addr)

	err := srv.Run(ctx, nil)
	require.ErrorIs(t, err, httpserver.ErrAlreadyRunning)
	assert.ErrorIs(t, err, httpserver.ErrStart)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		require.Fail(t, "run did not finish")
	}
}

func TestHooks(t *testing.T) {
	t.Parallel()
	addr := freeAddr(t)
	var started atomic.Bool
	var hadDeadline atomic.Bool
	srv := httpserver.New(
		httpserver.WithAddr(addr),
		httpserver.WithShutdownTimeout(time.Second),
		httpserver.WithStartHook(func(_ *slog.Logger) { started.Store(true) }),
		httpserver.WithStopHook(func(ctx context.Context, _ *slog.Logger) error {
			_, ok := ctx.Deadline()
			hadDeadline.Store(ok)
			return nil
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, http.NewServeMux()) }()
	waitReady(t, addr)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		require.Fail(t, "run did not finish")
	}
	assert.True(t, started.Load())
	assert.True(t, hadDeadline.Load(), "stop hook gets the shutdown deadline")
}

func TestStopHookError(t *testing.T) {
	t.Parallel()
	addr := freeAddr(t)
	hookErr := errors.New("sessions left open")
	srv := httpserver.New(
		httpserver.WithAddr(addr),
		httpserver.WithStopHook(func(context.Context, *slog.Logger) error { return hookErr }),
	)

	done := make(chan error, 1)
	go func() { done <- srv.Run(context.Background(), http.NewServeMux()) }()
	waitReady(t, addr)

	err := srv.Shutdown(context.Background())
	assert.ErrorIs(t, err, httpserver.ErrShutdown)
	assert.ErrorIs(t, err, hookErr)
	assert.ErrorIs(t, <-done, hookErr)
}

func TestShutdownBeforeRun(t *testing.T) {
	t.Parallel()
	var called atomic.Bool
	srv := httpserver.New(httpserver.WithStopHook(func(context.Context, *slog.Logger) error {
		called.Store(true)
		return nil
	}))
	require.NoError(t, srv.Shutdown(context.Background()))
	assert.True(t, called.Load())
}

func TestOptionPanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { httpserver.WithAddr("") })
	assert.Panics(t, func() { httpserver.WithReadTimeout(0) })
	assert.Panics(t, func() { httpserver.WithWriteTimeout(-1) })
	assert.Panics(t, func() { httpserver.WithShutdownTimeout(0) })
	assert.Panics(t, func() { httpserver.WithStopHook(nil) })
}

func TestHealthHandlers(t *testing.T) {
	t.Parallel()

	t.Run("liveness", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		httpserver.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ALIVE", rec.Body.String())
	})

	t.Run("ready", func(t *testing.T) {
		t.Parallel()
		h := httpserver.ReadinessHandler(nil, time.Second,
			httpserver.Check{Name: "postgres", Fn: func(context.Context) error { return nil }},
		)
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "READY", rec.Body.String())
	})

	t.Run("not ready", func(t *testing.T) {
		t.Parallel()
		var second atomic.Bool
		h := httpserver.ReadinessHandler(nil, time.Second,
			httpserver.Check{Name: "redis", Fn: func(context.Context) error { return errors.New("down") }},
			httpserver.Check{Name: "postgres", Fn: func(context.Context) error { second.Store(true); return nil }},
		)
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "NOT_READY", rec.Body.String())
		assert.False(t, second.Load())
	})

	t.Run("check timeout", func(t *testing.T) {
		t.Parallel()
		h := httpserver.ReadinessHandler(nil, 20*time.Millisecond,
			httpserver.Check{Name: "slow", Fn: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			}},
		)
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
