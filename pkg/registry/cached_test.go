package registry_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantbot/pkg/registry"
)

func setupCached(t *testing.T) (*registry.Cached, *MockRegistry, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	next := &MockRegistry{}
	return registry.NewCached(next, client, registry.WithCacheTTL(10*time.Second)), next, mr
}

func TestCachedFindByUUID(t *testing.T) {
	t.Parallel()
	c, next, mr := setupCached(t)
	ctx := context.Background()
	name := "shop"
	rec := registry.Record{NumericID: 7, UUID: "u1", OwnerID: 42, Name: &name, Active: true}

	next.On("FindByUUID", mock.Anything, "u1").Return(rec, nil).Once()

	got, err := c.FindByUUID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	got, err = c.FindByUUID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	next.AssertNumberOfCalls(t, "FindByUUID", 1)

	mr.FastForward(11 * time.Second)
	next.On("FindByUUID", mock.Anything, "u1").Return(rec, nil).Once()
	_, err = c.FindByUUID(ctx, "u1")
	require.NoError(t, err)
	next.AssertNumberOfCalls(t, "FindByUUID", 2)
}

func TestCachedDoesNotCacheMisses(t *testing.T) {
	t.Parallel()
	c, next, _ := setupCached(t)
	ctx := context.Background()

	next.On("FindByUUID", mock.Anything, "ghost").Return(registry.Record{}, registry.ErrNotFound).Twice()

	_, err := c.FindByUUID(ctx, "ghost")
	assert.ErrorIs(t, err, registry.ErrNotFound)
	_, err = c.FindByUUID(ctx, "ghost")
	assert.ErrorIs(t, err, registry.ErrNotFound)
	next.AssertExpectations(t)
}

func TestCachedDeleteDropsEntry(t *testing.T) {
	t.Parallel()
	c, next, mr := setupCached(t)
	ctx := context.Background()
	rec := registry.Record{NumericID: 1, UUID: "u1", OwnerID: 1, Active: true}

	next.On("FindByUUID", mock.Anything, "u1").Return(rec, nil).Once()
	_, err := c.FindByUUID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mr.Keys(), 1)

	next.On("Delete", mock.Anything, "u1").Return(nil).Once()
	require.NoError(t, c.Delete(ctx, "u1"))
	assert.Empty(t, mr.Keys())

	next.On("FindByUUID", mock.Anything, "u1").Return(registry.Record{}, registry.ErrNotFound).Once()
	_, err = c.FindByUUID(ctx, "u1")
	assert.ErrorIs(t, err, registry.ErrNotFound)
	next.AssertExpectations(t)
}

func TestCachedFallsThroughWhenRedisDown(t *testing.T) {
	t.Parallel()
	c, next, mr := setupCached(t)
	mr.Close()
	rec := registry.Record{NumericID: 1, UUID: "u1", OwnerID: 1, Active: true}

	next.On("FindByUUID", mock.Anything, "u1").Return(rec, nil)
	got, err := c.FindByUUID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestCachedPassThrough(t *testing.T) {
	t.Parallel()
	c, next, _ := setupCached(t)
	ctx := context.Background()

	next.On("ListActiveUUIDs", mock.Anything, int64(42)).Return([]string{"a", "b"}, nil).Once()
	ids, err := c.ListActiveUUIDs(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	next.On("Create", mock.Anything, int64(42), "c", (*string)(nil)).Return(registry.Record{}, registry.ErrDuplicate).Once()
	_, err = c.Create(ctx, 42, "c", nil)
	assert.ErrorIs(t, err, registry.ErrDuplicate)
	next.AssertExpectations(t)
}
