package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-saas/lattice/internal/domain/access"
	"github.com/lattice-saas/lattice/internal/shared/logger"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client, logger.NewNop()), mr
}

func TestRedisStoreReadYourWrite(t *testing.T) {
	ctx := context.Background()
	store, _ := setupRedisStore(t)
	key := docKey("u1", "t1", access.ActionView)

	_, ok := store.Get(ctx, key)
	assert.False(t, ok)

	store.Set(ctx, key, false, time.Minute)
	allowed, ok := store.Get(ctx, key)
	assert.True(t, ok)
	assert.False(t, allowed, "a cached deny must round-trip as deny")
}

func TestRedisStoreTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedisStore(t)
	key := docKey("u1", "t1", access.ActionView)

	store.Set(ctx, key, true, time.Minute)
	_, ok := store.Get(ctx, key)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	_, ok = store.Get(ctx, key)
	assert.False(t, ok)
}

func TestRedisStoreInvalidateUser(t *testing.T) {
	ctx := context.Background()
	store, _ := setupRedisStore(t)

	store.Set(ctx, docKey("u1", "t1", access.ActionView), true, time.Minute)
	store.Set(ctx, docKey("u1", "", access.ActionCreate), true, time.Minute)
	store.Set(ctx, docKey("u2", "t1", access.ActionView), true, time.Minute)

	store.InvalidateUser(ctx, "u1")

	_, ok := store.Get(ctx, docKey("u1", "t1", access.ActionView))
	assert.False(t, ok)
	_, ok = store.Get(ctx, docKey("u1", "", access.ActionCreate))
	assert.False(t, ok)
	_, ok = store.Get(ctx, docKey("u2", "t1", access.ActionView))
	assert.True(t, ok)
}

func TestRedisStoreClear(t *testing.T) {
	ctx := context.Background()
	store, _ := setupRedisStore(t)

	store.Set(ctx, docKey("u1", "t1", access.ActionView), true, time.Minute)
	store.Set(ctx, docKey("u2", "t2", access.ActionDelete), false, time.Minute)

	store.Clear(ctx)

	_, ok := store.Get(ctx, docKey("u1", "t1", access.ActionView))
	assert.False(t, ok)
	_, ok = store.Get(ctx, docKey("u2", "t2", access.ActionDelete))
	assert.False(t, ok)
}

func TestRedisStoreUnavailableDegradesToMiss(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedisStore(t)
	key := docKey("u1", "t1", access.ActionView)

	store.Set(ctx, key, true, time.Minute)
	mr.Close()

	_, ok := store.Get(ctx, key)
	assert.False(t, ok, "a broken cache must report a miss, not an error")

	// Writes and invalidations must not panic either.
	store.Set(ctx, key, true, time.Minute)
	store.InvalidateUser(ctx, "u1")
	store.Clear(ctx)
}
