package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lattice-saas/lattice/internal/domain/access"
)

func TestBitsetStoreDecisionsPerAction(t *testing.T) {
	ctx := context.Background()
	store := NewBitsetStore(16)

	view := docKey("u1", "t1", access.ActionView)
	del := docKey("u1", "t1", access.ActionDelete)

	store.Set(ctx, view, true, time.Minute)
	store.Set(ctx, del, false, time.Minute)

	allowed, ok := store.Get(ctx, view)
	assert.True(t, ok)
	assert.True(t, allowed)

	// A cached deny is a hit, not a miss.
	allowed, ok = store.Get(ctx, del)
	assert.True(t, ok)
	assert.False(t, allowed)

	// An action never cached is a miss even though the entry exists.
	_, ok = store.Get(ctx, docKey("u1", "t1", access.ActionExport))
	assert.False(t, ok)
}

func TestBitsetStoreSharesEntryAcrossActions(t *testing.T) {
	ctx := context.Background()
	store := NewBitsetStore(16)

	for _, a := range access.Actions() {
		store.Set(ctx, docKey("u1", "t1", a), true, time.Minute)
	}

	store.mu.RLock()
	entries := len(store.entries)
	store.mu.RUnlock()
	assert.Equal(t, 1, entries, "all actions for one scope share one entry")
}

func TestBitsetStoreScopeIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewBitsetStore(16)

	store.Set(ctx, docKey("u1", "t1", access.ActionView), true, time.Minute)

	_, ok := store.Get(ctx, docKey("u1", "t2", access.ActionView))
	assert.False(t, ok, "tenant scopes must not share entries")

	_, ok = store.Get(ctx, docKey("u1", "", access.ActionView))
	assert.False(t, ok, "global scope must not share entries with tenants")

	instance := docKey("u1", "t1", access.ActionView)
	instance.ResourceID = "d1"
	_, ok = store.Get(ctx, instance)
	assert.False(t, ok, "instance checks must not share entries with collection checks")
}

func TestBitsetStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := NewBitsetStore(16)
	key := docKey("u1", "t1", access.ActionView)

	store.Set(ctx, key, true, time.Minute)
	store.Set(ctx, key, false, time.Minute)

	allowed, ok := store.Get(ctx, key)
	assert.True(t, ok)
	assert.False(t, allowed)
}

func TestBitsetStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewBitsetStore(16)
	key := docKey("u1", "t1", access.ActionView)

	store.Set(ctx, key, true, 20*time.Millisecond)
	time.Sleep(40 * time.Millisecond)

	_, ok := store.Get(ctx, key)
	assert.False(t, ok)
}

func TestBitsetStoreInvalidateUserAndClear(t *testing.T) {
	ctx := context.Background()
	store := NewBitsetStore(16)

	store.Set(ctx, docKey("u1", "t1", access.ActionView), true, time.Minute)
	store.Set(ctx, docKey("u2", "t1", access.ActionView), true, time.Minute)

	store.InvalidateUser(ctx, "u1")
	_, ok := store.Get(ctx, docKey("u1", "t1", access.ActionView))
	assert.False(t, ok)
	_, ok = store.Get(ctx, docKey("u2", "t1", access.ActionView))
	assert.True(t, ok)

	store.Clear(ctx)
	_, ok = store.Get(ctx, docKey("u2", "t1", access.ActionView))
	assert.False(t, ok)
}
