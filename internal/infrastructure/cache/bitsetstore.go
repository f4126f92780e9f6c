package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/lattice-saas/lattice/internal/domain/access"
)

type grantEntry struct {
	// known marks which action bits carry a cached decision; allowed
	// carries the decision itself. An unknown bit is a cache miss.
	known     access.ActionSet
	allowed   access.ActionSet
	expiresAt time.Time
}

// BitsetStore is the memory-bounded decision cache variant: one entry per
// (user, tenant, resource) holding a bit per action instead of one entry
// per action. Expiry is entry-level, so the TTL of the first write in a
// window applies to every action bit cached in that window.
type BitsetStore struct {
	mu      sync.RWMutex
	entries map[string]*grantEntry
	size    int
}

var _ access.DecisionCache = (*BitsetStore)(nil)

func NewBitsetStore(size int) *BitsetStore {
	if size <= 0 {
		size = defaultCacheSize
	}
	return &BitsetStore{
		entries: make(map[string]*grantEntry),
		size:    size,
	}
}

// entryKey drops the action component: all actions for one scope share one
// entry.
func entryKey(key access.DecisionKey) string {
	full := key.String()
	idx := strings.LastIndexByte(full, ':')
	actionStart := strings.LastIndexByte(full[:idx], ':')
	return full[:actionStart] + full[idx:]
}

func (s *BitsetStore) Get(_ context.Context, key access.DecisionKey) (bool, bool) {
	k := entryKey(key)

	s.mu.RLock()
	e, ok := s.entries[k]
	var known, allowed access.ActionSet
	var expiresAt time.Time
	if ok {
		known, allowed, expiresAt = e.known, e.allowed, e.expiresAt
	}
	s.mu.RUnlock()

	if !ok {
		return false, false
	}
	if time.Now().After(expiresAt) {
		s.mu.Lock()
		if cur, still := s.entries[k]; still && cur == e {
			delete(s.entries, k)
		}
		s.mu.Unlock()
		return false, false
	}
	if !known.Has(key.Action) {
		return false, false
	}
	return allowed.Has(key.Action), true
}

func (s *BitsetStore) Set(_ context.Context, key access.DecisionKey, allowed bool, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	k := entryKey(key)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[k]
	if !ok || now.After(e.expiresAt) {
		if len(s.entries) >= s.size {
			s.evictLocked(now)
		}
		e = &grantEntry{expiresAt: now.Add(ttl)}
		s.entries[k] = e
	}
	e.known = e.known.With(key.Action)
	if allowed {
		e.allowed = e.allowed.With(key.Action)
	} else {
		e.allowed = e.allowed.Without(key.Action)
	}
}

// evictLocked drops expired entries, or an arbitrary one when nothing has
// expired yet. Called with the write lock held.
func (s *BitsetStore) evictLocked(now time.Time) {
	dropped := false
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
			dropped = true
		}
	}
	if dropped {
		return
	}
	for k := range s.entries {
		delete(s.entries, k)
		return
	}
}

func (s *BitsetStore) InvalidateUser(_ context.Context, userID string) {
	prefix := access.UserPrefix(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
		}
	}
}

func (s *BitsetStore) Clear(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*grantEntry)
}
