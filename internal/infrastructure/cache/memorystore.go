package cache

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/lattice-saas/lattice/internal/domain/access"
)

const (
	defaultCacheSize = 4096

	// DefaultTTL is the standard lifetime of a cached permission decision.
	DefaultTTL = 5 * time.Minute
)

type decision struct {
	allowed   bool
	expiresAt time.Time
}

// MemoryStore is a bounded in-process decision cache backed by an expirable
// LRU. The LRU enforces the upper TTL bound and the entry count; shorter
// per-entry lifetimes (superadmin lookups) are enforced lazily on read.
type MemoryStore struct {
	entries *expirable.LRU[string, decision]
}

var _ access.DecisionCache = (*MemoryStore)(nil)

// NewMemoryStore creates a store holding at most size entries, none of which
// outlives maxTTL.
func NewMemoryStore(size int, maxTTL time.Duration) *MemoryStore {
	if size <= 0 {
		size = defaultCacheSize
	}
	if maxTTL <= 0 {
		maxTTL = DefaultTTL
	}
	return &MemoryStore{
		entries: expirable.NewLRU[string, decision](size, nil, maxTTL),
	}
}

func (s *MemoryStore) Get(_ context.Context, key access.DecisionKey) (bool, bool) {
	d, ok := s.entries.Get(key.String())
	if !ok {
		return false, false
	}
	if time.Now().After(d.expiresAt) {
		s.entries.Remove(key.String())
		return false, false
	}
	return d.allowed, true
}

func (s *MemoryStore) Set(_ context.Context, key access.DecisionKey, allowed bool, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.entries.Add(key.String(), decision{
		allowed:   allowed,
		expiresAt: time.Now().Add(ttl),
	})
}

func (s *MemoryStore) InvalidateUser(_ context.Context, userID string) {
	prefix := access.UserPrefix(userID)
	for _, k := range s.entries.Keys() {
		if strings.HasPrefix(k, prefix) {
			s.entries.Remove(k)
		}
	}
}

func (s *MemoryStore) Clear(_ context.Context) {
	s.entries.Purge()
}
