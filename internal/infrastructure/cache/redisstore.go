package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lattice-saas/lattice/internal/domain/access"
	"github.com/lattice-saas/lattice/internal/shared/logger"
)

const (
	redisNamespace = "lattice:"
	redisScanCount = 200
)

// RedisStore is a decision cache shared across processes. Redis failures
// degrade to a cache miss so a broken cache slows checks down instead of
// breaking them.
type RedisStore struct {
	client *redis.Client
	logger logger.Interface
}

var _ access.DecisionCache = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, log logger.Interface) *RedisStore {
	return &RedisStore{
		client: client,
		logger: log.Named("decision-cache"),
	}
}

func (s *RedisStore) Get(ctx context.Context, key access.DecisionKey) (bool, bool) {
	val, err := s.client.Get(ctx, redisNamespace+key.String()).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warnw("cache read failed, treating as miss", "error", err, "key", key.String())
		}
		return false, false
	}
	return val == "1", true
}

func (s *RedisStore) Set(ctx context.Context, key access.DecisionKey, allowed bool, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	val := "0"
	if allowed {
		val = "1"
	}
	if err := s.client.Set(ctx, redisNamespace+key.String(), val, ttl).Err(); err != nil {
		s.logger.Warnw("cache write failed", "error", err, "key", key.String())
	}
}

func (s *RedisStore) InvalidateUser(ctx context.Context, userID string) {
	s.deleteByPattern(ctx, redisNamespace+access.UserPrefix(userID)+"*")
}

func (s *RedisStore) Clear(ctx context.Context) {
	s.deleteByPattern(ctx, redisNamespace+"*")
}

func (s *RedisStore) deleteByPattern(ctx context.Context, pattern string) {
	iter := s.client.Scan(ctx, 0, pattern, redisScanCount).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= redisScanCount {
			s.deleteKeys(ctx, keys)
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.Warnw("cache scan failed", "error", err, "pattern", pattern)
	}
	s.deleteKeys(ctx, keys)
}

func (s *RedisStore) deleteKeys(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warnw("cache delete failed", "error", err, "keys", len(keys))
	}
}
