// Package idempotency remembers Idempotency-Key values of transition requests so a device that
// resubmits the same request does not run the transition twice.
package idempotency

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Store reserves keys for a limited time.
type Store interface {
	// Reserve returns true if key was not reserved yet and is now held for ttl.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release drops a reservation so the request can be retried.
	Release(ctx context.Context, key string) error
}

const keyPrefix = "lending:idem:"

// RedisStore shares reservations between API instances.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func (s *RedisStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, keyPrefix+key, "1", ttl).Result()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, keyPrefix+key).Err()
}

// MemoryStore is the single-instance fallback used when no Redis address is configured.
type MemoryStore struct {
	c *cache.Cache
}

func NewMemoryStore(defaultTTL time.Duration) *MemoryStore {
	return &MemoryStore{c: cache.New(defaultTTL, 2*defaultTTL)}
}

func (s *MemoryStore) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	// Add fails when the key exists and has not expired.
	return s.c.Add(key, struct{}{}, ttl) == nil, nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.c.Delete(key)
	return nil
}
