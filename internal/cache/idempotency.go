package cache

import (
	"context"
	"github.com/go-redis/redis/v8"
	"sync"
	"time"
)

// RedisIdempotency claims idempotency keys with SETNX so a key is accepted
// once per TTL across every server instance.
type RedisIdempotency struct {
	rdb *redis.Client
}

func NewRedisIdempotency(rdb *redis.Client) *RedisIdempotency {
	return &RedisIdempotency{rdb: rdb}
}

func idempotencyKey(key string) string { return "idempotent-key:" + key }

func (s *RedisIdempotency) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, idempotencyKey(key), "exists", ttl).Result()
}

func (s *RedisIdempotency) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, idempotencyKey(key)).Err()
}

type MemoryIdempotency struct {
	mu        sync.Mutex
	keys      map[string]time.Time
	nextSweep time.Time
	now       func() time.Time
}

func NewMemoryIdempotency() *MemoryIdempotency {
	return &MemoryIdempotency{keys: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryIdempotency) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.nextSweep = sweepExpired(s.keys, now, s.nextSweep)
	if exp, ok := s.keys[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.keys[key] = now.Add(ttl)
	return true, nil
}

func (s *MemoryIdempotency) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.keys, key)
	return nil
}
