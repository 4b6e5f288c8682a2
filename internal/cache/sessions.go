package cache

import (
	"context"
	"errors"
	"github.com/go-redis/redis/v8"
	"strconv"
	"sync"
	"time"
)

// RedisSessions records live logins as session:<token id> -> user id.
type RedisSessions struct {
	rdb *redis.Client
}

func NewRedisSessions(rdb *redis.Client) *RedisSessions {
	return &RedisSessions{rdb: rdb}
}

func sessionKey(id string) string { return "session:" + id }

func (s *RedisSessions) Create(ctx context.Context, id string, userID int, ttl time.Duration) error {
	return s.rdb.Set(ctx, sessionKey(id), strconv.Itoa(userID), ttl).Err()
}

func (s *RedisSessions) Exists(ctx context.Context, id string) (bool, error) {
	err := s.rdb.Get(ctx, sessionKey(id)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisSessions) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKey(id)).Err()
}

// sweepInterval is the least time between scans of a memory store for
// expired keys.
const sweepInterval = time.Minute

// sweepExpired drops keys whose deadline has passed once next is due and
// returns the time of the following scan.
func sweepExpired(keys map[string]time.Time, now, next time.Time) time.Time {
	if now.Before(next) {
		return next
	}
	for k, exp := range keys {
		if !now.Before(exp) {
			delete(keys, k)
		}
	}
	return now.Add(sweepInterval)
}

// MemorySessions is the single-process fallback for RedisSessions.
type MemorySessions struct {
	mu        sync.Mutex
	sessions  map[string]time.Time
	nextSweep time.Time
	now       func() time.Time
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]time.Time), now: time.Now}
}

func (s *MemorySessions) Create(_ context.Context, id string, _ int, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.nextSweep = sweepExpired(s.sessions, now, s.nextSweep)
	s.sessions[id] = now.Add(ttl)
	return nil
}

func (s *MemorySessions) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.sessions[id]
	if !ok {
		return false, nil
	}
	if !s.now().Before(exp) {
		delete(s.sessions, id)
		return false, nil
	}
	return true, nil
}

func (s *MemorySessions) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}
