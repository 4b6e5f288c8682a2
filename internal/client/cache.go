package client

import (
	"context"
	"golang.org/x/sync/singleflight"
	"strings"
	"sync"
	"time"
)

// QueryCache holds successful GET responses keyed by path and query.
// Concurrent fetches of the same key share one request. Failed fetches are
// never stored.
type QueryCache struct {
	maxAge time.Duration
	now    func() time.Time
	group  singleflight.Group

	mu      sync.Mutex
	entries map[string]cacheEntry
	// generation changes on every invalidation so a fetch that started
	// before it cannot store a stale body.
	generation uint64
}

type cacheEntry struct {
	data      []byte
	fetchedAt time.Time
}

// NewQueryCache returns an empty cache. Entries older than maxAge are
// refetched; a zero maxAge keeps them until invalidated.
func NewQueryCache(maxAge time.Duration) *QueryCache {
	return &QueryCache{
		maxAge:  maxAge,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (q *QueryCache) lookup(key string) ([]byte, uint64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[key]
	if ok && q.maxAge > 0 && q.now().Sub(e.fetchedAt) > q.maxAge {
		delete(q.entries, key)
		ok = false
	}
	return e.data, q.generation, ok
}

// Fetch returns the cached body for key, calling fetch on a miss.
func (q *QueryCache) Fetch(ctx context.Context, key string, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	if data, _, ok := q.lookup(key); ok {
		return data, nil
	}

	v, err, _ := q.group.Do(key, func() (interface{}, error) {
		data, gen, ok := q.lookup(key)
		if ok {
			return data, nil
		}
		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		q.mu.Lock()
		if q.generation == gen {
			q.entries[key] = cacheEntry{data: data, fetchedAt: q.now()}
		}
		q.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate drops every entry whose key starts with prefix and returns how
// many were dropped. An empty prefix clears the cache.
func (q *QueryCache) Invalidate(prefix string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.generation++
	n := 0
	for key := range q.entries {
		if strings.HasPrefix(key, prefix) {
			delete(q.entries, key)
			n++
		}
	}
	return n
}

func (q *QueryCache) Has(key string) bool {
	_, _, ok := q.lookup(key)
	return ok
}

func (q *QueryCache) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
