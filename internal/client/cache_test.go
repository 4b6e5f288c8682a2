package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestQueryCacheCollapsesConcurrentFetches(t *testing.T) {
	q := NewQueryCache(0)
	var calls int32
	release := make(chan struct{})
	fetch := func(context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []byte(`[]`), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := q.Fetch(context.Background(), "/api/cart", fetch); err != nil {
				t.Error(err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("fetch called %d times", got)
	}
	if !q.Has("/api/cart") {
		t.Fatal("result not cached")
	}
}

func TestQueryCacheDoesNotStoreFailures(t *testing.T) {
	q := NewQueryCache(0)
	boom := errors.New("boom")
	if _, err := q.Fetch(context.Background(), "k", func(context.Context) ([]byte, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if q.Has("k") {
		t.Fatal("failure cached")
	}
}

func TestQueryCacheInvalidatePrefix(t *testing.T) {
	q := NewQueryCache(0)
	for _, k := range []string{"/api/cart", "/api/cart/summary", "/api/categories", "/api/orders"} {
		k := k
		_, _ = q.Fetch(context.Background(), k, func(context.Context) ([]byte, error) { return []byte(k), nil })
	}
	if n := q.Invalidate("/api/cart"); n != 2 {
		t.Fatalf("invalidated %d", n)
	}
	if q.Has("/api/cart/summary") || !q.Has("/api/categories") {
		t.Fatal("wrong keys dropped")
	}
	q.Invalidate("")
	if q.Len() != 0 {
		t.Fatalf("len = %d after clear", q.Len())
	}
}

func TestQueryCacheMaxAge(t *testing.T) {
	q := NewQueryCache(time.Minute)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return now }

	n := 0
	fetch := func(context.Context) ([]byte, error) { n++; return []byte("x"), nil }
	_, _ = q.Fetch(context.Background(), "k", fetch)
	_, _ = q.Fetch(context.Background(), "k", fetch)
	now = now.Add(2 * time.Minute)
	_, _ = q.Fetch(context.Background(), "k", fetch)
	if n != 2 {
		t.Fatalf("fetches = %d, want 2", n)
	}
}

func TestQueryCacheDropsFetchRacingInvalidate(t *testing.T) {
	q := NewQueryCache(0)
	_, _ = q.Fetch(context.Background(), "/api/cart", func(context.Context) ([]byte, error) {
		q.Invalidate("/api/cart")
		return []byte("stale"), nil
	})
	if q.Has("/api/cart") {
		t.Fatal("stale body stored after invalidation")
	}
}
