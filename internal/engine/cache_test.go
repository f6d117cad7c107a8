package engine

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		k1 := CacheKey("summary", "native:abc")
		k2 := CacheKey("summary", "native:abc")
		if k1 != k2 {
			t.Errorf("CacheKey not deterministic: %q != %q", k1, k2)
		}
	})

	t.Run("different inputs differ", func(t *testing.T) {
		k1 := CacheKey("summary", "native:abc")
		k2 := CacheKey("transcript", "native:abc")
		if k1 == k2 {
			t.Errorf("different inputs produced same key: %q", k1)
		}
	})

	t.Run("has prefix", func(t *testing.T) {
		k := CacheKey("test")
		if k[:3] != "gm:" {
			t.Errorf("expected gm: prefix, got %q", k[:3])
		}
	})
}

type cachedSummary struct {
	Buckets []int `json:"buckets"`
}

func TestCacheLoadStoreJSON(t *testing.T) {
	InitCache(nil, time.Minute, 100, 5*time.Minute)

	ctx := context.Background()
	key := CacheKey("test", "round-trip")

	if _, ok := CacheLoadJSON[cachedSummary](ctx, key); ok {
		t.Error("expected cache miss on empty cache")
	}

	CacheStoreJSON(ctx, key, cachedSummary{Buckets: []int{10, 20}})

	got, ok := CacheLoadJSON[cachedSummary](ctx, key)
	if !ok {
		t.Fatal("expected cache hit after set")
	}
	if len(got.Buckets) != 2 || got.Buckets[1] != 20 {
		t.Errorf("got %+v", got)
	}

	CacheDelete(ctx, key)
	if _, ok := CacheGet(ctx, key); ok {
		t.Error("expected miss after delete")
	}
}

func TestCacheExpiration(t *testing.T) {
	InitCache(nil, time.Millisecond, 100, 5*time.Minute)

	ctx := context.Background()
	key := CacheKey("test", "expiry")

	CacheSet(ctx, key, []byte("temp"))
	time.Sleep(5 * time.Millisecond)

	if _, ok := CacheGet(ctx, key); ok {
		t.Error("expected cache miss after TTL expiry")
	}
}

func TestCacheEviction(t *testing.T) {
	InitCache(nil, time.Minute, 3, 5*time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		CacheSet(ctx, CacheKey("evict", fmt.Sprintf("item-%d", i)), []byte(fmt.Sprintf("v%d", i)))
	}

	count := 0
	readCache.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count > 3 {
		t.Errorf("expected at most 3 entries after eviction, got %d", count)
	}
}

func TestCacheStats(t *testing.T) {
	InitCache(nil, time.Minute, 100, 5*time.Minute)
	cacheHits.Store(0)
	cacheMisses.Store(0)

	ctx := context.Background()
	key := CacheKey("stats", "test")

	CacheGet(ctx, key)
	_, misses := CacheStats()
	if misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}

	CacheSet(ctx, key, []byte("x"))
	CacheGet(ctx, key)

	hits, misses := CacheStats()
	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
	if misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}
}
