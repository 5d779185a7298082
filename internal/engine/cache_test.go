package engine

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		k1 := CacheKey("transcript", "dQw4w9WgXcQ", "en")
		k2 := CacheKey("transcript", "dQw4w9WgXcQ", "en")
		if k1 != k2 {
			t.Errorf("CacheKey not deterministic: %q != %q", k1, k2)
		}
	})

	t.Run("different inputs differ", func(t *testing.T) {
		k1 := CacheKey("transcript", "dQw4w9WgXcQ", "en")
		k2 := CacheKey("transcript", "dQw4w9WgXcQ", "de")
		if k1 == k2 {
			t.Errorf("different inputs produced same key: %q", k1)
		}
	})

	t.Run("has prefix", func(t *testing.T) {
		k := CacheKey("test")
		if k[:3] != "ys:" {
			t.Errorf("expected ys: prefix, got %q", k[:3])
		}
	})
}

func TestCacheGetSet(t *testing.T) {
	// Init minimal cache (no Redis)
	InitCache("", 1*time.Minute, 100, 5*time.Minute)

	ctx := context.Background()
	key := CacheKey("test", "round-trip")

	if _, ok := CacheGet(ctx, key); ok {
		t.Error("expected cache miss on empty cache")
	}

	CacheSet(ctx, key, []byte("hello"))

	got, ok := CacheGet(ctx, key)
	if !ok {
		t.Fatal("expected cache hit after set")
	}
	if string(got) != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestCacheJSON(t *testing.T) {
	InitCache("", 1*time.Minute, 100, 5*time.Minute)
	ctx := context.Background()
	key := CacheKey("test", "json")

	text := "hi"
	start := int64(1500)
	CacheStoreJSON(ctx, key, RawTranscript{
		Segments:         []RawSegment{{Text: &text, StartMs: &start}},
		SelectedLanguage: "English",
	})

	got, ok := CacheLoadJSON[RawTranscript](ctx, key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.SelectedLanguage != "English" || len(got.Segments) != 1 {
		t.Fatalf("unexpected value: %+v", got)
	}
	if got.Segments[0].EndMs != nil {
		t.Errorf("absent end should stay nil, got %d", *got.Segments[0].EndMs)
	}
	if *got.Segments[0].StartMs != 1500 {
		t.Errorf("start = %d, want 1500", *got.Segments[0].StartMs)
	}
}

func TestCacheExpiration(t *testing.T) {
	InitCache("", 1*time.Millisecond, 100, 5*time.Minute)

	ctx := context.Background()
	key := CacheKey("test", "expiry")

	CacheSet(ctx, key, []byte("temp"))
	time.Sleep(5 * time.Millisecond)

	if _, ok := CacheGet(ctx, key); ok {
		t.Error("expected cache miss after TTL expiry")
	}
}

func TestCacheDisabled(t *testing.T) {
	InitCache("", 0, 100, 5*time.Minute)
	ctx := context.Background()
	key := CacheKey("test", "disabled")

	CacheSet(ctx, key, []byte("x"))
	if _, ok := CacheGet(ctx, key); ok {
		t.Error("expected miss with caching disabled")
	}
}

func TestCacheEviction(t *testing.T) {
	InitCache("", 1*time.Minute, 3, 5*time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		key := CacheKey("evict", fmt.Sprintf("item-%d", i))
		CacheSet(ctx, key, []byte(fmt.Sprintf("v%d", i)))
	}

	count := 0
	transcriptCache.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count > 3 {
		t.Errorf("expected at most 3 entries after eviction, got %d", count)
	}
}

func TestCacheStats(t *testing.T) {
	InitCache("", 1*time.Minute, 100, 5*time.Minute)
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
