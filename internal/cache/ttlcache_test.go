package cache

import (
	"context"
	"testing"
	"time"
)

func TestTTLCacheHitAndExpiry(t *testing.T) {
	ctx := context.Background()
	c := New(20*time.Millisecond, 10)
	c.Set(ctx, "k", "v")
	if v, ok := c.Get(ctx, "k"); !ok || v != "v" {
		t.Fatalf("expected immediate hit, got %q %v", v, ok)
	}
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestTTLCacheLRUEviction(t *testing.T) {
	ctx := context.Background()
	c := New(time.Hour, 2)
	c.Set(ctx, "a", "1")
	c.Set(ctx, "b", "2")
	c.Get(ctx, "a") // touch a so b is the LRU victim
	c.Set(ctx, "c", "3")
	if _, ok := c.Get(ctx, "b"); ok {
		t.Fatalf("expected b to be evicted as least recently used")
	}
	if _, ok := c.Get(ctx, "a"); !ok {
		t.Fatalf("expected a to survive eviction")
	}
}

func TestTTLCacheStats(t *testing.T) {
	ctx := context.Background()
	c := New(time.Hour, 10)
	c.Get(ctx, "missing")
	c.Set(ctx, "k", "v")
	c.Get(ctx, "k")
	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("expected 1 hit 1 miss, got hits=%d misses=%d", hits, misses)
	}
}
