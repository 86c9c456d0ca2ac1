// Package cache implements the process-local TTL+LRU cache shared by C3
// (embedding) and C4 (geocoding), optionally backed by Redis as an L2 layer
// so multiple process instances can share warm entries without requiring
// cross-process coherence (the spec explicitly does not require it — Redis
// is pure acceleration, never a correctness dependency).
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type entry struct {
	key       string
	value     string
	expiresAt time.Time
}

// TTLCache is a bounded, TTL-expiring LRU. Zero value is not usable; build
// with New.
type TTLCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	maxSize  int
	ll       *list.List
	items    map[string]*list.Element
	hits     int64
	misses   int64
	redis    redis.UniversalClient
	redisTTL time.Duration
	keyspace string
}

// Option configures an optional Redis L2 layer.
type Option func(*TTLCache)

// WithRedis backs Get/Set with a Redis UniversalClient as an L2 layer. A
// miss in Redis is treated the same as redis.Nil: a plain cache miss, never
// an error surfaced to the caller (L2 is best-effort acceleration).
func WithRedis(client redis.UniversalClient, keyspace string) Option {
	return func(c *TTLCache) {
		c.redis = client
		c.keyspace = keyspace
	}
}

// New builds a cache with the given TTL and maximum entry count (eviction:
// LRU per spec §4.2/§4.3).
func New(ttl time.Duration, maxSize int, opts ...Option) *TTLCache {
	if maxSize <= 0 {
		maxSize = 1
	}
	c := &TTLCache{
		ttl:      ttl,
		maxSize:  maxSize,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
		redisTTL: ttl,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value and whether it was found (and not expired).
// On an L1 miss with Redis configured, it checks L2 and backfills L1.
func (c *TTLCache) Get(ctx context.Context, key string) (string, bool) {
	if v, ok := c.getLocal(key); ok {
		return v, true
	}
	if c.redis == nil {
		c.recordMiss()
		return "", false
	}
	val, err := c.redis.Get(ctx, c.redisKey(key)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Str("key", key).Msg("cache_redis_get_error")
		}
		c.recordMiss()
		return "", false
	}
	c.setLocal(key, val)
	c.recordHit()
	return val, true
}

// Set stores value in L1 and, if configured, L2.
func (c *TTLCache) Set(ctx context.Context, key, value string) {
	c.setLocal(key, value)
	if c.redis != nil {
		if err := c.redis.Set(ctx, c.redisKey(key), value, c.redisTTL).Err(); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("cache_redis_set_error")
		}
	}
}

// Stats returns cumulative hit/miss counts, consumed by C10's cache-hit bit.
func (c *TTLCache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *TTLCache) redisKey(key string) string { return c.keyspace + ":" + key }

func (c *TTLCache) getLocal(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return "", false
	}
	e := el.Value.(*entry)
	if c.ttl > 0 && time.Now().After(e.expiresAt) {
		c.ll.Remove(el)
		delete(c.items, key)
		return "", false
	}
	c.ll.MoveToFront(el)
	c.hits++
	return e.value, true
}

func (c *TTLCache) setLocal(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*entry).value = value
		el.Value.(*entry).expiresAt = time.Now().Add(c.ttl)
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&entry{key: key, value: value, expiresAt: time.Now().Add(c.ttl)})
	c.items[key] = el
	for c.ll.Len() > c.maxSize {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*entry).key)
	}
}

func (c *TTLCache) recordHit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}

func (c *TTLCache) recordMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}
