package utils

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheItem wraps a cached value with its expiry.
type cacheItem[V any] struct {
	Data      V
	ExpiresAt time.Time
}

// TTLCache is a bounded LRU whose entries also expire after a fixed TTL.
type TTLCache[V any] struct {
	lruCache *lru.Cache[string, cacheItem[V]]
	ttl      time.Duration
	now      func() time.Time
}

// NewTTLCache creates a cache holding at most size entries for ttl each.
func NewTTLCache[V any](size int, ttl time.Duration) (*TTLCache[V], error) {
	l, err := lru.New[string, cacheItem[V]](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &TTLCache[V]{lruCache: l, ttl: ttl, now: time.Now}, nil
}

// Set stores data under key until the TTL elapses.
func (c *TTLCache[V]) Set(key string, data V) {
	c.lruCache.Add(key, cacheItem[V]{
		Data:      data,
		ExpiresAt: c.now().Add(c.ttl),
	})
}

// Get returns the cached value, or false when missing or expired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	var zero V
	val, ok := c.lruCache.Get(key)
	if !ok {
		return zero, false
	}

	if c.now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return zero, false
	}

	return val.Data, true
}

// Delete drops key from the cache.
func (c *TTLCache[V]) Delete(key string) {
	c.lruCache.Remove(key)
}

// Purge empties the cache.
func (c *TTLCache[V]) Purge() {
	c.lruCache.Purge()
}
