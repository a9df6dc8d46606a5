// Package cache provides a small in-memory response cache with fixed TTL.
// Expired entries are evicted when read; a cache miss after expiry is
// indistinguishable from a cold miss.
package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryCache maps string keys to opaque byte values with per-item expiry.
// Thread-safe and suitable for single-instance deployments.
type MemoryCache struct {
	mu     sync.Mutex
	items  map[string]cacheItem
	ttl    time.Duration
	logger *zap.Logger

	// Statistics
	hits   int64
	misses int64
}

type cacheItem struct {
	value  []byte
	expiry time.Time
}

// NewMemoryCache creates a cache whose entries expire after ttl.
func NewMemoryCache(ttl time.Duration, logger *zap.Logger) *MemoryCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryCache{
		items:  make(map[string]cacheItem),
		ttl:    ttl,
		logger: logger,
	}
}

// Get retrieves a value. Expired entries are removed on read.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if time.Now().After(item.expiry) {
		delete(c.items, key)
		c.misses++
		return nil, false
	}

	c.hits++
	value := make([]byte, len(item.value))
	copy(value, item.value)
	return value, true
}

// Set stores a value under the cache's fixed TTL.
func (c *MemoryCache) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	c.items[key] = cacheItem{value: stored, expiry: time.Now().Add(c.ttl)}
}

// Invalidate removes a single key.
func (c *MemoryCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// InvalidatePrefix removes every key with the given prefix. Used to drop all
// of a user's cached responses after a mutation.
func (c *MemoryCache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.items {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.items, key)
		}
	}
}

// Stats returns hit and miss counts since creation.
func (c *MemoryCache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
