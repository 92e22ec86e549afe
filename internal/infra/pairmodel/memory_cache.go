package pairmodel

import (
	"context"
	"sync"
	"time"
)

type cachedProbability struct {
	value     float64
	expiresAt time.Time
}

// MemoryCache is an in-process SharedCache with expiry, used when Valkey is disabled or unreachable.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cachedProbability
	now     func() time.Time
}

// NewMemoryCache constructs the cache. ttl <= 0 keeps entries forever.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, entries: make(map[string]cachedProbability), now: time.Now}
}

// Get implements SharedCache.
func (c *MemoryCache) Get(_ context.Context, key string) (float64, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return 0, false, nil
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return 0, false, nil
	}
	return entry.value, true, nil
}

// Set implements SharedCache.
func (c *MemoryCache) Set(_ context.Context, key string, value float64) error {
	entry := cachedProbability{value: value}
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

var _ SharedCache = (*MemoryCache)(nil)
