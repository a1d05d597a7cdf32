// internal/accesscache/memory.go
package accesscache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMaxEntries bounds the in-memory cache size
const DefaultMaxEntries = 16384

// MemoryCache is a process-local TTL cache for single-instance deployments
type MemoryCache struct {
	cache *lru.LRU[string, struct{}]
}

// NewMemoryCache creates a memory cache with the given capacity and TTL
func NewMemoryCache(maxEntries int, ttl time.Duration) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		cache: lru.NewLRU[string, struct{}](maxEntries, nil, ttl),
	}
}

// Get implements Cache
func (c *MemoryCache) Get(_ context.Context, subjectID, houseID string) (bool, error) {
	_, ok := c.cache.Get(key(subjectID, houseID))
	return ok, nil
}

// Put implements Cache
func (c *MemoryCache) Put(_ context.Context, subjectID, houseID string) error {
	c.cache.Add(key(subjectID, houseID), struct{}{})
	return nil
}

// Len returns the number of live entries, for diagnostics
func (c *MemoryCache) Len() int {
	return c.cache.Len()
}
