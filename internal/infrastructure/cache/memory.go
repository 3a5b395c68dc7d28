package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tumeware/SnackBar/internal/domain"
)

// cacheItem represents a single item in the cache with expiration
type cacheItem struct {
	Value      interface{}
	Expiration time.Time
}

// MemoryCache is a thread-safe in-memory cache with a fixed TTL.
// Expired entries are evicted lazily when read; there is no sweeper goroutine.
type MemoryCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryCache creates a new in-memory cache whose entries live for ttl
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		data: make(map[string]cacheItem),
		ttl:  ttl,
		now:  time.Now,
	}
}

// TTL returns the lifetime applied to every entry
func (c *MemoryCache) TTL() time.Duration {
	return c.ttl
}

// Get retrieves a value from the cache, dropping it if it has expired
func (c *MemoryCache) Get(ctx context.Context, key string) (interface{}, error) {
	c.mutex.RLock()
	item, exists := c.data[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, domain.ErrCacheMiss
	}

	if c.now().After(item.Expiration) {
		c.evictIfExpired(key)
		return nil, domain.ErrCacheMiss
	}

	return item.Value, nil
}

// evictIfExpired re-checks under the write lock, since a concurrent
// Set may have refreshed the entry in between
func (c *MemoryCache) evictIfExpired(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if item, ok := c.data[key]; ok && c.now().After(item.Expiration) {
		delete(c.data, key)
	}
}

// Set stores a value in the cache; the last write for a key wins
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = cacheItem{
		Value:      value,
		Expiration: c.now().Add(c.ttl),
	}

	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// Size returns the current number of items in the cache, expired ones included
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheItem)
}
