package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache implements in-process caching with expiry
type MemoryCache struct {
	cache *gocache.Cache
}

func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]string, bool) {
	if val, found := c.cache.Get(key); found {
		return val.([]string), true
	}
	return nil, false
}

func (c *MemoryCache) Set(_ context.Context, key string, shingles []string) error {
	c.cache.Set(key, shingles, gocache.DefaultExpiration)
	return nil
}

func (c *MemoryCache) Len() int {
	return c.cache.ItemCount()
}
