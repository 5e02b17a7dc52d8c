package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/hyperjump/osintrat/internal/models"
)

// MemoryCache is an in-process ResultCache with a fixed capacity and a single TTL.
// The ttl argument of Set is ignored in favour of the TTL given at construction.
type MemoryCache struct {
	lru *expirable.LRU[string, *models.SearchResult]
}

// NewMemoryCache creates a cache holding at most size results for ttl each.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 256
	}
	return &MemoryCache{lru: expirable.NewLRU[string, *models.SearchResult](size, nil, ttl)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (*models.SearchResult, error) {
	r, ok := c.lru.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	cp := *r
	return &cp, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, result *models.SearchResult, ttl time.Duration) error {
	cp := *result
	c.lru.Add(key, &cp)
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

func (c *MemoryCache) Close() error {
	c.lru.Purge()
	return nil
}
