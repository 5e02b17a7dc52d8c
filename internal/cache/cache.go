// Package cache provides short-lived storage for lookup results.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperjump/osintrat/internal/models"
)

// ErrCacheMiss is returned by Get when no entry exists for a key.
var ErrCacheMiss = errors.New("cache miss")

// ResultCache stores SearchResults by key.
type ResultCache interface {
	Get(ctx context.Context, key string) (*models.SearchResult, error)
	Set(ctx context.Context, key string, result *models.SearchResult, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// BuildKey creates the cache key for a lookup.
func BuildKey(prefix string, t models.SearchType, query string) string {
	return fmt.Sprintf("%s:%s:%s", prefix, t, query)
}
