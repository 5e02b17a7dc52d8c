// Package search classifies lookups and fans them out over the backend's indexes.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/hyperjump/osintrat/internal/backend"
	"github.com/hyperjump/osintrat/internal/cache"
	"github.com/hyperjump/osintrat/internal/config"
	"github.com/hyperjump/osintrat/internal/models"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithCache enables result caching. Only successful results are cached.
func WithCache(c cache.ResultCache, prefix string, ttl time.Duration) Option {
	return func(e *Engine) {
		e.cache = c
		e.cachePrefix = prefix
		e.cacheTTL = ttl
	}
}

// Engine runs a lookup against every index in the registry and merges the results.
type Engine struct {
	backend  backend.Backend
	registry *Registry
	config   *config.SearchConfig
	logger   *zap.Logger

	cache       cache.ResultCache
	cachePrefix string
	cacheTTL    time.Duration
	sf          singleflight.Group
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(b backend.Backend, registry *Registry, cfg *config.SearchConfig, opts ...Option) *Engine {
	c := *cfg
	if c.MaxParallel <= 0 {
		c.MaxParallel = 8
	}
	if c.IndexTimeout <= 0 {
		c.IndexTimeout = 5 * time.Second
	}
	if c.NameLimit <= 0 {
		c.NameLimit = 200
	}
	if c.FilterLimit <= 0 {
		c.FilterLimit = 100
	}
	if c.ScanLimit <= 0 {
		c.ScanLimit = 200
	}
	e := &Engine{
		backend:  b,
		registry: registry,
		config:   &c,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search looks query up across all indexes. An empty t classifies the query first.
// Failures are reported through SearchResult.Success and Error, never as a Go error.
func (e *Engine) Search(ctx context.Context, query string, t models.SearchType) *models.SearchResult {
	startTime := time.Now()
	query = strings.TrimSpace(query)
	if t == "" {
		t = Classify(query)
	}
	lookup := query
	if t == models.SearchTypePhone {
		lookup = NormalizePhoneDigits(query)
	}

	key := cache.BuildKey(e.cachePrefix, t, lookupKey(lookup, t))
	if e.cache != nil {
		cached, err := e.cache.Get(ctx, key)
		if err == nil {
			cached.ID = uuid.New().String()
			cached.Query = query
			cached.QueryTime = time.Since(startTime).Milliseconds()
			return cached
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			e.logger.Warn("cache get error", zap.String("key", key), zap.Error(err))
		}
	}

	// The shared fan-out outlives any single caller; per-index timeouts still bound it.
	shareCtx := context.WithoutCancel(ctx)
	ch := e.sf.DoChan(key, func() (interface{}, error) {
		return e.fanOut(shareCtx, query, lookup, t), nil
	})
	var shared *models.SearchResult
	select {
	case res := <-ch:
		shared = res.Val.(*models.SearchResult)
	case <-ctx.Done():
		return &models.SearchResult{
			ID:         uuid.New().String(),
			Query:      query,
			SearchType: t,
			Records:    []*models.SearchRecord{},
			Error:      ctx.Err().Error(),
			QueryTime:  time.Since(startTime).Milliseconds(),
		}
	}
	result := *shared
	result.ID = uuid.New().String()
	result.Query = query
	result.QueryTime = time.Since(startTime).Milliseconds()

	if e.cache != nil && result.Success {
		if err := e.cache.Set(ctx, key, &result, e.cacheTTL); err != nil {
			e.logger.Warn("cache set error", zap.String("key", key), zap.Error(err))
		}
	}

	e.logger.Info("search completed",
		zap.String("query", query),
		zap.String("type", string(t)),
		zap.Bool("success", result.Success),
		zap.Int("count", result.Count),
		zap.Int64("query_time_ms", result.QueryTime),
	)
	return &result
}

// lookupKey is the part of a lookup that decides its results: names compare
// case-insensitively, everything else by the cleaned value as typed.
func lookupKey(lookup string, t models.SearchType) string {
	if t == models.SearchTypeName {
		return NormalizeName(lookup)
	}
	return CleanQuery(lookup, t)
}

func (e *Engine) fanOut(ctx context.Context, query, lookup string, t models.SearchType) *models.SearchResult {
	result := &models.SearchResult{
		Query:      query,
		SearchType: t,
		Records:    []*models.SearchRecord{},
	}

	names := e.registry.Names()
	if len(names) == 0 {
		if err := e.registry.Err(); err != nil {
			result.Error = err.Error()
			return result
		}
		result.Success = true
		return result
	}

	clean := CleanQuery(lookup, t)
	perIndex := make([][]*models.SearchRecord, len(names))
	errs := make([]error, len(names))

	var g errgroup.Group
	g.SetLimit(e.config.MaxParallel)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			records, err := e.searchIndex(ctx, name, lookup, clean, t)
			if err != nil {
				e.logger.Error("index search failed", zap.String("index", name), zap.Error(err))
				errs[i] = fmt.Errorf("%s: %w", name, err)
				return nil
			}
			perIndex[i] = records
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed == len(names) {
		result.Error = errors.Join(errs...).Error()
		return result
	}

	var records []*models.SearchRecord
	for _, recs := range perIndex {
		records = append(records, recs...)
	}
	if t == models.SearchTypeName {
		records = FilterNames(records, lookup)
	}
	Rank(records, lookup, t)

	if records == nil {
		records = []*models.SearchRecord{}
	}
	result.Success = true
	result.Records = records
	result.Count = len(records)
	result.ResultsFound = result.Count > 0
	return result
}

// searchIndex runs the per-type lookup against a single index.
func (e *Engine) searchIndex(ctx context.Context, index, query, clean string, t models.SearchType) ([]*models.SearchRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.IndexTimeout)
	defer cancel()

	var hits []backend.Hit
	if t == models.SearchTypeName {
		var err error
		hits, err = e.backend.Search(ctx, index, strings.ToLower(query), backend.SearchOptions{
			MatchingStrategy: backend.MatchingStrategyAll,
			Limit:            e.config.NameLimit,
		})
		if err != nil {
			return nil, err
		}
	} else {
		field := t.Field()
		filterable, err := e.backend.FilterableFields(ctx, index)
		if err != nil {
			return nil, fmt.Errorf("filterable attributes: %w", err)
		}
		if _, ok := filterable[field]; ok {
			hits, err = e.backend.Search(ctx, index, clean, backend.SearchOptions{
				Filter: backend.EqualityFilter(field, clean),
				Limit:  e.config.FilterLimit,
			})
			if err != nil {
				return nil, err
			}
		} else {
			scanned, err := e.backend.Search(ctx, index, "", backend.SearchOptions{
				MatchingStrategy: backend.MatchingStrategyAll,
				Limit:            e.config.ScanLimit,
			})
			if err != nil {
				return nil, err
			}
			for _, h := range scanned {
				v, ok := h[field]
				if !ok || v == nil {
					continue
				}
				if models.Stringify(v) == clean {
					hits = append(hits, h)
				}
			}
		}
	}

	records := make([]*models.SearchRecord, 0, len(hits))
	for _, h := range hits {
		records = append(records, models.RecordFromHit(h))
	}
	return records, nil
}
