package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/hyperjump/osintrat/internal/backend"
	"github.com/hyperjump/osintrat/internal/models"
)

// fakeIndex is an in-memory index with its own filterable set.
type fakeIndex struct {
	hits       []backend.Hit
	filterable []string
	err        error
	// block, when set, holds every Search until it is closed or ctx ends.
	block chan struct{}
}

type fakeBackend struct {
	mu       sync.Mutex
	indexes  map[string]*fakeIndex
	listErr  error
	health   *backend.Health
	healthEr error
	searches atomic.Int32
	lastOpts map[string]backend.SearchOptions
}

func newFakeBackend(indexes map[string]*fakeIndex) *fakeBackend {
	return &fakeBackend{
		indexes:  indexes,
		health:   &backend.Health{Status: backend.StatusAvailable},
		lastOpts: make(map[string]backend.SearchOptions),
	}
}

func (f *fakeBackend) ListIndexes(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var names []string
	for name := range f.indexes {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeBackend) FilterableFields(ctx context.Context, index string) (map[string]struct{}, error) {
	idx, ok := f.indexes[index]
	if !ok {
		return nil, backend.ErrIndexNotFound
	}
	if idx.err != nil {
		return nil, idx.err
	}
	out := make(map[string]struct{})
	for _, name := range idx.filterable {
		out[name] = struct{}{}
	}
	return out, nil
}

func (f *fakeBackend) Search(ctx context.Context, index, query string, opts backend.SearchOptions) ([]backend.Hit, error) {
	f.searches.Add(1)
	idx, ok := f.indexes[index]
	if !ok {
		return nil, backend.ErrIndexNotFound
	}
	if idx.err != nil {
		return nil, idx.err
	}
	if idx.block != nil {
		select {
		case <-idx.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	f.lastOpts[index] = opts
	f.mu.Unlock()

	var out []backend.Hit
	if opts.Filter != "" {
		field, value, ok := backend.ParseEqualityFilter(opts.Filter)
		if !ok {
			return nil, errors.New("bad filter")
		}
		for _, h := range idx.hits {
			if v, ok := h[field]; ok && models.Stringify(v) == value {
				out = append(out, h)
			}
		}
		return out, nil
	}
	// Unfiltered queries return every hit; the engine post-filters.
	for _, h := range idx.hits {
		out = append(out, h)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeBackend) Health(ctx context.Context) (*backend.Health, error) {
	if f.healthEr != nil {
		return nil, f.healthEr
	}
	return f.health, nil
}

func (f *fakeBackend) DocumentCount(ctx context.Context, index string) (int64, error) {
	idx, ok := f.indexes[index]
	if !ok {
		return 0, backend.ErrIndexNotFound
	}
	return int64(len(idx.hits)), nil
}
