package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// IndexLister lists the indexes hosted by the search backend.
type IndexLister interface {
	ListIndexes(ctx context.Context) ([]string, error)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used for refresh results.
func WithRegistryLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithRefreshHook registers fn to run after every successful refresh.
func WithRefreshHook(fn func()) RegistryOption {
	return func(r *Registry) {
		r.hooks = append(r.hooks, fn)
	}
}

// Registry holds the snapshot of index names the engine fans out over.
// Readers always see a complete snapshot; Refresh swaps it atomically.
type Registry struct {
	lister IndexLister
	logger *zap.Logger
	hooks  []func()

	mu          sync.RWMutex
	names       []string
	err         error
	refreshedAt time.Time
}

// NewRegistry creates an empty registry. Call Refresh to populate it.
func NewRegistry(lister IndexLister, opts ...RegistryOption) *Registry {
	r := &Registry{lister: lister, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh re-lists the backend's indexes. On failure the previous snapshot is kept
// and the error is both recorded and returned.
func (r *Registry) Refresh(ctx context.Context) error {
	names, err := r.lister.ListIndexes(ctx)
	if err != nil {
		err = fmt.Errorf("list indexes: %w", err)
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
		r.logger.Warn("index registry refresh failed", zap.Error(err))
		return err
	}
	snapshot := make([]string, len(names))
	copy(snapshot, names)

	r.mu.Lock()
	r.names = snapshot
	r.err = nil
	r.refreshedAt = time.Now()
	r.mu.Unlock()

	for _, fn := range r.hooks {
		fn()
	}
	r.logger.Info("index registry refreshed", zap.Int("indexes", len(snapshot)))
	return nil
}

// Names returns a copy of the current index names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Err returns the error of the last refresh, or nil if it succeeded.
func (r *Registry) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// RefreshedAt returns the time of the last successful refresh.
func (r *Registry) RefreshedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.refreshedAt
}
