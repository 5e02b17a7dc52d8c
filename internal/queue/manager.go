// Package queue retries lookups that arrived while the search backend was unavailable.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/osintrat/internal/config"
	"github.com/hyperjump/osintrat/internal/models"
	"github.com/hyperjump/osintrat/internal/notify"
	"github.com/hyperjump/osintrat/internal/report"
	"github.com/hyperjump/osintrat/internal/storage"
)

const (
	blockedText   = "❌ Your account has been blocked. Cannot process your queued query."
	resultCaption = "Here are your search results."
)

// Searcher runs a lookup; an empty type means classify.
type Searcher interface {
	Search(ctx context.Context, query string, t models.SearchType) *models.SearchResult
}

// AvailabilityChecker reports whether the search backend can serve lookups.
type AvailabilityChecker interface {
	IsAvailable(ctx context.Context) bool
}

// Manager owns the deferred query queue.
type Manager struct {
	store    storage.Storage
	searcher Searcher
	probe    AvailabilityChecker
	notifier notify.Notifier
	config   *config.QueueConfig
	format   string
	logger   *zap.Logger

	draining atomic.Bool
}

// NewManager creates a queue manager. format selects the results file format.
func NewManager(
	store storage.Storage,
	searcher Searcher,
	probe AvailabilityChecker,
	notifier notify.Notifier,
	cfg *config.QueueConfig,
	format string,
	logger *zap.Logger,
) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:    store,
		searcher: searcher,
		probe:    probe,
		notifier: notifier,
		config:   cfg,
		format:   format,
		logger:   logger,
	}
}

// Enqueue stores query for userID to be run once the backend is available again.
func (m *Manager) Enqueue(ctx context.Context, userID int64, query string) (*models.QueuedQuery, error) {
	q, err := m.store.EnqueueQuery(ctx, userID, query)
	if err != nil {
		return nil, err
	}
	m.logger.Info("query queued", zap.Int64("id", q.ID), zap.Int64("user_id", userID))
	return q, nil
}

// Pending returns the queries not yet processed, oldest first.
func (m *Manager) Pending(ctx context.Context) ([]*models.QueuedQuery, error) {
	return m.store.ListPendingQueries(ctx)
}

// Drain processes every pending query once. At most one drain runs at a time; a call
// made while another is in progress, or while the backend is unavailable, returns
// ran=false without doing anything. Every entry drain attempts is marked processed,
// whether it succeeded or not.
func (m *Manager) Drain(ctx context.Context) (processed int, ran bool) {
	if !m.draining.CompareAndSwap(false, true) {
		return 0, false
	}
	defer m.draining.Store(false)

	if !m.probe.IsAvailable(ctx) {
		return 0, false
	}

	pending, err := m.store.ListPendingQueries(ctx)
	if err != nil {
		m.logger.Error("failed to list pending queries", zap.Error(err))
		return 0, true
	}
	if len(pending) == 0 {
		return 0, true
	}
	m.logger.Info("draining query queue", zap.Int("pending", len(pending)))

	for _, q := range pending {
		if ctx.Err() != nil {
			break
		}
		delivered, err := m.process(ctx, q)
		if err != nil {
			m.logger.Error("failed to process queued query", zap.Int64("id", q.ID), zap.Error(err))
		}
		if _, err := m.store.MarkProcessed(ctx, q.ID); err != nil {
			m.logger.Error("failed to mark query processed", zap.Int64("id", q.ID), zap.Error(err))
		}
		processed++
		if delivered {
			m.pause(ctx)
		}
	}
	m.logger.Info("query queue drained", zap.Int("processed", processed))
	return processed, true
}

// process runs one queued query and reports whether results were delivered.
func (m *Manager) process(ctx context.Context, q *models.QueuedQuery) (bool, error) {
	user, err := m.store.GetUser(ctx, q.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		m.logger.Warn("queued query for unknown user", zap.Int64("id", q.ID), zap.Int64("user_id", q.UserID))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get user: %w", err)
	}
	if user.IsBlocked {
		if err := m.notifier.DeliverText(ctx, q.UserID, blockedText); err != nil {
			return false, fmt.Errorf("notify blocked user: %w", err)
		}
		return false, nil
	}

	result := m.searcher.Search(ctx, q.Query, "")
	if err := m.store.LogSearch(ctx, &models.SearchLog{
		UserID:       q.UserID,
		Query:        q.Query,
		SearchType:   result.SearchType,
		ResultsFound: result.ResultsFound,
		Success:      result.Success,
	}); err != nil {
		m.logger.Warn("failed to log search", zap.Int64("id", q.ID), zap.Error(err))
	}

	data, filename, err := report.Render(result, m.format)
	if err != nil {
		return false, fmt.Errorf("render report: %w", err)
	}
	summary := fmt.Sprintf("✅ Your queued query has been processed!\n\nQuery: %s\nResults found: %d", q.Query, result.Count)
	if err := m.notifier.DeliverText(ctx, q.UserID, summary); err != nil {
		return false, fmt.Errorf("deliver summary: %w", err)
	}
	if err := m.notifier.DeliverFile(ctx, q.UserID, data, filename, resultCaption); err != nil {
		return false, fmt.Errorf("deliver results: %w", err)
	}
	return true, nil
}

func (m *Manager) pause(ctx context.Context) {
	if m.config.DeliveryDelay <= 0 {
		return
	}
	t := time.NewTimer(m.config.DeliveryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Run drains the queue every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	interval := m.config.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	m.logger.Info("starting periodic queue check", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("queue loop stopped")
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Manager) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("queue check panicked", zap.Any("panic", r))
		}
	}()
	m.Drain(ctx)
}
