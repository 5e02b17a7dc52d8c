// Package lookup applies per-user rules around the search engine: registration,
// blocking, the free-search quota, the minimum query length, and deferral to the queue
// while the backend is down.
package lookup

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/hyperjump/osintrat/internal/models"
	"github.com/hyperjump/osintrat/internal/storage"
)

// MinQueryLength is the shortest trimmed query accepted.
const MinQueryLength = 3

// Outcome is how a lookup request ended.
type Outcome string

const (
	OutcomeBlocked       Outcome = "blocked"
	OutcomeQuotaExceeded Outcome = "quota_exceeded"
	OutcomeTooShort      Outcome = "too_short"
	OutcomeQueued        Outcome = "queued"
	OutcomeCompleted     Outcome = "completed"
)

const (
	msgBlocked       = "❌ Your account has been blocked. Please contact the administrator."
	msgQuotaExceeded = "⚠️ You've reached your free search limit.\n\nPlease contact the administrator to get more searches."
	msgTooShort      = "❌ Your query is too short. Please provide a more specific query."
	msgQueued        = "⏸️ The database is currently offline.\n\nYour query has been added to the queue and will be processed automatically when the database comes back online.\n\nYou'll receive a notification when your results are ready."
)

// Searcher runs a lookup of a given type.
type Searcher interface {
	Search(ctx context.Context, query string, t models.SearchType) *models.SearchResult
}

// AvailabilityChecker reports whether the search backend can serve lookups.
type AvailabilityChecker interface {
	IsAvailable(ctx context.Context) bool
}

// Enqueuer defers a query until the backend is available.
type Enqueuer interface {
	Enqueue(ctx context.Context, userID int64, query string) (*models.QueuedQuery, error)
}

// Request is one lookup submitted by a user.
type Request struct {
	User  models.UserProfile `json:"user"`
	Query string             `json:"query"`
	// Type forces the search type; empty means classify.
	Type models.SearchType `json:"type,omitempty"`
}

// Response is the outcome of a lookup request.
type Response struct {
	Outcome           Outcome              `json:"outcome"`
	Message           string               `json:"message"`
	Result            *models.SearchResult `json:"result,omitempty"`
	QueuedID          int64                `json:"queued_id,omitempty"`
	RemainingSearches int                  `json:"remaining_searches"`
}

// Service handles user lookup requests.
type Service struct {
	store        storage.Storage
	searcher     Searcher
	probe        AvailabilityChecker
	queue        Enqueuer
	logger       *zap.Logger
	freeSearches atomic.Int64
}

// NewService creates a lookup service granting freeSearches to new users.
func NewService(store storage.Storage, searcher Searcher, probe AvailabilityChecker, queue Enqueuer, freeSearches int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:    store,
		searcher: searcher,
		probe:    probe,
		queue:    queue,
		logger:   logger,
	}
	s.freeSearches.Store(int64(freeSearches))
	return s
}

// SetFreeSearches changes the allowance granted to users created from now on.
func (s *Service) SetFreeSearches(n int) {
	s.freeSearches.Store(int64(n))
}

// FreeSearches returns the allowance granted to new users.
func (s *Service) FreeSearches() int {
	return int(s.freeSearches.Load())
}

// Handle runs the request through the user checks and, if they pass, the engine or queue.
// A returned error means persistence failed; every rule violation is an Outcome.
func (s *Service) Handle(ctx context.Context, req Request) (*Response, error) {
	user, err := s.store.GetOrCreateUser(ctx, req.User, s.FreeSearches())
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}
	if user.IsBlocked {
		return &Response{Outcome: OutcomeBlocked, Message: msgBlocked, RemainingSearches: user.FreeSearchesRemaining}, nil
	}
	if user.FreeSearchesRemaining <= 0 {
		return &Response{Outcome: OutcomeQuotaExceeded, Message: msgQuotaExceeded}, nil
	}

	query := strings.TrimSpace(req.Query)
	if len([]rune(query)) < MinQueryLength {
		return &Response{Outcome: OutcomeTooShort, Message: msgTooShort, RemainingSearches: user.FreeSearchesRemaining}, nil
	}

	if !s.probe.IsAvailable(ctx) {
		if _, err := s.store.DecrementSearches(ctx, user.TelegramID); err != nil {
			return nil, fmt.Errorf("decrement searches: %w", err)
		}
		q, err := s.queue.Enqueue(ctx, user.TelegramID, query)
		if err != nil {
			return nil, fmt.Errorf("enqueue query: %w", err)
		}
		return &Response{
			Outcome:           OutcomeQueued,
			Message:           msgQueued,
			QueuedID:          q.ID,
			RemainingSearches: user.FreeSearchesRemaining - 1,
		}, nil
	}

	result := s.searcher.Search(ctx, query, req.Type)
	if _, err := s.store.DecrementSearches(ctx, user.TelegramID); err != nil {
		return nil, fmt.Errorf("decrement searches: %w", err)
	}
	if err := s.store.LogSearch(ctx, &models.SearchLog{
		UserID:       user.TelegramID,
		Query:        query,
		SearchType:   result.SearchType,
		ResultsFound: result.ResultsFound,
		Success:      result.Success,
	}); err != nil {
		s.logger.Warn("failed to log search", zap.Int64("user_id", user.TelegramID), zap.Error(err))
	}

	return &Response{
		Outcome:           OutcomeCompleted,
		Message:           completedMessage(result, query, user.FreeSearchesRemaining-1),
		Result:            result,
		RemainingSearches: user.FreeSearchesRemaining - 1,
	}, nil
}

func completedMessage(result *models.SearchResult, query string, remaining int) string {
	if !result.Success {
		return "❌ An error occurred while processing your search. Please try again."
	}
	if result.ResultsFound {
		return fmt.Sprintf("✅ Search complete!\n\nFound %d result(s) for: %s\nSearch type: %s\n\n📊 Remaining searches: %d",
			result.Count, query, result.SearchType, remaining)
	}
	return fmt.Sprintf("❌ No results found for: %s\n\nSearch type: %s\n📊 Remaining searches: %d",
		query, result.SearchType, remaining)
}
