// Package storage defines the persistence interface for users, search logs, and the query queue.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/osintrat/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines user, search log, and queued query persistence operations.
type Storage interface {
	// User operations
	GetOrCreateUser(ctx context.Context, profile models.UserProfile, freeSearches int) (*models.User, error)
	GetUser(ctx context.Context, telegramID int64) (*models.User, error)
	DecrementSearches(ctx context.Context, telegramID int64) (bool, error)

	// Search log
	LogSearch(ctx context.Context, entry *models.SearchLog) error

	// Queue operations
	EnqueueQuery(ctx context.Context, telegramID int64, query string) (*models.QueuedQuery, error)
	ListPendingQueries(ctx context.Context) ([]*models.QueuedQuery, error)
	MarkProcessed(ctx context.Context, id int64) (bool, error)

	// Stats
	CountUsers(ctx context.Context) (int64, error)
	CountSearches(ctx context.Context) (int64, error)

	Close() error
}
