package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/osintrat/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		telegram_id INTEGER NOT NULL UNIQUE,
		username TEXT,
		first_name TEXT,
		last_name TEXT,
		free_searches_remaining INTEGER NOT NULL DEFAULT 0,
		is_blocked BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		last_activity TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS search_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_telegram_id INTEGER NOT NULL,
		query TEXT NOT NULL,
		search_type TEXT,
		results_found BOOLEAN NOT NULL DEFAULT 0,
		success BOOLEAN NOT NULL DEFAULT 1,
		timestamp TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_search_logs_user ON search_logs(user_telegram_id);

	CREATE TABLE IF NOT EXISTS queued_queries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_telegram_id INTEGER NOT NULL,
		query TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		processed BOOLEAN NOT NULL DEFAULT 0,
		processed_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_queued_queries_pending ON queued_queries(processed, id);
	`
	_, err := db.Exec(schema)
	return err
}

// GetOrCreateUser returns the user with profile's Telegram ID, refreshing its names and
// last activity. A new user starts with freeSearches searches.
func (s *SQLiteStorage) GetOrCreateUser(ctx context.Context, profile models.UserProfile, freeSearches int) (*models.User, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (telegram_id, username, first_name, last_name, free_searches_remaining, created_at, last_activity)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(telegram_id) DO UPDATE SET
		   username = excluded.username,
		   first_name = excluded.first_name,
		   last_name = excluded.last_name,
		   last_activity = excluded.last_activity`,
		profile.TelegramID, profile.Username, profile.FirstName, profile.LastName, freeSearches, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return s.GetUser(ctx, profile.TelegramID)
}

// GetUser returns a user by Telegram ID, or ErrNotFound.
func (s *SQLiteStorage) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	var (
		u                             models.User
		username, firstName, lastName sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, telegram_id, username, first_name, last_name, free_searches_remaining,
		        is_blocked, created_at, last_activity
		 FROM users WHERE telegram_id = ?`, telegramID,
	).Scan(&u.ID, &u.TelegramID, &username, &firstName, &lastName, &u.FreeSearchesRemaining,
		&u.IsBlocked, &u.CreatedAt, &u.LastActivity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", telegramID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	u.Username = username.String
	u.FirstName = firstName.String
	u.LastName = lastName.String
	return &u, nil
}

// DecrementSearches takes one search from the user's allowance.
// Returns false when the user does not exist or has none left.
func (s *SQLiteStorage) DecrementSearches(ctx context.Context, telegramID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET free_searches_remaining = free_searches_remaining - 1
		 WHERE telegram_id = ? AND free_searches_remaining > 0`, telegramID,
	)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n == 1, nil
}

// LogSearch appends an entry to the search log. A zero Timestamp is set to now.
func (s *SQLiteStorage) LogSearch(ctx context.Context, entry *models.SearchLog) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO search_logs (user_telegram_id, query, search_type, results_found, success, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.UserID, entry.Query, string(entry.SearchType), entry.ResultsFound, entry.Success, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to log search: %w", err)
	}
	entry.ID, _ = result.LastInsertId()
	return nil
}

// EnqueueQuery stores a pending query for the user.
func (s *SQLiteStorage) EnqueueQuery(ctx context.Context, telegramID int64, query string) (*models.QueuedQuery, error) {
	q := &models.QueuedQuery{
		UserID:    telegramID,
		Query:     query,
		CreatedAt: time.Now().UTC(),
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO queued_queries (user_telegram_id, query, created_at, processed) VALUES (?, ?, ?, 0)`,
		q.UserID, q.Query, q.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue query: %w", err)
	}
	q.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return q, nil
}

// ListPendingQueries returns unprocessed queries in insertion order.
func (s *SQLiteStorage) ListPendingQueries(ctx context.Context) ([]*models.QueuedQuery, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_telegram_id, query, created_at, processed
		 FROM queued_queries WHERE processed = 0 ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var queries []*models.QueuedQuery
	for rows.Next() {
		var q models.QueuedQuery
		if err := rows.Scan(&q.ID, &q.UserID, &q.Query, &q.CreatedAt, &q.Processed); err != nil {
			return nil, err
		}
		queries = append(queries, &q)
	}
	return queries, rows.Err()
}

// MarkProcessed flips a pending query to processed. Returns false if the query does not
// exist or was already processed.
func (s *SQLiteStorage) MarkProcessed(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE queued_queries SET processed = 1, processed_at = ? WHERE id = ? AND processed = 0`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n == 1, nil
}

// CountUsers returns the number of known users.
func (s *SQLiteStorage) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// CountSearches returns the number of logged searches.
func (s *SQLiteStorage) CountSearches(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM search_logs").Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
