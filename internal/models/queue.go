package models

import "time"

// QueuedQuery is a lookup deferred while the search backend was unavailable.
type QueuedQuery struct {
	ID          int64      `json:"id" db:"id"`
	UserID      int64      `json:"user_id" db:"user_telegram_id"`
	Query       string     `json:"query" db:"query"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	Processed   bool       `json:"processed" db:"processed"`
	ProcessedAt *time.Time `json:"processed_at,omitempty" db:"processed_at"`
}

// User is a requester known to the service.
type User struct {
	ID                    int64     `json:"id" db:"id"`
	TelegramID            int64     `json:"telegram_id" db:"telegram_id"`
	Username              string    `json:"username,omitempty" db:"username"`
	FirstName             string    `json:"first_name,omitempty" db:"first_name"`
	LastName              string    `json:"last_name,omitempty" db:"last_name"`
	FreeSearchesRemaining int       `json:"free_searches_remaining" db:"free_searches_remaining"`
	IsBlocked             bool      `json:"is_blocked" db:"is_blocked"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
	LastActivity          time.Time `json:"last_activity" db:"last_activity"`
}

// UserProfile is the caller-supplied identity used to register or refresh a User.
type UserProfile struct {
	TelegramID int64  `json:"user_id"`
	Username   string `json:"username,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
}

// SearchLog is an audit entry for one executed lookup.
type SearchLog struct {
	ID           int64      `json:"id" db:"id"`
	UserID       int64      `json:"user_id" db:"user_telegram_id"`
	Query        string     `json:"query" db:"query"`
	SearchType   SearchType `json:"search_type" db:"search_type"`
	ResultsFound bool       `json:"results_found" db:"results_found"`
	Success      bool       `json:"success" db:"success"`
	Timestamp    time.Time  `json:"timestamp" db:"timestamp"`
}
