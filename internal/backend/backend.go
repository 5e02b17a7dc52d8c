// Package backend defines the search backend contract and its Meilisearch and Bleve implementations.
package backend

import (
	"context"
	"errors"
	"strings"
)

// MatchingStrategyAll requires every query term to match.
const MatchingStrategyAll = "all"

// StatusAvailable is the health status reported by a usable backend.
const StatusAvailable = "available"

// ErrIndexNotFound is returned when an operation names an index the backend does not have.
var ErrIndexNotFound = errors.New("index not found")

// Hit is a raw document returned by a backend search, keyed by field name.
type Hit map[string]interface{}

// SearchOptions optional parameters for an index search.
type SearchOptions struct {
	// Filter is an exact-match expression of the form `field = "value"`.
	Filter string
	// MatchingStrategy controls multi-term matching; MatchingStrategyAll requires every term.
	MatchingStrategy string
	Limit            int
}

// Health is the backend's self-reported status.
type Health struct {
	Status string `json:"status"`
}

// Backend is a hosted full-text search service holding named indexes.
type Backend interface {
	// ListIndexes returns the names of every index.
	ListIndexes(ctx context.Context) ([]string, error)
	// FilterableFields returns the fields usable in filter expressions on index.
	FilterableFields(ctx context.Context, index string) (map[string]struct{}, error)
	// Search runs query against index.
	Search(ctx context.Context, index, query string, opts SearchOptions) ([]Hit, error)
	// Health reports the backend status.
	Health(ctx context.Context) (*Health, error)
	// DocumentCount returns the number of documents in index.
	DocumentCount(ctx context.Context, index string) (int64, error)
}

// EqualityFilter builds the exact-match filter expression for field and value.
func EqualityFilter(field, value string) string {
	return field + ` = "` + escapeFilterValue(value) + `"`
}

// ParseEqualityFilter splits a filter built by EqualityFilter back into field and value.
func ParseEqualityFilter(filter string) (field, value string, ok bool) {
	const sep = ` = "`
	i := strings.Index(filter, sep)
	if i <= 0 {
		return "", "", false
	}
	rest := filter[i+len(sep):]
	if !strings.HasSuffix(rest, `"`) {
		return "", "", false
	}
	return filter[:i], unescapeFilterValue(rest[:len(rest)-1]), true
}

func escapeFilterValue(v string) string {
	out := make([]byte, 0, len(v))
	for i := 0; i < len(v); i++ {
		if v[i] == '"' || v[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, v[i])
	}
	return string(out)
}

func unescapeFilterValue(v string) string {
	out := make([]byte, 0, len(v))
	for i := 0; i < len(v); i++ {
		if v[i] == '\\' && i+1 < len(v) {
			i++
		}
		out = append(out, v[i])
	}
	return string(out)
}

// TotalDocuments sums DocumentCount over indexes, skipping indexes that fail.
func TotalDocuments(ctx context.Context, b Backend, indexes []string) int64 {
	var total int64
	for _, name := range indexes {
		n, err := b.DocumentCount(ctx, name)
		if err != nil {
			continue
		}
		total += n
	}
	return total
}
