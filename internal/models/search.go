// Package models defines core data structures for lookups, identity records, and the query queue.
package models

import (
	"fmt"
	"strings"
)

// SearchType is the kind of identifier a raw query was classified as.
type SearchType string

const (
	SearchTypeUsername  SearchType = "username"
	SearchTypeEmail     SearchType = "email"
	SearchTypeAccountID SearchType = "account_id"
	SearchTypePhone     SearchType = "phone"
	SearchTypeName      SearchType = "name"
)

// ParseSearchType returns the SearchType named by s. Empty input yields an empty type.
func ParseSearchType(s string) (SearchType, error) {
	switch t := SearchType(strings.ToLower(strings.TrimSpace(s))); t {
	case "", SearchTypeUsername, SearchTypeEmail, SearchTypeAccountID, SearchTypePhone, SearchTypeName:
		return t, nil
	default:
		return "", fmt.Errorf("unknown search type %q", s)
	}
}

// Field is the backend document field an exact lookup of this type matches against.
func (t SearchType) Field() string {
	return string(t)
}

// SearchRecord is one identity document matched by a lookup.
// Values are kept as decoded from the backend (strings, numbers, nil).
type SearchRecord struct {
	Name        interface{} `json:"Name"`
	Username    interface{} `json:"Username"`
	Email       interface{} `json:"Email"`
	Phone       interface{} `json:"Phone"`
	AccountID   interface{} `json:"Account ID"`
	Address     interface{} `json:"Address"`
	DateOfBirth interface{} `json:"Date of Birth"`
	Country     interface{} `json:"Country"`
	ExtraInfo   interface{} `json:"Extra Info"`
	Source      interface{} `json:"Source"`
}

// RecordField is a labelled value of a SearchRecord.
type RecordField struct {
	Label string
	Value interface{}
}

// Fields returns the record's values in display order.
func (r *SearchRecord) Fields() []RecordField {
	return []RecordField{
		{"Name", r.Name},
		{"Username", r.Username},
		{"Email", r.Email},
		{"Phone", r.Phone},
		{"Account ID", r.AccountID},
		{"Address", r.Address},
		{"Date of Birth", r.DateOfBirth},
		{"Country", r.Country},
		{"Extra Info", r.ExtraInfo},
		{"Source", r.Source},
	}
}

// IsEmpty reports whether every field of the record is empty.
func (r *SearchRecord) IsEmpty() bool {
	for _, f := range r.Fields() {
		if Stringify(f.Value) != "" {
			return false
		}
	}
	return true
}

// RecordFromHit maps a raw backend hit onto a SearchRecord.
func RecordFromHit(hit map[string]interface{}) *SearchRecord {
	return &SearchRecord{
		Name:        hit["full_name"],
		Username:    hit["username"],
		Email:       hit["email"],
		Phone:       hit["phone"],
		AccountID:   hit["account_id"],
		Address:     hit["address"],
		DateOfBirth: hit["DOB"],
		Country:     hit["country"],
		ExtraInfo:   hit["extra"],
		Source:      hit["source"],
	}
}

// Stringify renders a decoded JSON value the way it was written in the source document.
// Whole floats print without a fractional part so 123 and "123" compare equal.
func Stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// SearchResult is the aggregate outcome of one lookup.
type SearchResult struct {
	ID           string          `json:"id"`
	Query        string          `json:"query"`
	SearchType   SearchType      `json:"search_type"`
	Success      bool            `json:"success"`
	ResultsFound bool            `json:"results_found"`
	Count        int             `json:"count"`
	Records      []*SearchRecord `json:"data"`
	Error        string          `json:"error,omitempty"`
	QueryTime    int64           `json:"query_time_ms"`
}
