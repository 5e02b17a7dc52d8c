package search

import (
	"strings"

	"github.com/hyperjump/osintrat/internal/models"
)

// minPhoneDigits is the digit count from which a free-form string is treated as a phone number.
const minPhoneDigits = 7

// maxAccountIDLen is the longest purely numeric string still treated as an account ID.
const maxAccountIDLen = 10

// Classify maps a raw user query to the kind of identifier it most likely is.
// Rules are evaluated in order and the first match wins; the result is always a valid type.
func Classify(raw string) models.SearchType {
	query := strings.ToLower(strings.TrimSpace(raw))

	if strings.HasPrefix(query, "@") {
		return models.SearchTypeUsername
	}
	if at := strings.LastIndex(query, "@"); at >= 0 && strings.Contains(query[at+1:], ".") {
		return models.SearchTypeEmail
	}
	if strings.HasPrefix(query, "id") && isDigits(query[2:]) {
		return models.SearchTypeAccountID
	}
	if isDigits(query) && len(query) <= maxAccountIDLen {
		return models.SearchTypeAccountID
	}
	if len(NormalizePhoneDigits(query)) >= minPhoneDigits {
		return models.SearchTypePhone
	}
	if strings.Contains(query, "_") && !isDigits(query) {
		return models.SearchTypeUsername
	}
	return models.SearchTypeName
}

// NormalizePhoneDigits strips every non-digit character.
func NormalizePhoneDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CleanQuery returns the value an exact lookup of type t compares against:
// the leading "@" is dropped for usernames and the "id" prefix for numeric account IDs.
func CleanQuery(query string, t models.SearchType) string {
	clean := strings.TrimSpace(query)
	lower := strings.ToLower(clean)
	switch t {
	case models.SearchTypeUsername:
		if strings.HasPrefix(lower, "@") {
			return lower[1:]
		}
	case models.SearchTypeAccountID:
		if strings.HasPrefix(lower, "id") && len(clean) > 2 && isDigits(clean[2:]) {
			return clean[2:]
		}
	}
	return clean
}

// NormalizeName lower-cases s and collapses runs of whitespace to single spaces.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ReverseWords returns the whitespace-separated words of s in reverse order.
func ReverseWords(s string) string {
	words := strings.Fields(s)
	for i, j := 0, len(words)-1; i < j; i, j = i+1, j-1 {
		words[i], words[j] = words[j], words[i]
	}
	return strings.Join(words, " ")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
