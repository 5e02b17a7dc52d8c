// Package cli provides output helpers for the osintrat command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/osintrat/internal/models"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputCompact prints one record per line.
	OutputCompact SearchOutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// ParseOutputFormat maps a flag value to a SearchOutputFormat.
func ParseOutputFormat(s string) (SearchOutputFormat, error) {
	switch SearchOutputFormat(s) {
	case OutputText, OutputCompact, OutputJSON:
		return SearchOutputFormat(s), nil
	}
	return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
}

// WriteSearchResults writes a search result to w in the given format.
// Unknown formats are written as text.
func WriteSearchResults(w io.Writer, result *models.SearchResult, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case OutputCompact:
		writeSearchResultsCompact(w, result)
		return nil
	default:
		writeSearchResultsText(w, result)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, result *models.SearchResult) {
	if !result.Success {
		fmt.Fprintf(w, "\nSearch failed for %q (%s): %s\n", result.Query, result.SearchType, result.Error)
		return
	}
	fmt.Fprintf(w, "\nFound %d results for %q (%s) in %dms\n\n",
		result.Count, result.Query, result.SearchType, result.QueryTime)
	for i, rec := range result.Records {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Result #%d\n", i+1)
		for _, f := range rec.Fields() {
			v := models.Stringify(f.Value)
			if v == "" {
				continue
			}
			fmt.Fprintf(w, "%-15s %s\n", f.Label+":", Truncate(v, 200))
		}
		fmt.Fprintln(w)
	}
}

func writeSearchResultsCompact(w io.Writer, result *models.SearchResult) {
	if !result.Success {
		fmt.Fprintf(w, "error\t%s\n", result.Error)
		return
	}
	for _, rec := range result.Records {
		parts := make([]string, 0, 8)
		for _, f := range rec.Fields() {
			v := models.Stringify(f.Value)
			if v == "" {
				continue
			}
			parts = append(parts, f.Label+": "+v)
		}
		fmt.Fprintln(w, Truncate(strings.Join(parts, " | "), 300))
	}
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
