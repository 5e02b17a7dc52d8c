package search

import (
	"sort"
	"strings"

	"github.com/hyperjump/osintrat/internal/models"
)

// FilterNames keeps the records whose normalized Name equals the normalized query
// or the query's words in reverse order.
func FilterNames(records []*models.SearchRecord, query string) []*models.SearchRecord {
	want := NormalizeName(query)
	reversed := ReverseWords(want)
	out := make([]*models.SearchRecord, 0, len(records))
	for _, r := range records {
		name := NormalizeName(models.Stringify(r.Name))
		if name == want || name == reversed {
			out = append(out, r)
		}
	}
	return out
}

// Rank moves exact matches to the front. The sort is stable, so input order is kept
// inside the exact and non-exact partitions.
func Rank(records []*models.SearchRecord, query string, t models.SearchType) {
	exact := make(map[*models.SearchRecord]bool, len(records))
	for _, r := range records {
		exact[r] = isExactMatch(r, query, t)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return exact[records[i]] && !exact[records[j]]
	})
}

func isExactMatch(r *models.SearchRecord, query string, t models.SearchType) bool {
	if t == models.SearchTypeName {
		return NormalizeName(models.Stringify(r.Name)) == NormalizeName(query)
	}
	clean := CleanQuery(query, t)
	if clean == "" {
		return false
	}
	for _, f := range r.Fields() {
		switch v := f.Value.(type) {
		case nil:
			continue
		case string:
			if strings.EqualFold(v, clean) {
				return true
			}
		default:
			if models.Stringify(v) == clean {
				return true
			}
		}
	}
	return false
}
