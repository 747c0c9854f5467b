package tui

import (
	"strings"
	"time"

	"github.com/neilberkman/daybook/internal/core/dates"
)

// SearchFilters represents parsed filters from a search query
type SearchFilters struct {
	Query string         // The actual search text
	Dates dates.Selector // Days to search
	Err   error          // Set when a filter could not be parsed
}

// ParseSearchQuery extracts filters from a search query string
// Supports:
//   - date:2025-01-*, date:yesterday, date:2025-01-01..2025-01-31
//   - after:last-monday, before:2025-02-01 - explicit range ends
func ParseSearchQuery(query string, now time.Time) SearchFilters {
	filters := SearchFilters{Dates: dates.All}

	var queryParts []string
	var pattern, after, before string

	for _, token := range strings.Fields(query) {
		// Check for filter prefixes
		switch {
		case strings.HasPrefix(token, "date:"):
			pattern = strings.TrimPrefix(token, "date:")
			continue
		case strings.HasPrefix(token, "after:"):
			after = unhyphenate(strings.TrimPrefix(token, "after:"))
			continue
		case strings.HasPrefix(token, "before:"):
			before = unhyphenate(strings.TrimPrefix(token, "before:"))
			continue
		}

		// Not a filter, add to query
		queryParts = append(queryParts, token)
	}
	filters.Query = strings.Join(queryParts, " ")

	if pattern == "" && (after != "" || before != "") {
		pattern = after + ".." + before
	}
	if pattern == "" {
		return filters
	}

	sel, err := dates.ParseSelector(unhyphenate(pattern), now)
	if err != nil {
		filters.Err = err
		return filters
	}
	filters.Dates = sel
	return filters
}

// unhyphenate turns "last-monday" into "last monday" for the date parser,
// leaving YYYY-MM-DD keys and globs alone.
func unhyphenate(s string) string {
	if s == "" || strings.ContainsAny(s, "0123456789*?[") {
		return s
	}
	return strings.ReplaceAll(s, "-", " ")
}
