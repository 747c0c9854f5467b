package search

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/neilberkman/daybook/internal/core/dates"
	"github.com/neilberkman/daybook/internal/core/db"
)

// SearchResult is one indexed session matching a query
type SearchResult struct {
	Date          string
	SessionNumber int
	TimeLabel     string
	Topic         string
	Snippet       string
	Path          string
}

// DefaultLimit caps result sets when callers pass a non-positive limit
const DefaultLimit = 100

// Most recent day first, then latest session within the day
const defaultOrderBy = "s.date DESC, s.number DESC"

// FTS5 query syntax treats these as operators; queries containing them
// fall back to plain substring matching.
const specialChars = "-_@#$%&\"'():*^./\\+"

// likeEscaper makes LIKE wildcards in a query match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search runs a full-text query against the session index and returns
// matches from days the selector covers.
func Search(database *db.DB, query string, sel dates.Selector, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	where, args := dateFilter(sel)

	var rows *sql.Rows
	var err error
	like := strings.ContainsAny(query, specialChars)

	if like {
		pattern := likeEscaper.Replace(query)
		rows, err = database.Query(fmt.Sprintf(`
			SELECT s.date, s.number, s.time_label, s.topic, s.body, d.path
			FROM sessions s
			JOIN days d ON d.date = s.date
			WHERE (s.topic LIKE '%%' || ? || '%%' ESCAPE '\' OR s.body LIKE '%%' || ? || '%%' ESCAPE '\')%s
			ORDER BY %s
		`, where, defaultOrderBy), append([]any{pattern, pattern}, args...)...)
	} else {
		rows, err = database.Query(fmt.Sprintf(`
			SELECT s.date, s.number, s.time_label, s.topic,
				snippet(sessions_fts, -1, '', '', '...', 24) AS snippet,
				d.path
			FROM sessions_fts
			JOIN sessions s ON sessions_fts.rowid = s.id
			JOIN days d ON d.date = s.date
			WHERE sessions_fts MATCH ?%s
			ORDER BY %s
		`, where, defaultOrderBy), append([]any{query}, args...)...)
	}
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Date, &r.SessionNumber, &r.TimeLabel, &r.Topic, &r.Snippet, &r.Path); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		// Globs can't be pushed into SQL, so filter them here.
		if !sel.Match(dates.Key(r.Date)) {
			continue
		}
		if like {
			r.Snippet = snippetAround(r.Snippet, query, 80)
		}
		results = append(results, r)
		if len(results) == limit {
			break
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	return results, nil
}

func dateFilter(sel dates.Selector) (string, []any) {
	from, to := sel.Bounds()
	var clause strings.Builder
	var args []any
	if from != "" {
		clause.WriteString(" AND s.date >= ?")
		args = append(args, string(from))
	}
	if to != "" {
		clause.WriteString(" AND s.date <= ?")
		args = append(args, string(to))
	}
	return clause.String(), args
}

// snippetAround cuts a window of roughly width bytes centered on the first
// case-insensitive occurrence of needle.
func snippetAround(text, needle string, width int) string {
	text = strings.Join(strings.Fields(text), " ")
	idx := strings.Index(strings.ToLower(text), strings.ToLower(needle))
	if idx < 0 || len(text) <= width {
		if len(text) > width {
			return text[:width] + "..."
		}
		return text
	}

	start := idx - (width-len(needle))/2
	if start < 0 {
		start = 0
	}
	end := start + width
	if end > len(text) {
		end = len(text)
		start = max(0, end-width)
	}
	// Don't split multi-byte runes.
	for start > 0 && !isRuneStart(text[start]) {
		start--
	}
	for end < len(text) && !isRuneStart(text[end]) {
		end++
	}

	out := text[start:end]
	if start > 0 {
		out = "..." + out
	}
	if end < len(text) {
		out += "..."
	}
	return out
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
