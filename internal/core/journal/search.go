package journal

import (
	"fmt"
	"os"
	"strings"

	"github.com/neilberkman/daybook/internal/core/dates"
)

// SearchOptions controls keyword matching.
type SearchOptions struct {
	// CaseSensitive switches from case-insensitive to exact substring
	// matching.
	CaseSensitive bool
}

// LineMatch is one matching line of a journal file (1-based).
type LineMatch struct {
	Line int
	Text string
}

// Match is a journal file whose content contains the keyword.
type Match struct {
	Ref     EntryRef
	Content string
	Lines   []LineMatch
}

// Search returns the files selected by sel whose content contains keyword,
// in date order, with the full content and the matching lines.
func (s *Store) Search(keyword string, sel dates.Selector, opts SearchOptions) ([]Match, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, invalidf("search keyword cannot be empty")
	}

	needle := keyword
	if !opts.CaseSensitive {
		needle = strings.ToLower(keyword)
	}
	contains := func(text string) bool {
		if opts.CaseSensitive {
			return strings.Contains(text, needle)
		}
		return strings.Contains(strings.ToLower(text), needle)
	}

	var matches []Match
	for ref, err := range s.Entries(sel) {
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(ref.Path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", ref.Path, err)
		}
		content := string(data)
		if !contains(content) {
			continue
		}

		m := Match{Ref: ref, Content: content}
		for i, line := range strings.Split(content, "\n") {
			if contains(line) {
				m.Lines = append(m.Lines, LineMatch{Line: i + 1, Text: line})
			}
		}
		matches = append(matches, m)
	}
	return matches, nil
}
