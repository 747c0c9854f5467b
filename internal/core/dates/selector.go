package dates

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Selector picks journal days. The zero value matches every day.
//
// Accepted forms:
//   - "" or "*"                every day
//   - "2025-01-*", "2025-0?-1?" glob over the key
//   - "2025-01-01..2025-01-31" inclusive range, either side optional
//   - "yesterday", "2025-01-02" a single day
type Selector struct {
	raw   string
	glob  string
	from  Key
	to    Key
	exact Key
}

// All matches every day.
var All = Selector{}

// ParseSelector parses a date pattern relative to now.
func ParseSelector(s string, now time.Time) (Selector, error) {
	s = strings.TrimSpace(s)
	sel := Selector{raw: s}

	switch {
	case s == "" || s == "*":
		return All, nil

	case strings.Contains(s, ".."):
		parts := strings.SplitN(s, "..", 2)
		if from := strings.TrimSpace(parts[0]); from != "" {
			k, err := Resolve(from, now)
			if err != nil {
				return Selector{}, fmt.Errorf("range start: %w", err)
			}
			sel.from = k
		}
		if to := strings.TrimSpace(parts[1]); to != "" {
			k, err := Resolve(to, now)
			if err != nil {
				return Selector{}, fmt.Errorf("range end: %w", err)
			}
			sel.to = k
		}
		if sel.from != "" && sel.to != "" && sel.from > sel.to {
			return Selector{}, fmt.Errorf("range %q ends before it starts", s)
		}
		return sel, nil

	case strings.ContainsAny(s, "*?["):
		if _, err := filepath.Match(s, ""); err != nil {
			return Selector{}, fmt.Errorf("bad date pattern %q: %w", s, err)
		}
		sel.glob = s
		return sel, nil
	}

	k, err := Resolve(s, now)
	if err != nil {
		return Selector{}, err
	}
	sel.exact = k
	return sel, nil
}

// Day selects exactly one key.
func Day(k Key) Selector {
	return Selector{raw: string(k), exact: k}
}

// Match reports whether k is selected.
func (s Selector) Match(k Key) bool {
	if s.exact != "" {
		return k == s.exact
	}
	if s.glob != "" {
		ok, _ := filepath.Match(s.glob, string(k))
		return ok
	}
	// Keys compare lexicographically in date order.
	if s.from != "" && k < s.from {
		return false
	}
	if s.to != "" && k > s.to {
		return false
	}
	return true
}

// Bounds returns the inclusive range the selector covers; empty strings
// mean unbounded. Globs report no bounds.
func (s Selector) Bounds() (from, to Key) {
	if s.exact != "" {
		return s.exact, s.exact
	}
	return s.from, s.to
}

func (s Selector) String() string {
	if s.raw == "" {
		return "*"
	}
	return s.raw
}
