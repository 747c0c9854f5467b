package dates

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/en"
)

// keyShape matches input that was meant as a key, valid or not.
var keyShape = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)

var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// KeyLayout is the layout of a journal date key.
const KeyLayout = "2006-01-02"

// Key identifies one calendar day's journal file, e.g. "2025-11-21".
type Key string

// ParseKey validates a strict YYYY-MM-DD key.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if len(s) != len(KeyLayout) {
		return "", fmt.Errorf("invalid date key %q: want YYYY-MM-DD", s)
	}
	t, err := time.Parse(KeyLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date key %q: %w", s, err)
	}
	// time.Parse accepts the same layout for every valid day, so round-trip
	// to reject things like "2025-1-01" that slipped past the length check.
	if t.Format(KeyLayout) != s {
		return "", fmt.Errorf("invalid date key %q: want YYYY-MM-DD", s)
	}
	return Key(s), nil
}

// FromTime returns the key for t's calendar day in t's location.
func FromTime(t time.Time) Key {
	return Key(t.Format(KeyLayout))
}

// Time returns midnight UTC of the key's day.
func (k Key) Time() time.Time {
	t, _ := time.Parse(KeyLayout, string(k))
	return t
}

func (k Key) String() string { return string(k) }

// Resolve turns user input into a key. Strict keys pass straight through;
// anything else goes through natural language parsing ("today",
// "yesterday", "last friday") relative to now. A bare weekday means the
// most recent one, today included.
func Resolve(s string, now time.Time) (Key, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty date")
	}
	if keyShape.MatchString(s) {
		return ParseKey(s)
	}

	if t := parseDate(newParser(), s, now); t != nil {
		return FromTime(*t), nil
	}
	return "", fmt.Errorf("could not understand date %q", s)
}

// Slash day/month rules are left out: "01/02/2025" has two readings.
func newParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	return w
}

// parseDate attempts to parse a date string using natural language parsing
func parseDate(w *when.Parser, dateStr string, now time.Time) *time.Time {
	lower := strings.ToLower(dateStr)
	switch lower {
	case "today", "now":
		return &now
	}

	result, err := w.Parse(dateStr, now)
	// The whole input has to be the date, not just some word in it.
	if err == nil && result != nil && result.Index == 0 && len(result.Text) == len(dateStr) {
		t := result.Time
		if weekdays[lower] && FromTime(t) > FromTime(now) {
			t = t.AddDate(0, 0, -7)
		}
		return &t
	}

	// Try standard formats
	formats := []string{
		"2006-01-02T15:04:05",
		time.RFC3339,
		"2006/01/02",
	}

	for _, format := range formats {
		if t, err := time.ParseInLocation(format, dateStr, now.Location()); err == nil {
			return &t
		}
	}

	return nil
}
