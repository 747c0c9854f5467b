package journal

import (
	"fmt"
	"strings"

	"github.com/cbroglie/mustache"
	"github.com/neilberkman/daybook/internal/core/dates"
)

// DefaultSessionTemplate renders one session block. The bullet sections
// arrive preformatted; custom templates can use the *_items lists instead.
const DefaultSessionTemplate = `## Session {{number}} - {{{time}}} - {{{topic}}}

**What we worked on:**
{{{worked_on}}}{{{learning}}}{{{notes}}}`

// DefaultHeaderTemplate opens a new day's file.
const DefaultHeaderTemplate = "# Journal Entry - {{date}}\n"

// Separator goes between the previous session and the next one.
const Separator = "\n---\n\n"

// Renderer turns entries into Markdown.
type Renderer struct {
	session *mustache.Template
	header  *mustache.Template
}

// NewRenderer compiles the session template; empty means the default.
func NewRenderer(sessionTemplate string) (*Renderer, error) {
	if strings.TrimSpace(sessionTemplate) == "" {
		sessionTemplate = DefaultSessionTemplate
	}
	session, err := mustache.ParseString(sessionTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session template: %w", err)
	}
	header, err := mustache.ParseString(DefaultHeaderTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header template: %w", err)
	}
	return &Renderer{session: session, header: header}, nil
}

// Header renders the top-level header of a day's file.
func (r *Renderer) Header(date dates.Key) (string, error) {
	return r.header.Render(map[string]interface{}{"date": string(date)})
}

// Session renders entry as session number n. The rendered block must carry
// exactly one session header with that number, otherwise numbering of later
// appends would drift.
func (r *Renderer) Session(n int, entry Entry) (string, error) {
	entry = entry.Normalized()

	var learning, notes strings.Builder
	if len(entry.Learning) > 0 {
		learning.WriteString("\n**Key learning:**\n")
		learning.WriteString(bullets(entry.Learning))
	}
	noteItems := make([]map[string]interface{}, 0, len(entry.Notes))
	for i, note := range entry.Notes {
		if i == 0 {
			notes.WriteString("\n")
		}
		text := indentContinuation(note.Text)
		fmt.Fprintf(&notes, "**%s:** %s\n", note.Kind.Label(), text)
		noteItems = append(noteItems, map[string]interface{}{
			"kind":  string(note.Kind),
			"label": note.Kind.Label(),
			"text":  text,
		})
	}

	data := map[string]interface{}{
		"number":          n,
		"time":            entry.Time,
		"topic":           entry.Topic,
		"worked_on":       bullets(entry.WorkedOn),
		"learning":        learning.String(),
		"notes":           notes.String(),
		"worked_on_items": indentAll(entry.WorkedOn),
		"learning_items":  indentAll(entry.Learning),
		"note_items":      noteItems,
	}

	out, err := r.session.Render(data)
	if err != nil {
		return "", fmt.Errorf("failed to render session: %w", err)
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}

	headers := parseHeaders(out)
	if len(headers) != 1 || headers[0].Number != n {
		return "", invalidf("session template must produce exactly one %q header", fmt.Sprintf("## Session %d", n))
	}
	return out, nil
}

// indentContinuation keeps multi-line values inside their bullet, so a
// line in user text can never be mistaken for a session header.
func indentContinuation(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\n  ")
}

func bullets(items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(indentContinuation(item))
		b.WriteString("\n")
	}
	return b.String()
}

func indentAll(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = indentContinuation(item)
	}
	return out
}
