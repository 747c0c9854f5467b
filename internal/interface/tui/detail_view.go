package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/neilberkman/daybook/internal/core/journal"
)

func createViewport(day journal.Day, width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.SetContent(renderDay(day, width))
	return vp
}

// renderDay styles a journal file for display. Wrapping happens before
// styling so line numbers used for search match the rendered lines.
func renderDay(day journal.Day, width int) string {
	return styleLines(wrapDay(day, width))
}

func wrapDay(day journal.Day, width int) []string {
	content := strings.TrimRight(day.Content, "\n")
	if width > 4 {
		content = wordwrap.String(content, width-2)
	}
	return strings.Split(content, "\n")
}

func styleLines(lines []string) string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = styleLine(line)
	}
	return strings.Join(out, "\n")
}

func styleLine(line string) string {
	switch {
	case strings.HasPrefix(line, "# "):
		return dateHeaderStyle.Render(line)
	case strings.HasPrefix(line, "## Session "):
		return sessionHeaderStyle.Render(line)
	case strings.TrimSpace(line) == "---":
		return separatorStyle.Render(line)
	case strings.HasPrefix(line, "**"):
		if end := strings.Index(line[2:], "**"); end >= 0 {
			label := line[:end+4]
			return noteLabelStyle.Render(label) + line[end+4:]
		}
	}
	return line
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.inDaySearching {
		return m.updateInDaySearch(msg)
	}

	switch msg.String() {
	case "esc":
		m.mode = listView
		return m, nil

	case "/":
		m.inDaySearching = true
		m.inDaySearch.Focus()
		return m, nil

	case "n":
		if len(m.matchLines) > 0 {
			m.currentMatchIdx = (m.currentMatchIdx + 1) % len(m.matchLines)
			m.refreshHighlights()
		}
		return m, nil

	case "N", "p":
		if len(m.matchLines) > 0 {
			m.currentMatchIdx = (m.currentMatchIdx - 1 + len(m.matchLines)) % len(m.matchLines)
			m.refreshHighlights()
		}
		return m, nil

	case "c":
		// Copy the whole day
		if m.currentDay != nil {
			return m, copyText(m.currentDay.Content, string(m.currentDay.Date))
		}
		return m, nil

	case "g":
		m.viewport.GotoTop()
		return m, nil

	case "G":
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateInDaySearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.inDaySearching = false
		m.inDaySearch.Blur()
		m.inDaySearch.SetValue("")
		m.matchLines = nil
		m.viewport.SetContent(renderDay(*m.currentDay, m.width))
		return m, nil

	case "enter":
		// Keep highlights, hand keys back to the viewport
		m.inDaySearching = false
		m.inDaySearch.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.inDaySearch, cmd = m.inDaySearch.Update(msg)
	m.currentMatchIdx = 0
	m.refreshHighlights()
	return m, cmd
}

// refreshHighlights re-renders the day with the in-day query highlighted
// and scrolls the current match into view.
func (m *Model) refreshHighlights() {
	if m.currentDay == nil {
		return
	}
	lines := wrapDay(*m.currentDay, m.width)
	query := m.inDaySearch.Value()
	m.matchLines = findMatches(lines, query, m.caseSensitive)

	current := -1
	if len(m.matchLines) > 0 {
		if m.currentMatchIdx >= len(m.matchLines) {
			m.currentMatchIdx = 0
		}
		current = m.matchLines[m.currentMatchIdx]
	}

	out := make([]string, len(lines))
	for i, line := range lines {
		if query != "" && containsFold(line, query, m.caseSensitive) {
			out[i] = highlightLine(line, query, i == current, m.caseSensitive)
		} else {
			out[i] = styleLine(line)
		}
	}
	m.viewport.SetContent(strings.Join(out, "\n"))

	if current >= 0 {
		// Keep a little context above the match
		m.viewport.SetYOffset(max(0, current-3))
	}
}

func findMatches(lines []string, query string, caseSensitive bool) []int {
	if query == "" {
		return nil
	}
	var matches []int
	for i, line := range lines {
		if containsFold(line, query, caseSensitive) {
			matches = append(matches, i)
		}
	}
	return matches
}

func containsFold(s, sub string, caseSensitive bool) bool {
	if caseSensitive {
		return strings.Contains(s, sub)
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// highlightLine highlights all occurrences of query in a single line
func highlightLine(text, query string, isCurrent, caseSensitive bool) string {
	if query == "" {
		return text
	}

	haystack, needle := text, query
	if !caseSensitive {
		haystack, needle = strings.ToLower(text), strings.ToLower(query)
	}
	// Lowercasing can change byte lengths outside ASCII; skip highlighting then.
	if len(haystack) != len(text) || len(needle) != len(query) {
		return text
	}

	var result strings.Builder
	lastIdx := 0
	matchCount := 0

	for {
		idx := strings.Index(haystack[lastIdx:], needle)
		if idx == -1 {
			// No more matches, append the rest
			result.WriteString(text[lastIdx:])
			break
		}
		idx += lastIdx

		result.WriteString(text[lastIdx:idx])

		// The current line's first match gets the strong style
		var style lipgloss.Style
		if isCurrent && matchCount == 0 {
			style = searchCurrentMatchStyle
		} else {
			style = searchMatchStyle
		}
		result.WriteString(style.Render(text[idx : idx+len(query)]))

		lastIdx = idx + len(query)
		matchCount++
	}

	return result.String()
}

func (m Model) viewDetail() string {
	if m.currentDay == nil {
		return "No day loaded"
	}

	content := m.viewport.View()

	if m.inDaySearching || m.inDaySearch.Value() != "" {
		searchBox := "\n" + m.inDaySearch.View()
		if len(m.matchLines) > 0 {
			searchBox += fmt.Sprintf(" [%d/%d matches]", m.currentMatchIdx+1, len(m.matchLines))
		} else if m.inDaySearch.Value() != "" {
			searchBox += " [no matches]"
		}
		if m.inDaySearching {
			searchBox += "\nEnter: navigate mode | esc: clear"
		} else {
			searchBox += "\nn/N: next/prev | /: edit search | esc: back"
		}
		return content + searchBox
	}

	footer := fmt.Sprintf("\n%s %3.f%%", timestampStyle.Render(m.currentDay.Path), m.viewport.ScrollPercent()*100)
	footer += "\nc: copy | /: search | j/k: scroll | g/G: top/bottom | esc: back | q: quit"
	if m.status != "" {
		footer += "\n" + m.status
	}
	return content + footer
}
