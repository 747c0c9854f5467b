package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "esc":
		m.mode = listView
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.searchResults = nil
		m.searchSelectedIdx = 0
		m.err = nil
		return m, nil

	case "enter":
		// Open selected day
		if m.searchSelectedIdx < len(m.searchResults) {
			return m, loadDay(m.store, m.searchResults[m.searchSelectedIdx].Ref.Date)
		}
		return m, nil

	case "ctrl+t":
		m.caseSensitive = !m.caseSensitive
		return m, performSearch(m.store, m.searchInput.Value(), m.caseSensitive)

	// Navigation: Use Ctrl+j or arrow keys (allow j/k to be typed in search)
	case "ctrl+j", "down":
		if m.searchSelectedIdx < len(m.searchResults)-1 {
			m.searchSelectedIdx++
		}
		return m, nil

	case "up":
		if m.searchSelectedIdx > 0 {
			m.searchSelectedIdx--
		}
		return m, nil
	}

	// Update text input (all other keys including j/k/q go here)
	m.searchInput, cmd = m.searchInput.Update(msg)

	// Perform live search on every keystroke
	m.searchSelectedIdx = 0
	return m, tea.Batch(cmd, performSearch(m.store, m.searchInput.Value(), m.caseSensitive))
}

func (m Model) viewSearch() string {
	var b strings.Builder

	// Header with search input - ALWAYS at top
	b.WriteString(searchHeaderStyle.Render("Search: "))
	b.WriteString(m.searchInput.View())
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", max(20, min(m.width, 80))))
	b.WriteString("\n\n")

	filters := ParseSearchQuery(m.searchInput.Value(), time.Now())

	switch {
	case m.searchResults == nil:
		b.WriteString(searchMetaStyle.Render("Type to search (minimum 2 characters)"))
	case len(m.searchResults) == 0:
		b.WriteString(searchMetaStyle.Render("No results found"))
	default:
		b.WriteString(searchMetaStyle.Render(fmt.Sprintf("Found %d %s in %s:",
			len(m.searchResults), plural(len(m.searchResults), "day", "days"), filters.Dates)))
		b.WriteString("\n\n")

		// Each result takes up to 5 lines (header + 3 matches + spacing)
		const linesPerResult = 5
		maxVisible := max(2, (m.height-8)/linesPerResult)
		start := 0
		if m.searchSelectedIdx >= maxVisible {
			start = m.searchSelectedIdx - maxVisible + 1
		}
		end := min(len(m.searchResults), start+maxVisible)

		for i := start; i < end; i++ {
			result := m.searchResults[i]

			prefix := "  "
			title := string(result.Ref.Date)
			if i == m.searchSelectedIdx {
				prefix = "► "
				title = searchSelectedStyle.Render(title)
			} else {
				title = searchMatchStyle.Render(title)
			}
			count := fmt.Sprintf("(%d %s)", len(result.Lines), plural(len(result.Lines), "match", "matches"))
			b.WriteString(fmt.Sprintf("%s%s %s\n", prefix, title, searchMetaStyle.Render(count)))

			// Show up to 3 matching lines
			for j, line := range result.Lines {
				if j == 3 {
					b.WriteString(searchMetaStyle.Render(fmt.Sprintf("    ... %d more\n", len(result.Lines)-3)))
					break
				}
				text := truncate(strings.TrimSpace(line.Text), max(20, m.width-12))
				b.WriteString(fmt.Sprintf("    %s %s\n",
					searchMetaStyle.Render(fmt.Sprintf("%4d:", line.Line)),
					highlightLine(text, filters.Query, false, m.caseSensitive)))
			}
			b.WriteString("\n")
		}

		if start > 0 {
			b.WriteString(searchMetaStyle.Render(fmt.Sprintf("... %d results above\n", start)))
		}
		if end < len(m.searchResults) {
			b.WriteString(searchMetaStyle.Render(fmt.Sprintf("... %d results below\n", len(m.searchResults)-end)))
		}
	}

	// Footer with comprehensive help
	mode := "case-insensitive"
	if m.caseSensitive {
		mode = "case-sensitive"
	}
	b.WriteString("\n\n")
	b.WriteString("Ctrl+j or ↑↓: navigate | Enter: open | Ctrl+t: " + mode + " | esc: back")
	b.WriteString("\n")
	b.WriteString(searchMetaStyle.Render("Filters: date:2025-01-* | after:last-monday | before:2025-02-01"))

	return b.String()
}
