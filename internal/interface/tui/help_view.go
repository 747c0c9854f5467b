package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key returns to where help was opened from
	m.mode = m.prevMode
	return m, nil
}

func (m Model) viewHelp() string {
	help := `
daybook - Help
══════════════

DAY LIST
────────
  ↑/↓, j/k     Navigate days
  Enter        Open the day's journal
  /            Search the journal
  a            Review pending drafts
  r            Reload from disk
  ?            Show this help
  q            Quit

DAY VIEW
────────
  /            Find in this day
  n/N          Next/previous match
  c            Copy the day to clipboard
  j/k          Scroll line by line
  g/G          Jump to top/bottom
  esc          Back to day list

SEARCH
──────
  Type         Enter keyword (live)
  Enter        Open selected day
  Ctrl+j, ↑↓   Navigate results
  Ctrl+t       Toggle case sensitivity
  date:PATTERN Restrict days (2025-01-*, yesterday, a..b)
  after:DATE   Days on or after DATE
  before:DATE  Days on or before DATE
  esc          Back to day list

DRAFTS
──────
  a            Approve: append the session to its day
  x            Reject: discard the draft
  c            Copy the rendered session
  ←/→          Previous/next draft
  esc          Back to day list

Press any key to return
`

	return helpStyle.Render(help)
}
