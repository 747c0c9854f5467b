package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/neilberkman/daybook/internal/core/draft"
)

func createDraftPreview(d *draft.Draft, width, height int) viewport.Model {
	vp := viewport.New(max(10, width-4), height)
	if d != nil {
		vp.SetContent(styleLines(strings.Split(d.Preview, "\n")))
	}
	return vp
}

func (m Model) selectedDraft() *draft.Draft {
	if m.draftSelectedIdx < 0 || m.draftSelectedIdx >= len(m.drafts) {
		return nil
	}
	return &m.drafts[m.draftSelectedIdx]
}

func (m Model) updateDrafts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = listView
		return m, nil

	case "left", "h", "shift+tab":
		if m.draftSelectedIdx > 0 {
			m.draftSelectedIdx--
			m.draftPreview = createDraftPreview(m.selectedDraft(), m.width, previewHeight(m.height))
		}
		return m, nil

	case "right", "l", "tab":
		if m.draftSelectedIdx < len(m.drafts)-1 {
			m.draftSelectedIdx++
			m.draftPreview = createDraftPreview(m.selectedDraft(), m.width, previewHeight(m.height))
		}
		return m, nil

	case "a", "y":
		// Approve: the only path from the screen to the journal
		if d := m.selectedDraft(); d != nil {
			m.err = nil
			return m, commitDraft(m.gate, d.ID)
		}
		return m, nil

	case "x":
		if d := m.selectedDraft(); d != nil {
			m.err = nil
			return m, rejectDraft(m.gate, d.ID)
		}
		return m, nil

	case "c":
		if d := m.selectedDraft(); d != nil {
			return m, copyText(d.Preview, "draft")
		}
		return m, nil

	case "r":
		return m, loadDrafts(m.gate)
	}

	var cmd tea.Cmd
	m.draftPreview, cmd = m.draftPreview.Update(msg)
	return m, cmd
}

func (m Model) viewDrafts() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Pending drafts"))
	b.WriteString("\n\n")

	d := m.selectedDraft()
	if d == nil {
		b.WriteString(searchMetaStyle.Render("Nothing waiting for approval."))
		b.WriteString("\n\n")
		if m.status != "" {
			b.WriteString(m.status + "\n")
		}
		b.WriteString("r: reload | esc: back | q: quit")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("%s %s\n",
		searchSelectedStyle.Render(fmt.Sprintf("[%d/%d]", m.draftSelectedIdx+1, len(m.drafts))),
		searchMetaStyle.Render(fmt.Sprintf("%s | %s | session %d | proposed %s",
			shortID(d.ID), d.Date, d.ProjectedSession, humanize.Time(d.CreatedAt)))))

	b.WriteString(previewBorderStyle.Render(m.draftPreview.View()))
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(m.status + "\n")
	}
	b.WriteString("a: approve | x: reject | c: copy | ←/→: prev/next | j/k: scroll | esc: back")
	return b.String()
}
