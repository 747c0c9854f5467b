package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/neilberkman/daybook/internal/core/dates"
)

type dayListItem struct {
	day dayItem
}

func (i dayListItem) FilterValue() string {
	return string(i.day.Ref.Date) + " " + strings.Join(i.day.Topics, " ")
}

func (i dayListItem) Title() string {
	title := i.day.Ref.Date.Time().Format("Mon Jan 2, 2006")
	if len(i.day.Topics) > 0 {
		title += " - " + strings.Join(i.day.Topics, ", ")
	}
	return title
}

func (i dayListItem) Description() string {
	return fmt.Sprintf("%s | %d %s | %s | Updated: %s",
		i.day.Ref.Date, i.day.Sessions, plural(i.day.Sessions, "session", "sessions"),
		humanize.Bytes(uint64(i.day.Ref.Size)), humanize.Time(i.day.Ref.ModTime))
}

// Custom delegate to highlight today's file
type dayDelegate struct {
	list.DefaultDelegate
	today dates.Key
}

func (d dayDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	s, ok := item.(dayListItem)
	if !ok {
		d.DefaultDelegate.Render(w, m, index, item)
		return
	}

	title := truncate(s.Title(), m.Width()-2)
	desc := s.Description()

	switch {
	case index == m.Index():
		title = selectedItemStyle.Render(title)
		desc = selectedItemStyle.Faint(true).Render(desc)
	case s.day.Ref.Date == d.today:
		title = todayItemStyle.Render(title)
		desc = itemStyle.Render(desc)
	default:
		title = itemStyle.Render(title)
		desc = itemStyle.Render(desc)
	}

	fmt.Fprintf(w, "%s\n%s", title, desc)
}

func createDayList(days []dayItem, width, height int) list.Model {
	items := make([]list.Item, len(days))
	for i, d := range days {
		items[i] = dayListItem{day: d}
	}

	delegate := dayDelegate{
		DefaultDelegate: list.NewDefaultDelegate(),
		today:           dates.FromTime(time.Now()),
	}

	l := list.New(items, delegate, width, height)
	l.Title = ""                 // No title
	l.SetShowStatusBar(false)    // No status bar
	l.SetShowHelp(false)         // No built-in help
	l.SetShowTitle(false)        // No title rendering
	l.SetFilteringEnabled(false) // Disable built-in filter (we have dedicated search with /)

	return l
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if selected, ok := m.list.SelectedItem().(dayListItem); ok {
			return m, loadDay(m.store, selected.day.Ref.Date)
		}
		return m, nil

	case "/":
		m.mode = searchView
		m.searchInput.Focus()
		return m, nil

	case "a", "D":
		m.mode = draftsView
		m.status = ""
		return m, loadDrafts(m.gate)

	case "r":
		m.status = ""
		return m, tea.Batch(loadDays(m.store), loadDrafts(m.gate))
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) viewList() string {
	helpText := "↑/k up • ↓/j down • enter open • / search • a drafts • r reload • q quit • ? more"
	if n := len(m.drafts); n > 0 {
		helpText = searchSelectedStyle.Render(fmt.Sprintf("%d pending %s • ", n, plural(n, "draft", "drafts"))) + helpText
	}
	if m.status != "" {
		helpText = m.status + "\n" + helpText
	}

	if len(m.days) == 0 {
		return titleStyle.Render("No journal entries yet") + "\n" +
			timestampStyle.Render(m.store.Dir()) + "\n\n" + helpText
	}

	return m.list.View() + "\n" + helpText
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func truncate(s string, width int) string {
	if width <= 3 || len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}
