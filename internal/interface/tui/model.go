package tui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/neilberkman/daybook/internal/core/draft"
	"github.com/neilberkman/daybook/internal/core/journal"
)

type viewMode int

const (
	listView viewMode = iota
	detailView
	searchView
	draftsView
	helpView
)

type Model struct {
	store    *journal.Store
	gate     *draft.Gate
	mode     viewMode
	prevMode viewMode
	list     list.Model
	viewport viewport.Model
	width    int
	height   int
	err      error
	status   string

	days       []dayItem
	currentDay *journal.Day

	// In-day search
	inDaySearch     textinput.Model
	inDaySearching  bool
	matchLines      []int
	currentMatchIdx int

	// Journal-wide search
	searchInput       textinput.Model
	searchResults     []journal.Match
	searchSelectedIdx int
	caseSensitive     bool

	// Approval screen
	drafts           []draft.Draft
	draftSelectedIdx int
	draftPreview     viewport.Model
}

type dayItem struct {
	Ref      journal.EntryRef
	Sessions int
	Topics   []string
}

// Options configures the TUI
type Options struct {
	// StartInDrafts opens the approval screen first
	StartInDrafts bool
	CaseSensitive bool
}

func New(store *journal.Store, opts Options) Model {
	si := textinput.New()
	si.Placeholder = "keyword  (filters: date:2025-01-* after:monday before:2025-02-01)"
	si.CharLimit = 200

	di := textinput.New()
	di.Placeholder = "find in this day"
	di.CharLimit = 200

	mode := listView
	if opts.StartInDrafts {
		mode = draftsView
	}

	return Model{
		store:         store,
		gate:          draft.NewGate(store),
		mode:          mode,
		list:          createDayList(nil, 0, 0),
		searchInput:   si,
		inDaySearch:   di,
		caseSensitive: opts.CaseSensitive,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(loadDays(m.store), loadDrafts(m.gate))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, listHeight(msg.Height))
		m.viewport.Width = msg.Width
		m.viewport.Height = detailHeight(msg.Height)
		m.draftPreview.Width = msg.Width
		m.draftPreview.Height = previewHeight(msg.Height)
		return m, nil

	case tea.KeyMsg:
		// Text inputs own every key except ctrl+c
		typing := m.mode == searchView || (m.mode == detailView && m.inDaySearching)

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if typing {
				break
			}
			if m.mode == listView {
				return m, tea.Quit
			}
			// In other views, go back to list
			m.mode = listView
			m.status = ""
			return m, nil

		case "?":
			if typing {
				break
			}
			if m.mode == helpView {
				m.mode = m.prevMode
				return m, nil
			}
			m.prevMode = m.mode
			m.mode = helpView
			return m, nil
		}

		// Mode-specific key handling
		switch m.mode {
		case listView:
			return m.updateList(msg)
		case detailView:
			return m.updateDetail(msg)
		case searchView:
			return m.updateSearch(msg)
		case draftsView:
			return m.updateDrafts(msg)
		case helpView:
			return m.updateHelp(msg)
		}

	case daysLoadedMsg:
		m.days = msg.days
		m.list = createDayList(msg.days, m.width, listHeight(m.height))
		return m, nil

	case dayLoadedMsg:
		m.currentDay = &msg.day
		m.inDaySearch.SetValue("")
		m.matchLines = nil
		m.currentMatchIdx = 0
		m.viewport = createViewport(msg.day, m.width, detailHeight(m.height))
		m.mode = detailView
		return m, nil

	case searchResultsMsg:
		// Drop results for a query the user has since changed
		if msg.query != m.searchInput.Value() {
			return m, nil
		}
		m.searchResults = msg.results
		if m.searchSelectedIdx >= len(m.searchResults) {
			m.searchSelectedIdx = 0
		}
		m.err = nil
		return m, nil

	case draftsLoadedMsg:
		m.drafts = msg.drafts
		if m.draftSelectedIdx >= len(m.drafts) {
			m.draftSelectedIdx = max(0, len(m.drafts)-1)
		}
		m.draftPreview = createDraftPreview(m.selectedDraft(), m.width, previewHeight(m.height))
		return m, nil

	case draftCommittedMsg:
		m.status = statusStyle.Render(formatCommitted(msg.result))
		return m, tea.Batch(loadDrafts(m.gate), loadDays(m.store))

	case draftRejectedMsg:
		m.status = statusStyle.Render("Rejected draft " + shortID(msg.id))
		return m, loadDrafts(m.gate)

	case copiedMsg:
		m.status = statusStyle.Render(msg.message)
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	var body string
	switch m.mode {
	case listView:
		body = m.viewList()
	case detailView:
		body = m.viewDetail()
	case searchView:
		body = m.viewSearch()
	case draftsView:
		body = m.viewDrafts()
	case helpView:
		body = m.viewHelp()
	}

	if m.err != nil {
		body += "\n" + errorStyle.Render("Error: "+m.err.Error())
	}
	return body
}

// Reserve lines for footers
func listHeight(h int) int    { return max(1, h-2) }
func detailHeight(h int) int  { return max(1, h-4) }
func previewHeight(h int) int { return max(1, h-8) }
