package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/neilberkman/daybook/internal/core/dates"
	"github.com/neilberkman/daybook/internal/core/draft"
	"github.com/neilberkman/daybook/internal/core/journal"
)

type errMsg struct {
	err error
}

type daysLoadedMsg struct {
	days []dayItem
}

type dayLoadedMsg struct {
	day journal.Day
}

type searchResultsMsg struct {
	query   string
	results []journal.Match
}

type draftsLoadedMsg struct {
	drafts []draft.Draft
}

type draftCommittedMsg struct {
	result journal.AppendResult
}

type draftRejectedMsg struct {
	id string
}

type copiedMsg struct {
	message string
}

// loadDays lists every journal day, newest first
func loadDays(store *journal.Store) tea.Cmd {
	return func() tea.Msg {
		refs, err := store.List(dates.All)
		if err != nil {
			return errMsg{err}
		}

		days := make([]dayItem, 0, len(refs))
		for i := len(refs) - 1; i >= 0; i-- {
			item := dayItem{Ref: refs[i]}
			if day, err := store.Read(refs[i].Date); err == nil {
				item.Sessions = len(day.Sessions)
				for _, s := range day.Sessions {
					item.Topics = append(item.Topics, s.Topic)
				}
			}
			days = append(days, item)
		}
		return daysLoadedMsg{days: days}
	}
}

func loadDay(store *journal.Store, date dates.Key) tea.Cmd {
	return func() tea.Msg {
		day, err := store.Read(date)
		if err != nil {
			return errMsg{err}
		}
		return dayLoadedMsg{day: day}
	}
}

func performSearch(store *journal.Store, query string, caseSensitive bool) tea.Cmd {
	return func() tea.Msg {
		filters := ParseSearchQuery(query, time.Now())

		// Minimum 2 characters to search (avoid useless single-char results)
		if len(filters.Query) < 2 {
			return searchResultsMsg{query: query}
		}
		if filters.Err != nil {
			return errMsg{filters.Err}
		}

		matches, err := store.Search(filters.Query, filters.Dates, journal.SearchOptions{CaseSensitive: caseSensitive})
		if err != nil {
			return errMsg{err}
		}

		// Newest day first, like the day list
		for i, j := 0, len(matches)-1; i < j; i, j = i+1, j-1 {
			matches[i], matches[j] = matches[j], matches[i]
		}
		if matches == nil {
			matches = []journal.Match{}
		}
		return searchResultsMsg{query: query, results: matches}
	}
}

func loadDrafts(gate *draft.Gate) tea.Cmd {
	return func() tea.Msg {
		drafts, err := gate.List()
		if err != nil {
			return errMsg{err}
		}
		return draftsLoadedMsg{drafts: drafts}
	}
}

func commitDraft(gate *draft.Gate, id string) tea.Cmd {
	return func() tea.Msg {
		res, err := gate.Commit(context.Background(), id)
		if err != nil {
			return errMsg{err}
		}
		return draftCommittedMsg{result: res}
	}
}

func rejectDraft(gate *draft.Gate, id string) tea.Cmd {
	return func() tea.Msg {
		if err := gate.Reject(id); err != nil {
			return errMsg{err}
		}
		return draftRejectedMsg{id: id}
	}
}

// copyText puts text on the system clipboard
func copyText(text, what string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return errMsg{fmt.Errorf("clipboard unavailable: %w", err)}
		}
		return copiedMsg{message: "Copied " + what + " to clipboard"}
	}
}

func formatCommitted(res journal.AppendResult) string {
	return fmt.Sprintf("Committed session %d to %s", res.Session, res.Date)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
