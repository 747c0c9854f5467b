package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/neilberkman/daybook/internal/core/config"
	"github.com/neilberkman/daybook/internal/core/dates"
	"github.com/neilberkman/daybook/internal/core/db"
	"github.com/neilberkman/daybook/internal/core/draft"
	"github.com/neilberkman/daybook/internal/core/indexer"
	"github.com/neilberkman/daybook/internal/core/journal"
	"github.com/neilberkman/daybook/internal/core/search"
)

// ProposeEntryArgs defines arguments for the propose_entry tool
type ProposeEntryArgs struct {
	Date      string   `json:"date,omitempty" jsonschema:"description=Journal day (YYYY-MM-DD or natural language; default today)"`
	Time      string   `json:"time,omitempty" jsonschema:"description=Time label HH:MM (default: now)"`
	Topic     string   `json:"topic" jsonschema:"description=One-line session topic,required"`
	WorkedOn  []string `json:"worked_on" jsonschema:"description=What we worked on,required"`
	Learning  []string `json:"learning,omitempty" jsonschema:"description=Key learnings"`
	Decisions []string `json:"decisions,omitempty" jsonschema:"description=Decisions made"`
	Gotchas   []string `json:"gotchas,omitempty" jsonschema:"description=Gotchas hit"`
	Catches   []string `json:"catches,omitempty" jsonschema:"description=Catches: mistakes spotted before they landed"`
}

// DraftIDArgs identifies a draft for commit_entry and reject_entry
type DraftIDArgs struct {
	DraftID string `json:"draft_id" jsonschema:"description=Draft ID returned by propose_entry,required"`
}

// ListEntriesArgs defines arguments for the list_entries tool
type ListEntriesArgs struct {
	Dates string `json:"dates,omitempty" jsonschema:"description=Date, glob (2025-01-*) or range (a..b); default all"`
}

// SearchEntriesArgs defines arguments for the search_entries tool
type SearchEntriesArgs struct {
	Keyword       string `json:"keyword" jsonschema:"description=Text to look for,required"`
	Dates         string `json:"dates,omitempty" jsonschema:"description=Date, glob or range to search; default all"`
	CaseSensitive *bool  `json:"case_sensitive,omitempty" jsonschema:"description=Match case exactly (default from config)"`
	UseIndex      bool   `json:"use_index,omitempty" jsonschema:"description=Use the full-text index (stemmed, per-session snippets)"`
	Limit         int    `json:"limit,omitempty" jsonschema:"description=Max results (default: 20)"`
}

// ReadEntryArgs defines arguments for the read_entry tool
type ReadEntryArgs struct {
	Date    string `json:"date,omitempty" jsonschema:"description=Journal day (default today)"`
	Session int    `json:"session,omitempty" jsonschema:"description=Only return this session number"`
}

// EntrySummary represents a journal file in list output
type EntrySummary struct {
	Date     string `json:"date"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
}

// FileMatch is a journal file containing the keyword
type FileMatch struct {
	Date    string       `json:"date"`
	Path    string       `json:"path"`
	Lines   []LineResult `json:"lines"`
	Content string       `json:"content"`
}

// LineResult is one matching line
type LineResult struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

// Options configures the server
type Options struct {
	// NoCommit leaves commit_entry unregistered so drafts can only be
	// approved from the review screen or CLI.
	NoCommit bool
}

type service struct {
	cfg   *config.Config
	store *journal.Store
	gate  *draft.Gate
	db    *db.DB
	now   func() time.Time
}

// StartServer starts the MCP server on stdio
func StartServer(cfg *config.Config, opts Options) error {
	svc, err := newService(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := svc.db.Close(); closeErr != nil {
			log.Printf("Error closing database: %v", closeErr)
		}
	}()

	return server.ServeStdio(newServer(svc, opts))
}

func newService(cfg *config.Config) (*service, error) {
	store, err := cfg.OpenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}
	database, err := db.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &service{
		cfg:   cfg,
		store: store,
		gate:  draft.NewGate(store),
		db:    database,
		now:   time.Now,
	}, nil
}

func newServer(svc *service, opts Options) *server.MCPServer {
	s := server.NewMCPServer(
		"daybook",
		"1.0.0",
	)

	stringList := mcp.Items(map[string]any{"type": "string"})

	proposeTool := mcp.NewTool("propose_entry",
		mcp.WithDescription("Draft a journal session for the human to review. Nothing is written to the journal; the returned preview and draft_id must be shown to the human, and the draft is only appended after explicit approval."),
		mcp.WithString("date",
			mcp.Description("Journal day: YYYY-MM-DD or natural language like 'yesterday' (default: today)")),
		mcp.WithString("time",
			mcp.Description("Time label HH:MM (default: now)")),
		mcp.WithString("topic",
			mcp.Required(),
			mcp.Description("One-line session topic")),
		mcp.WithArray("worked_on",
			mcp.Required(),
			mcp.Description("What we worked on, one item per bullet"),
			stringList),
		mcp.WithArray("learning",
			mcp.Description("Key learnings, one item per bullet"),
			stringList),
		mcp.WithArray("decisions",
			mcp.Description("Decisions made"),
			stringList),
		mcp.WithArray("gotchas",
			mcp.Description("Gotchas hit"),
			stringList),
		mcp.WithArray("catches",
			mcp.Description("Mistakes caught before they landed"),
			stringList),
	)
	s.AddTool(proposeTool, svc.handlePropose)

	if !opts.NoCommit {
		commitTool := mcp.NewTool("commit_entry",
			mcp.WithDescription("Append an approved draft to its day's journal file. Only call this after the human has explicitly approved the exact preview returned by propose_entry."),
			mcp.WithString("draft_id",
				mcp.Required(),
				mcp.Description("Draft ID returned by propose_entry")),
		)
		s.AddTool(commitTool, svc.handleCommit)
	}

	rejectTool := mcp.NewTool("reject_entry",
		mcp.WithDescription("Discard a proposed draft"),
		mcp.WithString("draft_id",
			mcp.Required(),
			mcp.Description("Draft ID returned by propose_entry")),
	)
	s.AddTool(rejectTool, svc.handleReject)

	draftsTool := mcp.NewTool("list_drafts",
		mcp.WithDescription("List drafts waiting for approval, oldest first"),
	)
	s.AddTool(draftsTool, svc.handleListDrafts)

	listTool := mcp.NewTool("list_entries",
		mcp.WithDescription("List journal files, oldest first, optionally restricted to a date, glob or range"),
		mcp.WithString("dates",
			mcp.Description("Date, glob (e.g. '2025-01-*') or range ('2025-01-01..2025-01-31', 'last monday..today'); default all")),
	)
	s.AddTool(listTool, svc.handleListEntries)

	searchTool := mcp.NewTool("search_entries",
		mcp.WithDescription("Find journal files containing a keyword. Returns matching lines per day; summarize them for the human rather than pasting whole files."),
		mcp.WithString("keyword",
			mcp.Required(),
			mcp.Description("Text to look for")),
		mcp.WithString("dates",
			mcp.Description("Date, glob or range to search; default all")),
		mcp.WithBoolean("case_sensitive",
			mcp.Description("Match case exactly (default: case-insensitive unless configured otherwise)")),
		mcp.WithBoolean("use_index",
			mcp.Description("Use the stemmed full-text index and return per-session snippets")),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 20)")),
	)
	s.AddTool(searchTool, svc.handleSearchEntries)

	readTool := mcp.NewTool("read_entry",
		mcp.WithDescription("Read a day's journal file, or one session from it"),
		mcp.WithString("date",
			mcp.Description("Journal day: YYYY-MM-DD or natural language (default: today)")),
		mcp.WithNumber("session",
			mcp.Description("Only return this session number")),
	)
	s.AddTool(readTool, svc.handleReadEntry)

	return s
}

func bindArgs(request mcp.CallToolRequest, dst any) error {
	argsBytes, _ := json.Marshal(request.Params.Arguments)
	return json.Unmarshal(argsBytes, dst)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	resultJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(resultJSON)), nil
}

// toolError maps journal errors to a short category the caller can act on.
func toolError(action string, err error) *mcp.CallToolResult {
	kind := "error"
	switch {
	case errors.Is(err, journal.ErrInvalidInput):
		kind = "invalid input"
	case errors.Is(err, journal.ErrNotFound):
		kind = "not found"
	case errors.Is(err, journal.ErrWriteConflict):
		kind = "write conflict"
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s failed (%s): %v", action, kind, err))
}

func (svc *service) resolveDate(s string) (dates.Key, error) {
	if s == "" {
		return dates.FromTime(svc.now()), nil
	}
	k, err := dates.Resolve(s, svc.now())
	if err != nil {
		return "", fmt.Errorf("%w: %v", journal.ErrInvalidInput, err)
	}
	return k, nil
}

func (svc *service) selector(s string) (dates.Selector, error) {
	sel, err := dates.ParseSelector(s, svc.now())
	if err != nil {
		return dates.Selector{}, fmt.Errorf("%w: %v", journal.ErrInvalidInput, err)
	}
	return sel, nil
}

func (svc *service) handlePropose(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args ProposeEntryArgs
	if err := bindArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	date, err := svc.resolveDate(args.Date)
	if err != nil {
		return toolError("propose", err), nil
	}

	entry := journal.Entry{
		Time:     args.Time,
		Topic:    args.Topic,
		WorkedOn: args.WorkedOn,
		Learning: args.Learning,
	}
	for _, n := range []struct {
		kind  journal.NoteKind
		items []string
	}{
		{journal.NoteDecision, args.Decisions},
		{journal.NoteGotcha, args.Gotchas},
		{journal.NoteCatch, args.Catches},
	} {
		for _, text := range n.items {
			entry.Notes = append(entry.Notes, journal.Note{Kind: n.kind, Text: text})
		}
	}

	d, err := svc.gate.Propose(date, entry)
	if err != nil {
		return toolError("propose", err), nil
	}

	return jsonResult(map[string]any{
		"draft_id":          d.ID,
		"date":              d.Date,
		"projected_session": d.ProjectedSession,
		"preview":           d.Preview,
	})
}

func (svc *service) handleCommit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args DraftIDArgs
	if err := bindArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	res, err := svc.gate.Commit(ctx, args.DraftID)
	if err != nil {
		return toolError("commit", err), nil
	}

	return jsonResult(map[string]any{
		"date":         res.Date,
		"path":         res.Path,
		"session":      res.Session,
		"created":      res.Created,
		"bytes_before": res.BytesBefore,
		"bytes_after":  res.BytesAfter,
	})
}

func (svc *service) handleReject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args DraftIDArgs
	if err := bindArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if err := svc.gate.Reject(args.DraftID); err != nil {
		return toolError("reject", err), nil
	}
	return jsonResult(map[string]any{"rejected": args.DraftID})
}

func (svc *service) handleListDrafts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	drafts, err := svc.gate.List()
	if err != nil {
		return toolError("list drafts", err), nil
	}
	if drafts == nil {
		drafts = []draft.Draft{}
	}
	return jsonResult(map[string]any{"drafts": drafts})
}

func (svc *service) handleListEntries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args ListEntriesArgs
	if err := bindArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	sel, err := svc.selector(args.Dates)
	if err != nil {
		return toolError("list", err), nil
	}

	entries := []EntrySummary{}
	for ref, err := range svc.store.Entries(sel) {
		if err != nil {
			return toolError("list", err), nil
		}
		entries = append(entries, EntrySummary{
			Date:     string(ref.Date),
			Path:     ref.Path,
			Size:     ref.Size,
			Modified: ref.ModTime.Format(time.RFC3339),
		})
	}
	return jsonResult(map[string]any{"entries": entries})
}

func (svc *service) handleSearchEntries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args SearchEntriesArgs
	if err := bindArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	sel, err := svc.selector(args.Dates)
	if err != nil {
		return toolError("search", err), nil
	}

	// Set defaults (interface concern - pagination)
	limit := args.Limit
	if limit <= 0 {
		limit = 20
	}

	if args.UseIndex {
		// Sync the index before running query (fast incremental check)
		if _, err := indexer.New(svc.db, svc.store).Sync(nil); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("sync failed: %v", err)), nil
		}
		results, err := search.Search(svc.db, args.Keyword, sel, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		if results == nil {
			results = []search.SearchResult{}
		}
		return jsonResult(map[string]any{"sessions": results})
	}

	caseSensitive := svc.cfg.CaseSensitiveSearch
	if args.CaseSensitive != nil {
		caseSensitive = *args.CaseSensitive
	}
	matches, err := svc.store.Search(args.Keyword, sel, journal.SearchOptions{CaseSensitive: caseSensitive})
	if err != nil {
		return toolError("search", err), nil
	}

	results := []FileMatch{}
	for _, m := range matches {
		fm := FileMatch{Date: string(m.Ref.Date), Path: m.Ref.Path, Content: m.Content}
		for _, l := range m.Lines {
			fm.Lines = append(fm.Lines, LineResult{Line: l.Line, Text: l.Text})
		}
		results = append(results, fm)
		if len(results) >= limit {
			break
		}
	}
	return jsonResult(map[string]any{"days": results, "total_days": len(matches)})
}

func (svc *service) handleReadEntry(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args ReadEntryArgs
	if err := bindArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	date, err := svc.resolveDate(args.Date)
	if err != nil {
		return toolError("read", err), nil
	}

	day, err := svc.store.Read(date)
	if err != nil {
		return toolError("read", err), nil
	}

	if args.Session == 0 {
		return mcp.NewToolResultText(day.Content), nil
	}
	for _, s := range day.Sessions {
		if s.Number == args.Session {
			return mcp.NewToolResultText(s.Text), nil
		}
	}
	return toolError("read", fmt.Errorf("%w: %s has no session %d", journal.ErrNotFound, date, args.Session)), nil
}
