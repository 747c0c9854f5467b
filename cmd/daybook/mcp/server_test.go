package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/neilberkman/daybook/internal/core/config"
	"github.com/neilberkman/daybook/internal/core/dates"
)

func newTestService(t *testing.T) *service {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		JournalDir: filepath.Join(dir, "journal"),
		DBPath:     filepath.Join(dir, "index", "index.db"),
	}
	svc, err := newService(cfg)
	if err != nil {
		t.Fatalf("newService() error = %v", err)
	}
	t.Cleanup(func() { _ = svc.db.Close() })
	svc.now = func() time.Time { return time.Date(2025, 3, 14, 16, 45, 0, 0, time.UTC) }
	return svc
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if len(res.Content) == 0 {
		t.Fatal("empty result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T", res.Content[0])
	}
	return text.Text, res.IsError
}

func TestProposeCommitFlow(t *testing.T) {
	svc := newTestService(t)

	out, isErr := call(t, svc.handlePropose, map[string]any{
		"date":      "2025-03-14",
		"time":      "10:00",
		"topic":     "MCP flow",
		"worked_on": []any{"Wired the tools"},
		"gotchas":   []any{"stdout is the protocol channel"},
	})
	if isErr {
		t.Fatalf("propose failed: %s", out)
	}

	var proposed struct {
		DraftID          string `json:"draft_id"`
		ProjectedSession int    `json:"projected_session"`
		Preview          string `json:"preview"`
	}
	if err := json.Unmarshal([]byte(out), &proposed); err != nil {
		t.Fatal(err)
	}
	if proposed.ProjectedSession != 1 || !strings.Contains(proposed.Preview, "**Gotcha:** stdout is the protocol channel") {
		t.Errorf("proposal = %+v", proposed)
	}

	// Proposing must not create the journal file
	if _, err := os.Stat(svc.store.Path("2025-03-14")); !os.IsNotExist(err) {
		t.Fatalf("journal file exists before commit: %v", err)
	}

	out, isErr = call(t, svc.handleListDrafts, nil)
	if isErr || !strings.Contains(out, proposed.DraftID) {
		t.Errorf("list_drafts = %s", out)
	}

	out, isErr = call(t, svc.handleCommit, map[string]any{"draft_id": proposed.DraftID})
	if isErr {
		t.Fatalf("commit failed: %s", out)
	}
	if !strings.Contains(out, `"session":1`) {
		t.Errorf("commit result = %s", out)
	}

	out, isErr = call(t, svc.handleReadEntry, map[string]any{"date": "2025-03-14", "session": 1})
	if isErr || !strings.HasPrefix(out, "## Session 1 - 10:00 - MCP flow") {
		t.Errorf("read_entry = %s", out)
	}

	// Second commit of the same draft
	out, isErr = call(t, svc.handleCommit, map[string]any{"draft_id": proposed.DraftID})
	if !isErr || !strings.Contains(out, "not found") {
		t.Errorf("double commit = %s (isErr=%v)", out, isErr)
	}
}

func TestProposeInvalid(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing topic", map[string]any{"worked_on": []any{"x"}}},
		{"missing worked_on", map[string]any{"topic": "t"}},
		{"bad date", map[string]any{"date": "not a date at all", "topic": "t", "worked_on": []any{"x"}}},
		{"impossible day", map[string]any{"date": "2025-02-30", "topic": "t", "worked_on": []any{"x"}}},
		{"impossible month", map[string]any{"date": "2025-13-01", "topic": "t", "worked_on": []any{"x"}}},
		{"future day", map[string]any{"date": "2999-01-01", "topic": "t", "worked_on": []any{"x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, isErr := call(t, svc.handlePropose, tt.args)
			if !isErr || !strings.Contains(out, "invalid input") {
				t.Errorf("propose = %s (isErr=%v)", out, isErr)
			}
		})
	}

	drafts, err := svc.gate.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(drafts) != 0 {
		t.Errorf("rejected proposals left %d drafts", len(drafts))
	}
	if refs, _ := svc.store.List(dates.All); len(refs) != 0 {
		t.Errorf("rejected proposals created %v", refs)
	}
}

func TestListAndSearchEntries(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, d := range []struct{ date, topic, worked string }{
		{"2025-03-01", "Locks", "Added stale lock recovery"},
		{"2025-03-02", "Search", "Made search case-insensitive"},
		{"2025-04-01", "Release", "Shipped the lock fix"},
	} {
		out, isErr := call(t, svc.handlePropose, map[string]any{
			"date": d.date, "time": "09:00", "topic": d.topic, "worked_on": []any{d.worked},
		})
		if isErr {
			t.Fatal(out)
		}
		var p struct {
			DraftID string `json:"draft_id"`
		}
		_ = json.Unmarshal([]byte(out), &p)
		if _, err := svc.gate.Commit(ctx, p.DraftID); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("list glob", func(t *testing.T) {
		out, isErr := call(t, svc.handleListEntries, map[string]any{"dates": "2025-03-*"})
		if isErr {
			t.Fatal(out)
		}
		var res struct {
			Entries []EntrySummary `json:"entries"`
		}
		_ = json.Unmarshal([]byte(out), &res)
		if len(res.Entries) != 2 || res.Entries[0].Date != "2025-03-01" {
			t.Errorf("entries = %+v", res.Entries)
		}
	})

	t.Run("file search", func(t *testing.T) {
		out, isErr := call(t, svc.handleSearchEntries, map[string]any{"keyword": "LOCK"})
		if isErr {
			t.Fatal(out)
		}
		var res struct {
			Days []FileMatch `json:"days"`
		}
		_ = json.Unmarshal([]byte(out), &res)
		if len(res.Days) != 2 {
			t.Fatalf("days = %+v", res.Days)
		}
		if !strings.HasPrefix(res.Days[0].Content, "# Journal Entry - 2025-03-01") {
			t.Errorf("content = %q", res.Days[0].Content)
		}
	})

	t.Run("case sensitive", func(t *testing.T) {
		out, _ := call(t, svc.handleSearchEntries, map[string]any{"keyword": "LOCK", "case_sensitive": true})
		if !strings.Contains(out, `"total_days":0`) {
			t.Errorf("case-sensitive search = %s", out)
		}
	})

	t.Run("index search", func(t *testing.T) {
		out, isErr := call(t, svc.handleSearchEntries, map[string]any{"keyword": "shipping", "use_index": true})
		if isErr {
			t.Fatal(out)
		}
		if !strings.Contains(out, "2025-04-01") {
			t.Errorf("index search = %s", out)
		}
	})

	t.Run("bad selector", func(t *testing.T) {
		out, isErr := call(t, svc.handleListEntries, map[string]any{"dates": "2025-03-10..2025-03-01"})
		if !isErr || !strings.Contains(out, "invalid input") {
			t.Errorf("list = %s", out)
		}
	})
}

func TestReadEntry_NotFound(t *testing.T) {
	svc := newTestService(t)
	out, isErr := call(t, svc.handleReadEntry, map[string]any{"date": "2024-01-01"})
	if !isErr || !strings.Contains(out, "not found") {
		t.Errorf("read_entry = %s", out)
	}
}

func TestNoCommitOption(t *testing.T) {
	svc := newTestService(t)
	s := newServer(svc, Options{NoCommit: true})
	if tools := s.ListTools(); tools["commit_entry"] != nil {
		t.Error("commit_entry registered despite NoCommit")
	}
	if tools := newServer(svc, Options{}).ListTools(); tools["commit_entry"] == nil {
		t.Error("commit_entry missing")
	}
}
