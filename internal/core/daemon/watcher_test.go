package daemon

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/neilberkman/daybook/internal/core/db"
	"github.com/neilberkman/daybook/internal/core/indexer"
	"github.com/neilberkman/daybook/internal/core/journal"
)

func TestIsDayFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/j/2025-01-02.md", true},
		{"/j/.2025-01-02.md.lock", false},
		{"/j/.2025-01-02.md.tmp-123", false},
		{"/j/2025-13-02.md", false},
		{"/j/notes.md", false},
		{"/j/.drafts/abc.yaml", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := isDayFile(tt.path); got != tt.want {
				t.Errorf("isDayFile(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestWatcher_ReindexesOnAppend(t *testing.T) {
	store, err := journal.NewStore(filepath.Join(t.TempDir(), "journal"), journal.Options{})
	if err != nil {
		t.Fatal(err)
	}
	database, err := db.New(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = database.Close() }()

	w, err := New(indexer.New(database, store), store, 20*time.Millisecond, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan indexer.Result, 16)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(r indexer.Result) { results <- r })
	}()

	// Initial sync of the empty journal
	select {
	case <-results:
	case <-time.After(5 * time.Second):
		t.Fatal("no initial sync")
	}

	_, err = store.AppendSession(context.Background(), "2025-05-05", journal.Entry{
		Time: "11:00", Topic: "Watch", WorkedOn: []string{"Appended while watching"},
	})
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for indexed := false; !indexed; {
		select {
		case r := <-results:
			indexed = r.Indexed > 0
		case <-deadline:
			t.Fatal("append was not indexed")
		}
	}

	days, err := database.ListDays()
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 1 || days[0].Date != "2025-05-05" || days[0].SessionCount != 1 {
		t.Errorf("days = %+v", days)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
	if w.GetStats().Syncs < 2 {
		t.Errorf("Syncs = %d, want at least 2", w.GetStats().Syncs)
	}
}
