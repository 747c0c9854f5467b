package journal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/neilberkman/daybook/internal/core/dates"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "journal"), Options{})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store
}

func sampleEntry(topic string) Entry {
	return Entry{
		Time:     "14:30",
		Topic:    topic,
		WorkedOn: []string{"Worked on " + topic},
		Learning: []string{"Learned about " + topic},
	}
}

func TestAppendSession_NewFile(t *testing.T) {
	store := newTestStore(t)

	entry := Entry{
		Time:     "16:45",
		Topic:    "Question Bank Complete",
		WorkedOn: []string{"Completed 97 questions"},
		Learning: []string{"Feature complete = infra + data"},
	}

	result, err := store.AppendSession(context.Background(), "2025-11-21", entry)
	if err != nil {
		t.Fatalf("AppendSession() error = %v", err)
	}
	if result.Session != 1 {
		t.Errorf("Session = %d, want 1", result.Session)
	}
	if !result.Created {
		t.Error("Created = false, want true for a new file")
	}
	if result.BytesBefore != 0 {
		t.Errorf("BytesBefore = %d, want 0", result.BytesBefore)
	}

	data, err := os.ReadFile(filepath.Join(store.Dir(), "2025-11-21.md"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	content := string(data)

	if !strings.HasPrefix(content, "# Journal Entry - 2025-11-21\n") {
		t.Errorf("missing date header, got:\n%s", content)
	}
	if got := CountSessions(content); got != 1 {
		t.Errorf("CountSessions() = %d, want 1", got)
	}
	for _, want := range []string{
		"## Session 1 - 16:45 - Question Bank Complete",
		"Completed 97 questions",
		"Feature complete = infra + data",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("content missing %q:\n%s", want, content)
		}
	}
	if strings.Contains(content, "---") {
		t.Errorf("first session should not be preceded by a separator:\n%s", content)
	}
}

func TestAppendSession_ExactLayout(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := Entry{Time: "09:00", Topic: "Setup", WorkedOn: []string{"Repo scaffold"}}
	second := Entry{
		Time:     "13:00",
		Topic:    "Parser",
		WorkedOn: []string{"Header parsing", "Tests"},
		Learning: []string{"Regex anchors need (?m)"},
		Notes:    []Note{{Kind: NoteGotcha, Text: "CRLF files"}},
	}

	if _, err := store.AppendSession(ctx, "2025-01-01", first); err != nil {
		t.Fatalf("AppendSession(first) error = %v", err)
	}
	if _, err := store.AppendSession(ctx, "2025-01-01", second); err != nil {
		t.Fatalf("AppendSession(second) error = %v", err)
	}

	want := `# Journal Entry - 2025-01-01

## Session 1 - 09:00 - Setup

**What we worked on:**
- Repo scaffold

---

## Session 2 - 13:00 - Parser

**What we worked on:**
- Header parsing
- Tests

**Key learning:**
- Regex anchors need (?m)

**Gotcha:** CRLF files
`
	data, err := os.ReadFile(store.Path("2025-01-01"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != want {
		t.Errorf("file content mismatch\ngot:\n%s\nwant:\n%s", data, want)
	}
}

func TestAppendSession_SequentialPreservesPrefix(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	const n = 6

	var previous []byte
	for i := 1; i <= n; i++ {
		result, err := store.AppendSession(ctx, "2025-03-04", sampleEntry(fmt.Sprintf("topic %d", i)))
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if result.Session != i {
			t.Errorf("append %d got session %d", i, result.Session)
		}

		current, err := os.ReadFile(result.Path)
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if len(current) < len(previous) {
			t.Fatalf("file shrank from %d to %d bytes", len(previous), len(current))
		}
		if !strings.HasPrefix(string(current), string(previous)) {
			t.Fatalf("append %d rewrote existing content", i)
		}
		if result.BytesBefore != int64(len(previous)) || result.BytesAfter != int64(len(current)) {
			t.Errorf("append %d reported %d->%d bytes, file went %d->%d",
				i, result.BytesBefore, result.BytesAfter, len(previous), len(current))
		}
		previous = current
	}

	day, err := store.Read("2025-03-04")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(day.Sessions) != n {
		t.Fatalf("got %d sessions, want %d", len(day.Sessions), n)
	}
	for i, s := range day.Sessions {
		if s.Number != i+1 {
			t.Errorf("session %d numbered %d", i, s.Number)
		}
		if want := fmt.Sprintf("topic %d", i+1); s.Topic != want {
			t.Errorf("session %d topic = %q, want %q", i+1, s.Topic, want)
		}
	}
}

func TestAppendSession_ExistingFileWithoutTrailingNewline(t *testing.T) {
	store := newTestStore(t)
	if err := os.MkdirAll(store.Dir(), 0o755); err != nil {
		t.Fatal(err)
	}
	original := "# Journal Entry - 2025-02-02\n\n## Session 1 - 10:00 - Handwritten\n\nnotes typed by hand"
	if err := os.WriteFile(store.Path("2025-02-02"), []byte(original), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := store.AppendSession(context.Background(), "2025-02-02", sampleEntry("Follow-up"))
	if err != nil {
		t.Fatalf("AppendSession() error = %v", err)
	}
	if result.Session != 2 {
		t.Errorf("Session = %d, want 2", result.Session)
	}
	if result.Created {
		t.Error("Created = true for an existing file")
	}

	data, _ := os.ReadFile(result.Path)
	if !strings.HasPrefix(string(data), original) {
		t.Fatal("existing content was not preserved byte-for-byte")
	}
	if !strings.Contains(string(data), "notes typed by hand\n\n---\n\n## Session 2 - 14:30 - Follow-up") {
		t.Errorf("separator not placed after last session:\n%s", data)
	}
}

func TestAppendSession_Concurrent(t *testing.T) {
	store, err := NewStore(t.TempDir(), Options{LockTimeout: 20 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	const writers = 12

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.AppendSession(context.Background(), "2025-06-01", sampleEntry(fmt.Sprintf("writer %d", i)))
			if err != nil {
				t.Errorf("writer %d: %v", i, err)
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	day, err := store.Read("2025-06-01")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(day.Sessions) != succeeded {
		t.Fatalf("file has %d sessions, %d appends succeeded", len(day.Sessions), succeeded)
	}
	seen := map[string]bool{}
	for i, s := range day.Sessions {
		if s.Number != i+1 {
			t.Errorf("sessions not contiguous: position %d numbered %d", i+1, s.Number)
		}
		seen[s.Topic] = true
	}
	if len(seen) != succeeded {
		t.Errorf("got %d distinct topics, want %d", len(seen), succeeded)
	}
}

func TestAppendSession_LockTimeout(t *testing.T) {
	store, err := NewStore(t.TempDir(), Options{
		LockTimeout: 100 * time.Millisecond,
		LockRetry:   10 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Simulate another process holding a fresh lock.
	lockPath := lockPathFor(store.Path("2025-06-02"))
	if err := os.WriteFile(lockPath, []byte(`{"pid":1,"created_at":"`+time.Now().UTC().Format(time.RFC3339Nano)+`"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err = store.AppendSession(context.Background(), "2025-06-02", sampleEntry("blocked"))
	if !errors.Is(err, ErrWriteConflict) {
		t.Fatalf("error = %v, want ErrWriteConflict", err)
	}
	var lockErr LockTimeoutError
	if !errors.As(err, &lockErr) {
		t.Errorf("error %T should be a LockTimeoutError", err)
	}
	if _, statErr := os.Stat(store.Path("2025-06-02")); !os.IsNotExist(statErr) {
		t.Error("journal file must not be written when the lock times out")
	}
}

func TestAppendSession_StaleLockRecovered(t *testing.T) {
	store, err := NewStore(t.TempDir(), Options{LockStaleAfter: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	lockPath := lockPathFor(store.Path("2025-06-03"))
	old := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339Nano)
	if err := os.WriteFile(lockPath, []byte(`{"pid":1,"created_at":"`+old+`"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := store.AppendSession(context.Background(), "2025-06-03", sampleEntry("after crash")); err != nil {
		t.Fatalf("AppendSession() error = %v", err)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Error("lock file should be released after append")
	}
}

func TestAppendSession_CancelledContext(t *testing.T) {
	store := newTestStore(t)
	if err := os.MkdirAll(store.Dir(), 0o755); err != nil {
		t.Fatal(err)
	}
	lockPath := lockPathFor(store.Path("2025-06-04"))
	if err := os.WriteFile(lockPath, []byte(`{"created_at":"`+time.Now().UTC().Format(time.RFC3339Nano)+`"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.AppendSession(ctx, "2025-06-04", sampleEntry("cancelled"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestAppendSession_InvalidInput(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		name  string
		date  dates.Key
		entry Entry
	}{
		{name: "bad date", date: "2025-13-01", entry: sampleEntry("x")},
		{name: "path in date", date: "../escape", entry: sampleEntry("x")},
		{name: "missing topic", date: "2025-01-01", entry: Entry{Time: "10:00", WorkedOn: []string{"a"}}},
		{name: "multi-line topic", date: "2025-01-01", entry: Entry{Time: "10:00", Topic: "a\nb", WorkedOn: []string{"a"}}},
		{name: "missing time", date: "2025-01-01", entry: Entry{Topic: "t", WorkedOn: []string{"a"}}},
		{name: "blank worked-on", date: "2025-01-01", entry: Entry{Time: "10:00", Topic: "t", WorkedOn: []string{"  "}}},
		{name: "unknown note", date: "2025-01-01", entry: Entry{Time: "10:00", Topic: "t", WorkedOn: []string{"a"}, Notes: []Note{{Kind: "rant", Text: "x"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.AppendSession(context.Background(), tt.date, tt.entry)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("error = %v, want ErrInvalidInput", err)
			}
		})
	}

	if refs, _ := store.List(dates.All); len(refs) != 0 {
		t.Errorf("invalid appends created %d files", len(refs))
	}
}

func TestAppendSession_DirectoryNotCreatable(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := NewStore(filepath.Join(blocker, "journal"), Options{})
	if err != nil {
		t.Fatal(err)
	}

	_, err = store.AppendSession(context.Background(), "2025-01-01", sampleEntry("x"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestAppendSession_MultiLineBulletCannotForgeHeader(t *testing.T) {
	store := newTestStore(t)
	entry := Entry{
		Time:     "10:00",
		Topic:    "Sneaky",
		WorkedOn: []string{"first line\n## Session 99 - forged"},
	}
	if _, err := store.AppendSession(context.Background(), "2025-01-05", entry); err != nil {
		t.Fatal(err)
	}
	result, err := store.AppendSession(context.Background(), "2025-01-05", sampleEntry("next"))
	if err != nil {
		t.Fatal(err)
	}
	if result.Session != 2 {
		t.Errorf("Session = %d, want 2", result.Session)
	}
}

func TestWriteFileAtomic_PrecommitAbort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "2025-01-01.md")
	if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := writeFileAtomic(path, []byte("replacement"), 0o644, func() error {
		return ErrWriteConflict
	})
	if !errors.Is(err, ErrWriteConflict) {
		t.Fatalf("error = %v, want ErrWriteConflict", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "original" {
		t.Errorf("file = %q, want untouched", data)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp file left behind: %d entries", len(entries))
	}
}

func TestAppendSession_DirSyncFailureAfterRename(t *testing.T) {
	store := newTestStore(t)
	orig := syncDir
	syncDir = func(string) error { return errors.New("EIO") }
	t.Cleanup(func() { syncDir = orig })

	result, err := store.AppendSession(context.Background(), "2025-06-05", sampleEntry("synced late"))
	if err != nil {
		t.Fatalf("AppendSession() error = %v, want success once the file is replaced", err)
	}
	if result.Session != 1 {
		t.Errorf("Session = %d, want 1", result.Session)
	}
	day, err := store.Read("2025-06-05")
	if err != nil || len(day.Sessions) != 1 {
		t.Fatalf("Read() = %+v, %v", day.Sessions, err)
	}
}

func TestEntries(t *testing.T) {
	t.Run("MissingDirectory", func(t *testing.T) {
		store := newTestStore(t)
		refs, err := store.List(dates.All)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(refs) != 0 {
			t.Errorf("got %d refs, want 0", len(refs))
		}
	})

	t.Run("EmptyDirectory", func(t *testing.T) {
		store, _ := NewStore(t.TempDir(), Options{})
		refs, err := store.List(dates.All)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(refs) != 0 {
			t.Errorf("got %d refs, want 0", len(refs))
		}
	})

	t.Run("FiltersAndOrders", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"2025-01-02.md", "2025-01-01.md", "notes.md", "2025-01-03.txt", ".2025-01-01.md.lock"} {
			if err := os.WriteFile(filepath.Join(dir, name), []byte("# x\n"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
		if err := os.Mkdir(filepath.Join(dir, "2025-01-04.md"), 0o755); err != nil {
			t.Fatal(err)
		}
		store, _ := NewStore(dir, Options{})

		refs, err := store.List(dates.All)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(refs) != 2 {
			t.Fatalf("got %d refs, want 2: %+v", len(refs), refs)
		}
		if refs[0].Date != "2025-01-01" || refs[1].Date != "2025-01-02" {
			t.Errorf("got %s, %s; want chronological order", refs[0].Date, refs[1].Date)
		}

		sel, _ := dates.ParseSelector("2025-01-02", time.Now())
		refs, _ = store.List(sel)
		if len(refs) != 1 || refs[0].Date != "2025-01-02" {
			t.Errorf("selector returned %+v", refs)
		}
	})

	t.Run("Restartable", func(t *testing.T) {
		store := newTestStore(t)
		seq := store.Entries(dates.All)

		count := func() int {
			n := 0
			for _, err := range seq {
				if err != nil {
					t.Fatal(err)
				}
				n++
			}
			return n
		}

		if got := count(); got != 0 {
			t.Fatalf("first pass = %d, want 0", got)
		}
		if _, err := store.AppendSession(context.Background(), "2025-05-05", sampleEntry("x")); err != nil {
			t.Fatal(err)
		}
		if got := count(); got != 1 {
			t.Errorf("second pass = %d, want 1 (sequence must re-read the directory)", got)
		}
	})

	t.Run("EarlyBreak", func(t *testing.T) {
		store := newTestStore(t)
		for _, d := range []dates.Key{"2025-01-01", "2025-01-02", "2025-01-03"} {
			if _, err := store.AppendSession(context.Background(), d, sampleEntry("x")); err != nil {
				t.Fatal(err)
			}
		}
		n := 0
		for range store.Entries(dates.All) {
			n++
			break
		}
		if n != 1 {
			t.Errorf("n = %d, want 1", n)
		}
	})
}

func TestSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.AppendSession(ctx, "2025-01-01", Entry{
		Time: "10:00", Topic: "Testing discipline", WorkedOn: []string{"Wrote failing test first, TDD style"},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.AppendSession(ctx, "2025-01-02", Entry{
		Time: "11:00", Topic: "Refactor", WorkedOn: []string{"Renamed packages"},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.AppendSession(ctx, "2025-02-01", Entry{
		Time: "12:00", Topic: "More tdd", WorkedOn: []string{"red green refactor"},
	}); err != nil {
		t.Fatal(err)
	}

	t.Run("CaseSensitive", func(t *testing.T) {
		matches, err := store.Search("TDD", dates.All, SearchOptions{CaseSensitive: true})
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(matches) != 1 || matches[0].Ref.Date != "2025-01-01" {
			t.Fatalf("got %+v, want only 2025-01-01", refsOf(matches))
		}
		if len(matches[0].Lines) != 1 || !strings.Contains(matches[0].Lines[0].Text, "TDD") {
			t.Errorf("Lines = %+v", matches[0].Lines)
		}
		if !strings.Contains(matches[0].Content, "# Journal Entry - 2025-01-01") {
			t.Error("match should carry the full file content")
		}
	})

	t.Run("CaseInsensitiveDefault", func(t *testing.T) {
		matches, err := store.Search("TDD", dates.All, SearchOptions{})
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(matches) != 2 {
			t.Fatalf("got %v, want 2 matches", refsOf(matches))
		}
		for _, m := range matches {
			if m.Ref.Date == "2025-01-02" {
				t.Error("unrelated file should be excluded")
			}
		}
	})

	t.Run("WithSelector", func(t *testing.T) {
		sel, err := dates.ParseSelector("2025-02-*", time.Now())
		if err != nil {
			t.Fatal(err)
		}
		matches, err := store.Search("tdd", sel, SearchOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if len(matches) != 1 || matches[0].Ref.Date != "2025-02-01" {
			t.Errorf("got %v, want only 2025-02-01", refsOf(matches))
		}
	})

	t.Run("EmptyKeyword", func(t *testing.T) {
		if _, err := store.Search("  ", dates.All, SearchOptions{}); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("NoMatches", func(t *testing.T) {
		matches, err := store.Search("kubernetes", dates.All, SearchOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if len(matches) != 0 {
			t.Errorf("got %d matches, want 0", len(matches))
		}
	})
}

func TestRead_NotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Read("2025-01-01"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if _, err := store.Read("nope"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func refsOf(matches []Match) []dates.Key {
	var out []dates.Key
	for _, m := range matches {
		out = append(out, m.Ref.Date)
	}
	return out
}
