package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/neilberkman/daybook/internal/core/dates"
	"github.com/neilberkman/daybook/internal/core/db"
	"github.com/neilberkman/daybook/internal/core/journal"
)

// Indexer mirrors journal files into the search index
type Indexer struct {
	db    *db.DB
	store *journal.Store
}

// Result summarizes one Sync
type Result struct {
	Scanned int
	Indexed int
	Skipped int
	Removed int
}

// New creates a new indexer
func New(database *db.DB, store *journal.Store) *Indexer {
	return &Indexer{db: database, store: store}
}

// Sync indexes every journal file whose content changed since the last
// sync and drops index rows for files that no longer exist.
func (i *Indexer) Sync(progress ProgressCallback) (Result, error) {
	var res Result
	seen := map[string]bool{}

	for ref, err := range i.store.Entries(dates.All) {
		if err != nil {
			return res, err
		}
		res.Scanned++
		seen[string(ref.Date)] = true

		indexed, err := i.IndexDay(ref)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to index %s: %v\n", ref.Path, err)
			continue
		}
		if indexed {
			res.Indexed++
		} else {
			res.Skipped++
		}

		if progress != nil {
			progress.Update(string(ref.Date), indexed)
		}
	}

	removed, err := i.db.PruneDays(seen)
	if err != nil {
		return res, fmt.Errorf("failed to prune index: %w", err)
	}
	res.Removed = removed

	if progress != nil {
		progress.Finish()
	}
	return res, nil
}

// IndexDay re-indexes one file unless its hash is unchanged. It reports
// whether the index was written.
func (i *Indexer) IndexDay(ref journal.EntryRef) (bool, error) {
	content, err := os.ReadFile(ref.Path)
	if err != nil {
		return false, fmt.Errorf("failed to read file: %w", err)
	}
	hash := computeHash(content)

	existing, ok, err := i.db.DayHash(string(ref.Date))
	if err != nil {
		return false, fmt.Errorf("failed to check index: %w", err)
	}
	if ok && existing == hash {
		return false, nil
	}

	day := journal.ParseDay(ref.Date, string(content))
	sessions := make([]db.SessionRecord, 0, len(day.Sessions))
	for _, s := range day.Sessions {
		sessions = append(sessions, db.SessionRecord{
			Date:      string(ref.Date),
			Number:    s.Number,
			TimeLabel: s.Time,
			Topic:     s.Topic,
			Body:      sessionBody(s),
		})
	}

	err = i.db.ReplaceDay(db.DayRecord{
		Date:      string(ref.Date),
		Path:      ref.Path,
		FileHash:  hash,
		FileSize:  int64(len(content)),
		FileMtime: ref.ModTime,
	}, dedupe(sessions))
	if err != nil {
		return false, err
	}
	return true, nil
}

// sessionBody drops the header line; topic and time have their own columns.
func sessionBody(s journal.Session) string {
	_, body, found := strings.Cut(s.Text, "\n")
	if !found {
		return ""
	}
	return strings.TrimSpace(body)
}

// dedupe keeps the first block for each session number. Hand-edited files
// can repeat a number, which the index's unique key would reject.
func dedupe(sessions []db.SessionRecord) []db.SessionRecord {
	seen := map[int]bool{}
	out := sessions[:0]
	for _, s := range sessions {
		if seen[s.Number] {
			continue
		}
		seen[s.Number] = true
		out = append(out, s)
	}
	return out
}

func computeHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
