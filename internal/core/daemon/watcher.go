// Package daemon keeps the search index in step with the journal directory
// while it is being written to.
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/neilberkman/daybook/internal/core/dates"
	"github.com/neilberkman/daybook/internal/core/indexer"
	"github.com/neilberkman/daybook/internal/core/journal"
)

// DefaultDebounce batches the burst of events a single append produces
// (temp file create, rename, lock file removal).
const DefaultDebounce = 250 * time.Millisecond

// Watcher re-indexes the journal whenever a day file changes
type Watcher struct {
	indexer  *indexer.Indexer
	watcher  *fsnotify.Watcher
	dir      string
	debounce time.Duration
	stats    *Stats
	logger   *log.Logger
}

// Stats tracks watcher activity
type Stats struct {
	StartTime   time.Time
	Syncs       int
	DaysIndexed int
	LastSync    time.Time
	Errors      int
}

// New watches store's directory, creating it if needed
func New(idx *indexer.Indexer, store *journal.Store, debounce time.Duration, logger *log.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}

	if err := os.MkdirAll(store.Dir(), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create journal directory: %v", journal.ErrNotFound, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(store.Dir()); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", store.Dir(), err)
	}

	return &Watcher{
		indexer:  idx,
		watcher:  fw,
		dir:      store.Dir(),
		debounce: debounce,
		stats:    &Stats{StartTime: time.Now()},
		logger:   logger,
	}, nil
}

// Run syncs once, then again after every burst of day-file changes, until
// ctx is cancelled. onSync, if set, sees each result.
func (w *Watcher) Run(ctx context.Context, onSync func(indexer.Result)) error {
	defer func() { _ = w.watcher.Close() }()

	w.logger.Printf("Watching: %s", w.dir)
	w.sync(onSync)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			w.logger.Printf("Watcher shutting down")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed unexpectedly")
			}
			if !isDayFile(event.Name) {
				continue
			}
			if !pending {
				pending = true
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			w.logger.Printf("Watcher error: %v", err)
			w.stats.Errors++

		case <-timer.C:
			pending = false
			w.sync(onSync)
		}
	}
}

func (w *Watcher) sync(onSync func(indexer.Result)) {
	res, err := w.indexer.Sync(nil)
	if err != nil {
		w.logger.Printf("Sync failed: %v", err)
		w.stats.Errors++
		return
	}

	w.stats.Syncs++
	w.stats.DaysIndexed += res.Indexed
	w.stats.LastSync = time.Now()
	if res.Indexed > 0 || res.Removed > 0 {
		w.logger.Printf("Indexed %d day(s), removed %d", res.Indexed, res.Removed)
	}
	if onSync != nil {
		onSync(res)
	}
}

// GetStats returns current watcher statistics
func (w *Watcher) GetStats() Stats {
	return *w.stats
}

// isDayFile matches YYYY-MM-DD.md; temp, lock and draft files are ignored.
func isDayFile(path string) bool {
	base := filepath.Base(path)
	name, ok := strings.CutSuffix(base, journal.FileExt)
	if !ok {
		return false
	}
	_, err := dates.ParseKey(name)
	return err == nil
}
