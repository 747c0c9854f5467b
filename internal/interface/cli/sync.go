package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/neilberkman/daybook/internal/core/daemon"
	"github.com/neilberkman/daybook/internal/core/dates"
	"github.com/neilberkman/daybook/internal/core/indexer"
	"github.com/neilberkman/daybook/internal/core/journal"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Update the full-text search index",
	Long: `Index the journal directory into the SQLite search index.

Performs incremental sync - only days whose file content changed are
re-indexed, and days whose file was removed are dropped.

With --watch, keeps running and re-indexes whenever a journal file changes.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

var syncWatch bool

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVarP(&syncWatch, "watch", "w", false, "Keep watching the journal and re-index on change")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, store, err := openStore()
	if err != nil {
		return err
	}

	fmt.Printf("Syncing journal from: %s\n", store.Dir())
	fmt.Printf("Database: %s\n\n", cfg.DBPath)

	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	if syncWatch {
		return watchJournal(cmd.Context(), indexer.New(database, store), store)
	}

	// Count files for progress
	refs, err := store.List(dates.All)
	if err != nil {
		return fmt.Errorf("failed to scan journal: %w", err)
	}

	var progress indexer.ProgressCallback
	if len(refs) > 0 {
		progress = indexer.NewProgressReporter(os.Stdout, len(refs))
	}

	res, err := indexer.New(database, store).Sync(progress)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if res.Scanned == 0 {
		fmt.Println("No journal files found")
	}
	if res.Removed > 0 {
		fmt.Printf("Removed %d day(s) no longer on disk\n", res.Removed)
	}
	return nil
}

func watchJournal(ctx context.Context, idx *indexer.Indexer, store *journal.Store) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := daemon.New(idx, store, daemon.DefaultDebounce, nil)
	if err != nil {
		return err
	}
	fmt.Println("Watching for changes (Ctrl+C to stop)")
	if err := w.Run(ctx, nil); err != nil {
		return err
	}

	stats := w.GetStats()
	fmt.Printf("Ran %d sync(s), indexed %d day(s), %d error(s)\n", stats.Syncs, stats.DaysIndexed, stats.Errors)
	return nil
}
