package cli

import (
	"fmt"
	"strings"

	"github.com/neilberkman/daybook/internal/core/journal"
	"github.com/neilberkman/daybook/internal/core/search"
	"github.com/spf13/cobra"
)

var (
	searchLimit         int
	searchDates         string
	searchCaseSensitive bool
	searchIndex         bool
)

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search journal entries",
	Long: `Search journal files for a keyword.

By default the journal files themselves are scanned, case-insensitively, and
every matching line is shown. With --index the SQLite full-text index is
queried instead (run 'daybook sync' first), which adds stemming and ranks
matches per session.

Examples:
  daybook search "stale lock"
  daybook search TDD --case-sensitive
  daybook search migration --dates 2025-01-*
  daybook search "flaky tests" --index`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVar(&searchLimit, "limit", 50, "Maximum number of results to show")
	searchCmd.Flags().StringVarP(&searchDates, "dates", "d", "", "Restrict to days matching a date, glob or range")
	searchCmd.Flags().BoolVar(&searchCaseSensitive, "case-sensitive", false, "Match case exactly (file search only)")
	searchCmd.Flags().BoolVar(&searchIndex, "index", false, "Query the full-text index instead of scanning files")
}

func runSearch(cmd *cobra.Command, args []string) error {
	// Join all args as query
	query := strings.Join(args, " ")

	cfg, store, err := openStore()
	if err != nil {
		return err
	}
	sel, err := selectorArg([]string{searchDates}, 0)
	if err != nil {
		return err
	}

	if searchIndex {
		database, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer func() {
			_ = database.Close()
		}()

		results, err := search.Search(database, query, sel, searchLimit)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if len(results) == 0 {
			fmt.Printf("No indexed sessions match: %s\n", query)
			return nil
		}
		fmt.Printf("Found %d session(s) for: %s\n\n", len(results), query)
		for _, r := range results {
			fmt.Printf("%s  Session %d - %s - %s\n", r.Date, r.SessionNumber, r.TimeLabel, r.Topic)
			fmt.Printf("    %s\n\n", truncateSummary(r.Snippet, 200))
		}
		return nil
	}

	opts := journal.SearchOptions{
		CaseSensitive: cfg.CaseSensitiveSearch || searchCaseSensitive,
	}
	matches, err := store.Search(query, sel, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(matches) == 0 {
		fmt.Printf("No results found for: %s\n", query)
		return nil
	}

	total := 0
	for _, m := range matches {
		total += len(m.Lines)
	}
	fmt.Printf("Found %d day(s) with %d matching line(s) for: %s\n\n", len(matches), total, query)

	shown := 0
	for _, m := range matches {
		fmt.Printf("=== %s ===\n", entryLine(m.Ref))
		for _, l := range m.Lines {
			if shown >= searchLimit {
				fmt.Printf("\n... and %d more lines (use --limit to see more)\n", total-shown)
				return nil
			}
			shown++
			fmt.Printf("  %4d: %s\n", l.Line, truncateSummary(l.Text, 200))
		}
		fmt.Println()
	}

	return nil
}
