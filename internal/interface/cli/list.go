package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/neilberkman/daybook/internal/core/journal"
	"github.com/spf13/cobra"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list [date-pattern]",
	Short: "List journal files",
	Long: `List journal files in chronological order.

The optional pattern selects days: a date, a glob, or a range.

Examples:
  daybook list
  daybook list 2025-01-*
  daybook list "last monday..today"
  daybook list yesterday`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Show only the most recent N days (0 = all)")
}

func runList(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}
	sel, err := selectorArg(args, 0)
	if err != nil {
		return err
	}

	refs, err := store.List(sel)
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}

	if len(refs) == 0 {
		fmt.Printf("No journal entries match %s in %s\n", sel, store.Dir())
		return nil
	}

	// Pagination keeps the newest days
	if listLimit > 0 && len(refs) > listLimit {
		refs = refs[len(refs)-listLimit:]
	}

	for _, ref := range refs {
		sessions := "?"
		if day, err := store.Read(ref.Date); err == nil {
			sessions = fmt.Sprintf("%d", len(day.Sessions))
		}
		fmt.Printf("%s  %3s session(s)  %8s  updated %s\n",
			ref.Date, sessions, humanize.Bytes(uint64(ref.Size)), formatTimestamp(ref.ModTime))
	}
	return nil
}

// entryLine formats one ref for compact listings
func entryLine(ref journal.EntryRef) string {
	return fmt.Sprintf("%s (%s)", ref.Date, humanize.Bytes(uint64(ref.Size)))
}

// truncateSummary truncates long text for display
func truncateSummary(summary string, maxLen int) string {
	// Remove newlines and excessive whitespace
	summary = strings.Join(strings.Fields(summary), " ")

	if len(summary) <= maxLen {
		return summary
	}

	// Find a good break point (end of word)
	truncated := summary[:maxLen]
	lastSpace := strings.LastIndex(truncated, " ")
	if lastSpace > maxLen-20 {
		truncated = truncated[:lastSpace]
	}

	return truncated + "..."
}

// formatTimestamp formats a timestamp in a human-friendly way
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	if time.Since(t) < 30*24*time.Hour {
		return humanize.Time(t)
	}
	if t.Year() == time.Now().Year() {
		return t.Format("Jan 2")
	}
	return t.Format("Jan 2, 2006")
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}
