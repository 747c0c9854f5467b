package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show journal statistics",
	Long: `Display statistics from the search index.

Shows day and session counts, date range, busiest day and most frequent
topics. Run 'daybook sync' first to bring the index up to date.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	stats, err := database.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	fmt.Println("Journal Statistics")
	fmt.Println("==================")
	fmt.Println()
	fmt.Printf("Journal Days:      %d\n", stats.TotalDays)
	fmt.Printf("Total Sessions:    %d\n", stats.TotalSessions)
	fmt.Printf("Journal Size:      %s\n", humanize.Bytes(uint64(stats.TotalBytes)))
	fmt.Println()

	if stats.TotalDays > 0 {
		fmt.Printf("First Day:         %s\n", stats.FirstDay)
		fmt.Printf("Last Day:          %s\n", stats.LastDay)
		fmt.Printf("Busiest Day:       %s (%d sessions)\n", stats.BusiestDay, stats.BusiestDaySessions)
		fmt.Println()
	}

	if len(stats.TopTopics) > 0 {
		fmt.Println("Top Topics:")
		for _, tc := range stats.TopTopics {
			fmt.Printf("  %-40s %d\n", truncateSummary(tc.Topic, 40), tc.Count)
		}
		fmt.Println()
	}

	// Database file size
	fileInfo, err := os.Stat(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to stat database file: %w", err)
	}

	fmt.Printf("Database Location: %s\n", cfg.DBPath)
	fmt.Printf("Database Size:     %s\n", humanize.Bytes(uint64(fileInfo.Size())))

	return nil
}
