package cli

import (
	"fmt"
	"time"

	"github.com/neilberkman/daybook/internal/core/dates"
	"github.com/spf13/cobra"
)

var showSession int

var showCmd = &cobra.Command{
	Use:   "show [date]",
	Short: "Print a day's journal",
	Long: `Print a journal file, or a single session from it.

Examples:
  daybook show
  daybook show yesterday
  daybook show 2025-01-10 --session 2`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&showSession, "session", "s", 0, "Only print this session number")
}

func runShow(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}

	input := "today"
	if len(args) > 0 {
		input = args[0]
	}
	date, err := dates.Resolve(input, time.Now())
	if err != nil {
		return err
	}

	day, err := store.Read(date)
	if err != nil {
		return err
	}

	if showSession == 0 {
		fmt.Print(day.Content)
		return nil
	}
	for _, s := range day.Sessions {
		if s.Number == showSession {
			fmt.Println(s.Text)
			return nil
		}
	}
	return fmt.Errorf("%s has no session %d", date, showSession)
}
