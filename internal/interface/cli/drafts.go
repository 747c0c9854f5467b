package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/neilberkman/daybook/internal/core/draft"
	"github.com/spf13/cobra"
)

var draftsVerbose bool

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "List drafts waiting for approval",
	RunE:  runDrafts,
}

func init() {
	rootCmd.AddCommand(draftsCmd)
	draftsCmd.Flags().BoolVarP(&draftsVerbose, "verbose", "v", false, "Show the rendered preview of each draft")
}

func runDrafts(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}

	drafts, err := draft.NewGate(store).List()
	if err != nil {
		return err
	}

	if len(drafts) == 0 {
		fmt.Println("No pending drafts. Create one with 'daybook propose'.")
		return nil
	}

	fmt.Printf("%d pending draft(s)\n\n", len(drafts))
	for _, d := range drafts {
		fmt.Printf("%s  %s  session %d  %s\n", d.ID, d.Date, d.ProjectedSession, d.Entry.Topic)
		fmt.Printf("    proposed %s\n", humanize.Time(d.CreatedAt))
		if draftsVerbose {
			fmt.Println()
			fmt.Println(indent(d.Preview, "    "))
		}
		fmt.Println()
	}
	return nil
}
