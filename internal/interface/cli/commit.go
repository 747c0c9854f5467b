package cli

import (
	"github.com/neilberkman/daybook/internal/core/draft"
	"github.com/spf13/cobra"
)

var commitCmd = &cobra.Command{
	Use:   "commit <draft-id>",
	Short: "Append an approved draft to the journal",
	Long: `Append a proposed session to its day's journal file.

The session number is assigned at commit time, so it may differ from the
number shown when the draft was proposed if other sessions landed first.

Examples:
  daybook commit 6f1c1d2e-3b8a-4c61-9d1e-2f0b7a4c9e11`,
	Args: cobra.ExactArgs(1),
	RunE: runCommit,
}

func init() {
	rootCmd.AddCommand(commitCmd)
}

func runCommit(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}

	res, err := draft.NewGate(store).Commit(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printAppendResult(res)
	return nil
}
