package cli

import (
	"fmt"

	"github.com/neilberkman/daybook/internal/core/draft"
	"github.com/spf13/cobra"
)

var rejectCmd = &cobra.Command{
	Use:   "reject <draft-id>...",
	Short: "Discard proposed drafts",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runReject,
}

func init() {
	rootCmd.AddCommand(rejectCmd)
}

func runReject(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}

	gate := draft.NewGate(store)
	for _, id := range args {
		if err := gate.Reject(id); err != nil {
			return err
		}
		fmt.Printf("Rejected draft %s\n", id)
	}
	return nil
}
