package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/neilberkman/daybook/internal/interface/tui"
	"github.com/spf13/cobra"
)

var reviewDrafts bool

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Browse the journal and approve drafts",
	Long: `Launch an interactive terminal UI for browsing journal days, searching
entries and approving or rejecting pending drafts.`,
	Aliases: []string{"tui"},
	RunE:    runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.Flags().BoolVar(&reviewDrafts, "drafts", false, "Open the draft approval screen first")
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, store, err := openStore()
	if err != nil {
		return err
	}

	model := tui.New(store, tui.Options{
		StartInDrafts: reviewDrafts,
		CaseSensitive: cfg.CaseSensitiveSearch,
	})
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err = p.Run()
	return err
}
