package cli

import (
	"fmt"

	"github.com/neilberkman/daybook/cmd/daybook/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Start MCP server for AI collaborators",
	Long: `Start an MCP (Model Context Protocol) server so an AI collaborator can
propose journal sessions and read or search past entries.

Proposals are drafts; a session reaches the journal only through
commit_entry (or 'daybook commit' / the review screen).

Configure in your MCP client:
  {
    "mcpServers": {
      "daybook": {
        "command": "daybook",
        "args": ["serve-mcp"]
      }
    }
  }
`,
	RunE: runMCP,
}

var mcpNoCommit bool

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().BoolVar(&mcpNoCommit, "no-commit", false, "Don't expose commit_entry; drafts are approved with 'daybook review' or 'daybook commit'")
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := mcp.StartServer(cfg, mcp.Options{NoCommit: mcpNoCommit}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}
