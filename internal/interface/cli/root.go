package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/neilberkman/daybook/internal/core/config"
	"github.com/neilberkman/daybook/internal/core/dates"
	"github.com/neilberkman/daybook/internal/core/db"
	"github.com/neilberkman/daybook/internal/core/journal"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	journalDir  string
	dbPath      string
	versionInfo string
)

// SetVersion sets the version information from build-time ldflags
func SetVersion(version, commit, date string) {
	versionInfo = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	rootCmd.Version = versionInfo
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "daybook",
	Short: "Daily engineering journal",
	Long: `daybook - a dated, session-numbered engineering journal

Entries are appended to one Markdown file per day. Nothing already written
is ever changed: each session is proposed as a draft, reviewed, and only
then committed to the day's file.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to the review TUI if no subcommand specified
		return reviewCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/daybook/config.toml)")
	rootCmd.PersistentFlags().StringVar(&journalDir, "dir", "", "Journal directory (overrides config and $DAYBOOK_DIR)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Search index path (default ~/.config/daybook/index.db)")
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if journalDir != "" {
		cfg.JournalDir = journalDir
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg, nil
}

func openStore() (*config.Config, *journal.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := cfg.OpenStore()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return cfg, store, nil
}

func openDB(cfg *config.Config) (*db.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}
	database, err := db.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// selectorArg parses an optional date pattern argument.
func selectorArg(args []string, i int) (dates.Selector, error) {
	if len(args) <= i {
		return dates.All, nil
	}
	return dates.ParseSelector(args[i], time.Now())
}
