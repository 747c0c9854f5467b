package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/neilberkman/daybook/internal/core/journal"
)

// EnvJournalDir overrides journal_dir when set
const EnvJournalDir = "DAYBOOK_DIR"

type Config struct {
	JournalDir          string
	DBPath              string
	CaseSensitiveSearch bool
	LockTimeout         time.Duration
	LockRetry           time.Duration
	LockStaleAfter      time.Duration
	SessionTemplate     string // contents of session_template_file, if set
}

type tomlConfig struct {
	JournalDir          string `toml:"journal_dir"`
	DBPath              string `toml:"db_path"`
	CaseSensitiveSearch bool   `toml:"case_sensitive_search"`
	LockTimeout         string `toml:"lock_timeout"`
	LockRetry           string `toml:"lock_retry"`
	LockStaleAfter      string `toml:"lock_stale_after"`
	SessionTemplateFile string `toml:"session_template_file"`
}

// Dir returns ~/.config/daybook
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "daybook")
	}
	return filepath.Join(home, ".config", "daybook")
}

// DefaultPath is where Load looks when no path is given
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Default returns the configuration used when no file exists
func Default() *Config {
	home, err := os.UserHomeDir()
	journalDir := "journal"
	if err == nil {
		journalDir = filepath.Join(home, "journal")
	}
	return &Config{
		JournalDir: journalDir,
		DBPath:     filepath.Join(Dir(), "index.db"),
	}
}

// Load reads the TOML config at path (DefaultPath when empty). A missing
// file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		var tc tomlConfig
		if _, err := toml.DecodeFile(path, &tc); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if err := cfg.apply(tc, filepath.Dir(path)); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if dir := strings.TrimSpace(os.Getenv(EnvJournalDir)); dir != "" {
		cfg.JournalDir = expandHome(dir)
	}

	return cfg, nil
}

func (c *Config) apply(tc tomlConfig, base string) error {
	if tc.JournalDir != "" {
		c.JournalDir = resolvePath(tc.JournalDir, base)
	}
	if tc.DBPath != "" {
		c.DBPath = resolvePath(tc.DBPath, base)
	}
	c.CaseSensitiveSearch = tc.CaseSensitiveSearch

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"lock_timeout", tc.LockTimeout, &c.LockTimeout},
		{"lock_retry", tc.LockRetry, &c.LockRetry},
		{"lock_stale_after", tc.LockStaleAfter, &c.LockStaleAfter},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.key, d.raw)
		}
		*d.dst = v
	}

	if tc.SessionTemplateFile != "" {
		data, err := os.ReadFile(resolvePath(tc.SessionTemplateFile, base))
		if err != nil {
			return fmt.Errorf("session_template_file: %w", err)
		}
		c.SessionTemplate = string(data)
	}
	return nil
}

// StoreOptions converts the config into journal store options
func (c *Config) StoreOptions() journal.Options {
	return journal.Options{
		LockTimeout:     c.LockTimeout,
		LockRetry:       c.LockRetry,
		LockStaleAfter:  c.LockStaleAfter,
		SessionTemplate: c.SessionTemplate,
	}
}

// OpenStore opens the journal store the config points at
func (c *Config) OpenStore() (*journal.Store, error) {
	return journal.NewStore(c.JournalDir, c.StoreOptions())
}

func resolvePath(p, base string) string {
	p = expandHome(p)
	if !filepath.IsAbs(p) {
		p = filepath.Join(base, p)
	}
	return p
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
