package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv(EnvJournalDir, "")
	dir := t.TempDir()
	tmpl := "## Session {{number}} - {{{time}}} - {{{topic}}}\n\n{{{worked_on}}}"
	if err := os.WriteFile(filepath.Join(dir, "session.mustache"), []byte(tmpl), 0o644); err != nil {
		t.Fatal(err)
	}

	path := writeConfig(t, dir, `
journal_dir = "notes"
db_path = "/var/tmp/daybook.db"
case_sensitive_search = true
lock_timeout = "2s"
lock_retry = "10ms"
lock_stale_after = "1m"
session_template_file = "session.mustache"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.JournalDir != filepath.Join(dir, "notes") {
		t.Errorf("JournalDir = %s, want relative to config dir", cfg.JournalDir)
	}
	if cfg.DBPath != "/var/tmp/daybook.db" {
		t.Errorf("DBPath = %s", cfg.DBPath)
	}
	if !cfg.CaseSensitiveSearch {
		t.Error("CaseSensitiveSearch = false")
	}
	if cfg.LockTimeout != 2*time.Second || cfg.LockRetry != 10*time.Millisecond || cfg.LockStaleAfter != time.Minute {
		t.Errorf("lock durations = %v %v %v", cfg.LockTimeout, cfg.LockRetry, cfg.LockStaleAfter)
	}
	if cfg.SessionTemplate != tmpl {
		t.Errorf("SessionTemplate = %q", cfg.SessionTemplate)
	}

	opts := cfg.StoreOptions()
	if opts.LockTimeout != cfg.LockTimeout || opts.SessionTemplate != tmpl {
		t.Errorf("StoreOptions() = %+v", opts)
	}
	if _, err := cfg.OpenStore(); err != nil {
		t.Errorf("OpenStore() error = %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvJournalDir, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !strings.HasSuffix(cfg.JournalDir, "journal") {
		t.Errorf("JournalDir = %s", cfg.JournalDir)
	}
	if !strings.HasSuffix(cfg.DBPath, filepath.Join(".config", "daybook", "index.db")) {
		t.Errorf("DBPath = %s", cfg.DBPath)
	}
	if cfg.LockTimeout != 0 {
		t.Errorf("LockTimeout = %v, want zero so the store picks its default", cfg.LockTimeout)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `journal_dir = "/from/file"`)
	t.Setenv(EnvJournalDir, "/from/env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.JournalDir != "/from/env" {
		t.Errorf("JournalDir = %s, want env override", cfg.JournalDir)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv(EnvJournalDir, "")

	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed toml", `journal_dir = `, "failed to parse"},
		{"bad duration", `lock_timeout = "soon"`, "lock_timeout"},
		{"negative duration", `lock_retry = "-1s"`, "must be positive"},
		{"missing template", `session_template_file = "nope.mustache"`, "session_template_file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.want)
			}
		})
	}

	t.Run("explicit path missing", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
			t.Error("expected error for missing explicit config")
		}
	})
}
