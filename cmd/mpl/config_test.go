package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "mpl.toml"), false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("unexpected log level %q", cfg.LogLevel)
	}
	if cfg.Engine.StepQuota != 1_000_000 {
		t.Fatalf("unexpected step quota %d", cfg.Engine.StepQuota)
	}
	if cfg.Grimoire.HTTPTimeout.Duration != 30*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.Grimoire.HTTPTimeout)
	}
	if cfg.Shell.Prompt != "mpl> " {
		t.Fatalf("unexpected prompt %q", cfg.Shell.Prompt)
	}
	if cfg.Shell.HistoryPath == "" {
		t.Fatalf("expected a default history path")
	}
}

func TestLoadConfigExplicitMissing(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "mpl.toml"), true)
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadConfigDecodesSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mpl.toml")
	content := `log_level = "debug"

[engine]
step_quota = 500
strict_parse = true

[ontology]
paths = ["kb/goetia.yaml", "/abs/magi.json"]
watch = true

[grimoire]
http_timeout = "5s"
allow_processes = true

[shell]
history_path = "/tmp/mpl-history.db"
prompt = "∴ "
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := loadConfig(path, true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.Engine.StepQuota != 500 || !cfg.Engine.StrictParse {
		t.Fatalf("unexpected engine config %+v (log %q)", cfg.Engine, cfg.LogLevel)
	}
	if got := cfg.Ontology.Paths[0]; got != filepath.Join(dir, "kb", "goetia.yaml") {
		t.Fatalf("relative path not anchored to config dir: %q", got)
	}
	if got := cfg.Ontology.Paths[1]; got != "/abs/magi.json" {
		t.Fatalf("absolute path rewritten: %q", got)
	}
	if !cfg.Ontology.Watch {
		t.Fatalf("watch not decoded")
	}
	if cfg.Grimoire.HTTPTimeout.Duration != 5*time.Second || !cfg.Grimoire.AllowProcesses {
		t.Fatalf("unexpected grimoire config %+v", cfg.Grimoire)
	}
	if cfg.Shell.HistoryPath != "/tmp/mpl-history.db" || cfg.Shell.Prompt != "∴ " {
		t.Fatalf("unexpected shell config %+v", cfg.Shell)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mpl.toml")
	if err := os.WriteFile(path, []byte("[engine\nstep_quota = "), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := loadConfig(path, false)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadConfigBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mpl.toml")
	if err := os.WriteFile(path, []byte("[grimoire]\nhttp_timeout = \"soon\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadConfig(path, false); err == nil {
		t.Fatalf("expected duration error")
	}
}
