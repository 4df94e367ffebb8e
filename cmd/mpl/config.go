package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const defaultConfigPath = "mpl.toml"

// config mirrors mpl.toml.
type config struct {
	LogLevel string         `toml:"log_level"`
	Engine   engineConfig   `toml:"engine"`
	Ontology ontologyConfig `toml:"ontology"`
	Grimoire grimoireConfig `toml:"grimoire"`
	Shell    shellConfig    `toml:"shell"`
}

type engineConfig struct {
	StepQuota   int  `toml:"step_quota"`
	StrictParse bool `toml:"strict_parse"`
}

type ontologyConfig struct {
	Paths []string `toml:"paths"`
	Watch bool     `toml:"watch"`
}

type grimoireConfig struct {
	HTTPTimeout    duration `toml:"http_timeout"`
	AllowProcesses bool     `toml:"allow_processes"`
}

type shellConfig struct {
	HistoryPath string `toml:"history_path"`
	Prompt      string `toml:"prompt"`
}

// duration wraps time.Duration for TOML parsing.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// loadConfig decodes path. A missing file yields the defaults unless the
// path was given explicitly.
func loadConfig(path string, explicit bool) (*config, error) {
	var cfg config
	path = os.ExpandEnv(path)
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		if explicit {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
	} else {
		// knowledge bases are relative to the config file
		base := filepath.Dir(path)
		for i, p := range cfg.Ontology.Paths {
			p = os.ExpandEnv(p)
			if !filepath.IsAbs(p) {
				p = filepath.Join(base, p)
			}
			cfg.Ontology.Paths[i] = p
		}
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	if c.Engine.StepQuota == 0 {
		c.Engine.StepQuota = 1_000_000
	}
	if c.Grimoire.HTTPTimeout.Duration == 0 {
		c.Grimoire.HTTPTimeout.Duration = 30 * time.Second
	}
	if c.Shell.Prompt == "" {
		c.Shell.Prompt = "mpl> "
	}
	if c.Shell.HistoryPath == "" {
		c.Shell.HistoryPath = defaultHistoryPath()
	}
	c.Shell.HistoryPath = os.ExpandEnv(c.Shell.HistoryPath)
}

func defaultHistoryPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "mpl", "history.db")
	}
	return filepath.Join(dir, "mpl", "history.db")
}
