// Package config holds analyzer settings, loadable from a TOML file
// and overridable by CLI flags.
package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/BurntSushi/toml"

	"lockcheck/internal/core"
	"lockcheck/internal/extract"
)

const maxDefaultWorkers = 8

// Config carries every tunable of an analysis run.
type Config struct {
	// PGVersion is the server major version migrations run against.
	// Only the ADD COLUMN constant-default fast path depends on it.
	PGVersion int `toml:"pg_version"`
	// Dialect forces an extractor variant; empty means detection by
	// file extension.
	Dialect string `toml:"dialect"`
	// Format selects the output formatter.
	Format string `toml:"format"`
	// Workers bounds batch concurrency.
	Workers int `toml:"workers"`
	// FailOn is a risk level name; any report at or above it makes the
	// CLI exit nonzero. Empty disables the threshold.
	FailOn string `toml:"fail_on"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	workers := runtime.NumCPU()
	if workers > maxDefaultWorkers {
		workers = maxDefaultWorkers
	}
	return &Config{
		PGVersion: extract.DefaultPGVersion,
		Format:    "markdown",
		Workers:   workers,
	}
}

// Load reads a TOML config file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no component can act on.
func (c *Config) Validate() error {
	if c.PGVersion <= 0 {
		return fmt.Errorf("pg_version must be positive, got %d", c.PGVersion)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.FailOn != "" {
		if _, err := core.ParseRiskLevel(c.FailOn); err != nil {
			return err
		}
	}
	return nil
}

// FailThreshold parses FailOn. The boolean reports whether a threshold
// is configured at all.
func (c *Config) FailThreshold() (core.RiskLevel, bool) {
	if c.FailOn == "" {
		return core.RiskLow, false
	}
	level, err := core.ParseRiskLevel(c.FailOn)
	if err != nil {
		return core.RiskLow, false
	}
	return level, true
}
