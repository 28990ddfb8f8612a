// Package config loads and validates the TOML run configuration.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Source locates the input videos and the transient staging area.
type Source struct {
	Dir         string   `toml:"dir"`
	Extensions  []string `toml:"extensions"`
	StagingRoot string   `toml:"staging_root"`
}

// Grid holds the split dimensions: NParts vertical divisions, MParts
// horizontal divisions.
type Grid struct {
	NParts int `toml:"n_parts"`
	MParts int `toml:"m_parts"`
}

// Workers lists the destination directories clips are distributed into.
type Workers struct {
	Dirs []string `toml:"dirs"`
	// Clean empties each worker directory before distribution starts.
	Clean bool `toml:"clean"`
}

// Distribute controls shuffling and the missing-worker policy.
type Distribute struct {
	// Seed makes the shuffle reproducible. Unset means a fresh random
	// ordering on every run.
	Seed *int64 `toml:"seed"`
	// OnMissingWorker is "abort" (default) or "skip".
	OnMissingWorker string `toml:"on_missing_worker"`
}

// Pool sizes the parallel extraction pool.
type Pool struct {
	Size int `toml:"size"`
}

type Config struct {
	Source     Source     `toml:"source"`
	Grid       Grid       `toml:"grid"`
	Workers    Workers    `toml:"workers"`
	Distribute Distribute `toml:"distribute"`
	Pool       Pool       `toml:"pool"`
}

const (
	PolicyAbort = "abort"
	PolicySkip  = "skip"
)

// Default returns a config with every optional field filled in.
func Default() Config {
	return Config{
		Source: Source{
			Extensions:  []string{".mp4", ".avi", ".mkv"},
			StagingRoot: os.TempDir(),
		},
		Distribute: Distribute{
			OnMissingWorker: PolicyAbort,
		},
		Pool: Pool{
			Size: runtime.NumCPU(),
		},
	}
}

// Load reads a TOML config file, applies defaults and validates it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Sample returns the embedded sample configuration.
func Sample() string { return sampleConfig }

func (c *Config) applyDefaults() {
	def := Default()
	if len(c.Source.Extensions) == 0 {
		c.Source.Extensions = def.Source.Extensions
	}
	if c.Source.StagingRoot == "" {
		c.Source.StagingRoot = def.Source.StagingRoot
	}
	if c.Distribute.OnMissingWorker == "" {
		c.Distribute.OnMissingWorker = def.Distribute.OnMissingWorker
	}
	if c.Pool.Size <= 0 {
		c.Pool.Size = def.Pool.Size
	}
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Source.Dir == "" {
		return errors.New("source.dir must be set")
	}
	if c.Grid.NParts <= 0 || c.Grid.MParts <= 0 {
		return fmt.Errorf("grid.n_parts and grid.m_parts must be positive, got %dx%d",
			c.Grid.NParts, c.Grid.MParts)
	}
	if len(c.Workers.Dirs) == 0 {
		return errors.New("workers.dirs must list at least one directory")
	}
	switch c.Distribute.OnMissingWorker {
	case PolicyAbort, PolicySkip:
	default:
		return fmt.Errorf("distribute.on_missing_worker must be %q or %q, got %q",
			PolicyAbort, PolicySkip, c.Distribute.OnMissingWorker)
	}
	return nil
}
