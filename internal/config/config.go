// Package config loads the optional TOML configuration file accepted via
// --config, following the same load-defaults-then-overlay-file shape as
// other tools in this codebase's lineage.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config holds settings that may otherwise be passed as flags. Flags take
// precedence over a loaded file; see cmd/vcfserve.
type Config struct {
	SSEAddress      string `toml:"sse_address"`
	Debug           bool   `toml:"debug"`
	NeverSaveIndex  bool   `toml:"never_save_index"`
	MaxChromosomes  int    `toml:"max_chromosomes"`
	IdleTimeoutMins int    `toml:"idle_timeout_minutes"`

	// RegionLimit is the bounded-region ceiling for query_by_region and
	// start_region_query, in bases. Zero means use the built-in default
	// (genomics.MaxRegionSpan).
	RegionLimit uint64 `toml:"region_limit"`

	// BlockSizeLimit is a soft cap, in variants, reserved for a future
	// multi-block response mode (spec §4.9); no component currently
	// splits a response on it.
	BlockSizeLimit int `toml:"block_size_limit"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		MaxChromosomes:  25,
		IdleTimeoutMins: 5,
		BlockSizeLimit:  5000,
	}
}

// Load reads and parses a TOML file at path, overlaying it onto Default.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
