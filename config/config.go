// Package config loads the page cache module's YAML configuration,
// following the yaml-tagged Config-struct convention this module's
// logging and telemetry packages already use.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lumidb/pagecache/logging"
	"github.com/lumidb/pagecache/telemetry"
)

// Config is the top-level configuration for a standalone buffer pool
// process (the benchmark/demo command). A library caller embedding
// the buffer package directly can skip this entirely and construct
// buffer.Options by hand.
type Config struct {
	PoolSize  int              `yaml:"pool_size"`
	ReplacerK int              `yaml:"replacer_k"`
	PageSize  int              `yaml:"page_size"`
	DiskPath  string           `yaml:"disk_path"`
	Logging   logging.Config   `yaml:"logging"`
	Telemetry telemetry.Config `yaml:"telemetry"`
}

// Default returns a Config with reasonable standalone-demo defaults.
func Default() Config {
	return Config{
		PoolSize:  64,
		ReplacerK: 2,
		PageSize:  4096,
		DiskPath:  "pagecache.db",
		Logging: logging.Config{
			Level:      "info",
			Format:     "console",
			OutputFile: "stdout",
		},
		Telemetry: telemetry.Config{
			Enabled:          true,
			ServiceName:      "pagecache",
			PrometheusPort:   9090,
			TraceSampleRatio: 1.0,
		},
	}
}

// Load reads and parses a YAML config file at path, starting from
// Default() so a partial file only overrides what it sets.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("pagecache: reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("pagecache: parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the invariants a buffer pool cannot start without.
func (c Config) Validate() error {
	if c.PoolSize < 1 {
		return fmt.Errorf("pagecache: pool_size must be >= 1, got %d", c.PoolSize)
	}
	if c.ReplacerK < 1 {
		return fmt.Errorf("pagecache: replacer_k must be >= 1, got %d", c.ReplacerK)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("pagecache: page_size must be > 0, got %d", c.PageSize)
	}
	return nil
}
