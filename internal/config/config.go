// Package config loads the YAML configuration for the linaclog tool.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/linaclog/linaclog/internal/merge"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultChunkSize = 1000
	DefaultCacheDir  = "cache"
	DefaultCacheTTL  = 24 * time.Hour
)

// Config is the top-level configuration. Fields map 1:1 to
// config.example.yaml.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Merge    MergeConfig    `yaml:"merge"`
	Cache    CacheConfig    `yaml:"cache"`
	Report   ReportConfig   `yaml:"report"`
}

// PipelineConfig holds parse-run settings.
type PipelineConfig struct {
	// CatalogFile is the pipe-delimited parameter table. Empty means the
	// embedded default catalog.
	CatalogFile string `yaml:"catalog_file"`

	// WatchCatalog enables hot reload of the catalog file.
	WatchCatalog bool `yaml:"watch_catalog"`

	// ChunkSize is the number of lines buffered between progress and
	// cancellation checks.
	ChunkSize int `yaml:"chunk_size"`

	// OutlierCheck enables the per-file IQR outlier pass.
	OutlierCheck bool `yaml:"outlier_check"`
}

// MergeGroup declares one set of equivalent sensors.
type MergeGroup struct {
	// Unified is the canonical ID merged readings are reported under.
	Unified string `yaml:"unified"`

	// Sources are the canonical IDs folded into Unified.
	Sources []string `yaml:"sources"`
}

// MergeConfig lists the equivalent-sensor groups.
type MergeConfig struct {
	Groups []MergeGroup `yaml:"groups"`
}

// CacheConfig holds artifact-cache settings.
type CacheConfig struct {
	// Dir is the cache directory.
	Dir string `yaml:"dir"`

	// DefaultTTL is applied to entries stored without an explicit TTL.
	DefaultTTL time.Duration `yaml:"default_ttl"`

	// Disabled turns the artifact cache off entirely.
	Disabled bool `yaml:"disabled"`
}

// ReportConfig holds output paths for the parse command.
type ReportConfig struct {
	// ReadingsCSV is where the readings table is written. Empty disables
	// the file (stdout via the CLI flag still works).
	ReadingsCSV string `yaml:"readings_csv"`

	// MetricsFile is where the run-summary exposition is written.
	MetricsFile string `yaml:"metrics_file"`
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no config file is given.
func Default() *Config { return defaults() }

// defaults returns a Config pre-populated with default values, including
// the equivalent-sensor groups every machine revision needs.
func defaults() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			ChunkSize:    DefaultChunkSize,
			OutlierCheck: true,
		},
		Merge: MergeConfig{
			Groups: []MergeGroup{
				{Unified: "magnetronFlow", Sources: []string{
					"magnetronFlow", "CoolingmagnetronFlowLowStatistics",
				}},
				{Unified: "targetAndCirculatorFlow", Sources: []string{
					"targetAndCirculatorFlow", "CoolingtargetFlowLowStatistics",
				}},
			},
		},
		Cache: CacheConfig{
			Dir:        DefaultCacheDir,
			DefaultTTL: DefaultCacheTTL,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Pipeline.ChunkSize <= 0 {
		return fmt.Errorf("pipeline.chunk_size must be positive")
	}
	if cfg.Cache.DefaultTTL < 0 {
		return fmt.Errorf("cache.default_ttl must not be negative")
	}
	if cfg.Cache.Dir == "" {
		return fmt.Errorf("cache.dir is required")
	}
	for i, g := range cfg.Merge.Groups {
		if g.Unified == "" {
			return fmt.Errorf("merge.groups[%d]: unified is required", i)
		}
		if len(g.Sources) == 0 {
			return fmt.Errorf("merge.groups[%d] %q: sources is required", i, g.Unified)
		}
	}
	return nil
}

// BuildRules materializes the merge rule set. Conflicting groups keep the
// first registration and log the loser; a bad group in config should cost
// a warning, not the whole run.
func (c *Config) BuildRules() *merge.Rules {
	rules := merge.NewRules()
	for _, g := range c.Merge.Groups {
		if err := rules.Register(g.Unified, g.Sources); err != nil {
			slog.Warn("config: merge group skipped", "unified", g.Unified, "err", err)
		}
	}
	return rules
}
