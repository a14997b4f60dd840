// Package config loads export settings from an optional YAML file.
// Flags always win; the file only supplies defaults for values the user
// didn't pass on the command line.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"bookslicer/core/load"
)

// Config holds the file-configurable export settings.
type Config struct {
	OutputDir  string `yaml:"output_dir"`
	PageFormat string `yaml:"page_format"`
	BatchSize  int    `yaml:"batch_size"`
	Zip        bool   `yaml:"zip"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		PageFormat: "A4",
		BatchSize:  load.DefaultBatchSize,
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = load.DefaultBatchSize
	}
	if cfg.PageFormat == "" {
		cfg.PageFormat = "A4"
	}
	return cfg, nil
}
