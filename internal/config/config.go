// Package config loads editor configuration from an optional YAML file,
// falling back to defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the tunables of the editing service.
type Config struct {
	// MaxHistoryDepth bounds each session's undo stack.
	MaxHistoryDepth int `yaml:"maxHistoryDepth"`

	// MaxUploadMB rejects uploads larger than this many megabytes.
	MaxUploadMB int `yaml:"maxUploadMB"`

	// LogLevel is the zap level for service logging.
	LogLevel string `yaml:"logLevel"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MaxHistoryDepth: 20,
		MaxUploadMB:     1024,
		LogLevel:        "info",
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.MaxHistoryDepth < 1 {
		return fmt.Errorf("maxHistoryDepth must be >= 1, got %d", c.MaxHistoryDepth)
	}
	if c.MaxUploadMB < 1 {
		return fmt.Errorf("maxUploadMB must be >= 1, got %d", c.MaxUploadMB)
	}
	return nil
}
