// Package config defines the dossier application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level dossier configuration.
type Config struct {
	// DataDir is the root of the location tree: one directory per
	// workflow state plus the audit directory.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	LogLevel string `json:"log_level" yaml:"log_level"`

	// DefaultActor names the human operator recorded on manual
	// transitions when no --actor is given.
	DefaultActor string `json:"default_actor" yaml:"default_actor"`

	// DefaultSource is the channel recorded on tasks created by hand.
	DefaultSource string `json:"default_source" yaml:"default_source"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir:       "./data",
		LogLevel:      "info",
		DefaultActor:  "operator",
		DefaultSource: "manual",
	}
}

// Load reads a YAML config file and returns the parsed configuration.
// Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// SlogLevel maps the configured level name onto a slog level. Unknown
// names fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
