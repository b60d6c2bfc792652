// Package config loads the taskbeat daemon configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the daemon configuration.
type Config struct {
	// Listen is the address of the HTTP API server.
	Listen string `yaml:"listen"`
	// DBPath is the SQLite database location.
	DBPath string `yaml:"db_path"`
	// LogEnv selects the logging profile: development or production.
	LogEnv string `yaml:"log_env"`
	// LogLevel overrides the profile's default level.
	LogLevel string `yaml:"log_level"`
	// HeatmapDays is the default completion heatmap window.
	HeatmapDays int `yaml:"heatmap_days"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Listen:      "127.0.0.1:7467",
		DBPath:      filepath.Join(homeDir, ".taskbeat", "taskbeat.db"),
		LogEnv:      "development",
		LogLevel:    "",
		HeatmapDays: 30,
	}
}

// ConfigPath returns the default config file location (~/.taskbeat/config.yaml).
func ConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(homeDir, ".taskbeat", "config.yaml"), nil
}

// Load reads a config file, overlaying defaults. Unset fields keep their
// default value.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.HeatmapDays <= 0 {
		cfg.HeatmapDays = 30
	}
	return cfg, nil
}

// LoadFromHome loads the config from the default location, falling back
// to defaults when the file does not exist.
func LoadFromHome() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return Load(path)
}
