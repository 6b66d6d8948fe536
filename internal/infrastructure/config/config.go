// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for mindgraph configuration.
	DefaultConfigDir = ".mindgraph"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDatabaseFile is the default SQLite database file name.
	DefaultDatabaseFile = "graph.db"
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	SQLite SQLiteConfig `yaml:"sqlite,omitempty"`
	Server ServerConfig `yaml:"server,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite graph store.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database.
	Path string `yaml:"path,omitempty"`
}

// ServerConfig holds configuration for operation scheduling.
type ServerConfig struct {
	// LockWait is how long an operation waits for a project lock before
	// failing with a conflict.
	LockWait time.Duration `yaml:"lock_wait,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		SQLite: SQLiteConfig{
			Path: filepath.Join(DefaultConfigDir, DefaultDatabaseFile),
		},
		Server: ServerConfig{
			LockWait: 5 * time.Second,
		},
	}
}

// Load loads configuration from the .mindgraph directory in the given path.
// A missing config file is not an error; defaults apply.
func Load(basePath string) (*Config, error) {
	cfg := Default()
	cfg.SQLite.Path = filepath.Join(basePath, DefaultConfigDir, DefaultDatabaseFile)

	configFile := filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		cfg.applyEnvOverrides()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("MINDGRAPH_DB"); path != "" {
		c.SQLite.Path = path
	}
	if wait := os.Getenv("MINDGRAPH_LOCK_WAIT"); wait != "" {
		if d, err := time.ParseDuration(wait); err == nil {
			c.Server.LockWait = d
		}
	}
}
