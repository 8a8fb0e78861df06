// Package config holds the harness configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for a config file by default.
const DefaultPath = ".odavl/config.yaml"

// Config holds all harness configuration.
type Config struct {
	// CorpusDir is the fixture corpus root.
	CorpusDir string `yaml:"corpus_dir"`

	// GoBinary is the go tool used to build fixtures.
	GoBinary string `yaml:"go_binary"`

	// DefaultTimeout bounds a case execution when the case declares none.
	DefaultTimeout string `yaml:"default_timeout"`

	// Verify configures verification runs.
	Verify VerifyConfig `yaml:"verify"`

	// History configures the run archive.
	History HistoryConfig `yaml:"history"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// VerifyConfig configures verification runs.
type VerifyConfig struct {
	// Parallel bounds how many fixtures verify concurrently.
	Parallel int `yaml:"parallel"`

	// Race enables race-instrumented builds by default.
	Race bool `yaml:"race"`
}

// HistoryConfig configures the run archive.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		CorpusDir:      filepath.Join("testdata", "corpus"),
		GoBinary:       "go",
		DefaultTimeout: "10s",

		Verify: VerifyConfig{
			Parallel: 4,
		},

		History: HistoryConfig{
			Path: filepath.Join(".odavl", "history.db"),
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment variables override either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Timeout returns the parsed default timeout, falling back to 10s when the
// configured value is empty or unparseable.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.DefaultTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("ODAVL_CORPUS_DIR"); dir != "" {
		c.CorpusDir = dir
	}
	if bin := os.Getenv("ODAVL_GO_BINARY"); bin != "" {
		c.GoBinary = bin
	}
	if path := os.Getenv("ODAVL_HISTORY_PATH"); path != "" {
		c.History.Path = path
	}
	if level := os.Getenv("ODAVL_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}
