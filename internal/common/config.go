// Package common provides shared utilities for credsync
package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for credsync
type Config struct {
	Environment string        `toml:"environment"`
	API         APIConfig     `toml:"api"`
	Storage     StorageConfig `toml:"storage"`
	Sync        SyncConfig    `toml:"sync"`
	Logging     LoggingConfig `toml:"logging"`
}

// APIConfig holds the credit backend API configuration
type APIConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *APIConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// StorageConfig holds the durable cache configuration
type StorageConfig struct {
	Path string `toml:"path"`
}

// SyncConfig holds the tunables of the data synchronization layer.
// All values carry product-approved defaults; override with care.
type SyncConfig struct {
	FreshnessWindow    string  `toml:"freshness_window"`    // profile/loan cache TTL, default "5m"
	SyncDebounce       string  `toml:"sync_debounce"`       // Synchronize() debounce, default "60s"
	ReconcileTolerance float64 `toml:"reconcile_tolerance"` // currency units, default 100
	RetryAttempts      int     `toml:"retry_attempts"`      // mutation retries, default 2
	RetryDelay         string  `toml:"retry_delay"`         // delay between retries, default "1s"
}

// GetFreshnessWindow parses and returns the cache freshness window
func (c *SyncConfig) GetFreshnessWindow() time.Duration {
	d, err := time.ParseDuration(c.FreshnessWindow)
	if err != nil {
		return FreshnessProfile
	}
	return d
}

// GetSyncDebounce parses and returns the synchronize debounce window
func (c *SyncConfig) GetSyncDebounce() time.Duration {
	d, err := time.ParseDuration(c.SyncDebounce)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetRetryDelay parses and returns the delay between retry attempts
func (c *SyncConfig) GetRetryDelay() time.Duration {
	d, err := time.ParseDuration(c.RetryDelay)
	if err != nil {
		return time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		API: APIConfig{
			BaseURL:   "http://127.0.0.1:8000/api",
			RateLimit: 10,
			Timeout:   "30s",
		},
		Storage: StorageConfig{
			Path: "data/cache",
		},
		Sync: SyncConfig{
			FreshnessWindow:    "5m",
			SyncDebounce:       "60s",
			ReconcileTolerance: 100,
			RetryAttempts:      2,
			RetryDelay:         "1s",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Outputs:    []string{"console"},
			FilePath:   "./logs/credsync.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CREDSYNC_ENV"); env != "" {
		config.Environment = env
	}

	if url := os.Getenv("CREDSYNC_API_URL"); url != "" {
		config.API.BaseURL = url
	}

	if level := os.Getenv("CREDSYNC_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("CREDSYNC_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if window := os.Getenv("CREDSYNC_FRESHNESS_WINDOW"); window != "" {
		config.Sync.FreshnessWindow = window
	}

	if attempts := os.Getenv("CREDSYNC_RETRY_ATTEMPTS"); attempts != "" {
		if n, err := strconv.Atoi(attempts); err == nil && n >= 0 {
			config.Sync.RetryAttempts = n
		}
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := c.Environment
	return env == "production" || env == "prod"
}
