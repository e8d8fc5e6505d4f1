// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"landed-cost/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Database contains rate database configuration
	Database DatabaseConfig `json:"database"`

	// FxFeed contains exchange-rate feed configuration
	FxFeed FxFeedConfig `json:"fx_feed"`

	// Run contains pricing-run defaults
	Run RunConfig `json:"run"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// DatabaseConfig contains rate database settings
type DatabaseConfig struct {
	// Path is the SQLite database file
	Path string `json:"path"`
}

// FxFeedConfig contains exchange-rate feed settings
type FxFeedConfig struct {
	// APIKey authenticates against exchangerate-api.com
	APIKey string `json:"api_key,omitempty"`

	// BaseURL overrides the feed endpoint; empty selects the public one
	BaseURL string `json:"base_url,omitempty"`

	// MaxAgeHours is how old a stored FX record may be before the feed
	// is consulted
	MaxAgeHours int `json:"max_age_hours"`
}

// RunConfig contains pricing-run defaults
type RunConfig struct {
	// DefaultDestination is used when a run file omits the destination
	DefaultDestination string `json:"default_destination"`

	// Workers bounds per-run item parallelism
	Workers int `json:"workers"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dbPath := filepath.Join(homeDir, ".landed-cost", "rates.db")

	return &Config{
		Version: "1.0",
		Database: DatabaseConfig{
			Path: dbPath,
		},
		FxFeed: FxFeedConfig{
			MaxAgeHours: 24,
		},
		Run: RunConfig{
			DefaultDestination: "UK",
			Workers:            4,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
