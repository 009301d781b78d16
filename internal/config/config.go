// Package config loads engine configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the settings for the aide CLI and embedded deployments.
type Config struct {
	// StorageDriver selects the blob store backend: sqlite, bolt, or memory.
	StorageDriver string `env:"AIDE_STORAGE_DRIVER" envDefault:"sqlite"`
	// StoragePath is the database file path for file-backed drivers.
	StoragePath string `env:"AIDE_STORAGE_PATH" envDefault:"aide.db"`
	// LogLevel is a zerolog level name.
	LogLevel string `env:"AIDE_LOG_LEVEL" envDefault:"info"`
	// FreeTier controls whether published copies carry attribution.
	FreeTier bool `env:"AIDE_FREE_TIER" envDefault:"false"`
}

// Parse loads configuration from the environment.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
