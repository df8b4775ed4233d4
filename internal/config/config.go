package config

import (
	"os"
	"strconv"

	"hierarchstats/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Defaults TestDefaults
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// TestDefaults holds the iteration budgets applied when a request leaves
// them unset.
type TestDefaults struct {
	Permutations int
	Bootstraps   int
	Workers      int
	Coverage     float64
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Defaults: TestDefaults{
			Permutations: getEnvInt("HIERARCH_PERMUTATIONS", 1000),
			Bootstraps:   getEnvInt("HIERARCH_BOOTSTRAPS", 100),
			Workers:      getEnvInt("HIERARCH_WORKERS", 4),
			Coverage:     getEnvFloat("HIERARCH_COVERAGE", 0),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Defaults.Permutations < 1 {
		return errors.ConfigInvalid("HIERARCH_PERMUTATIONS must be positive")
	}
	if c.Defaults.Bootstraps < 1 {
		return errors.ConfigInvalid("HIERARCH_BOOTSTRAPS must be positive")
	}
	if c.Defaults.Workers < 1 {
		return errors.ConfigInvalid("HIERARCH_WORKERS must be positive")
	}
	if c.Defaults.Coverage < 0 || c.Defaults.Coverage >= 1 {
		return errors.ConfigInvalid("HIERARCH_COVERAGE must be in [0, 1)")
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
