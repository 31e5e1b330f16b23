// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and VRAI_* environment variables.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// ServiceName is reported by the root status endpoint.
	ServiceName string `koanf:"service_name"`

	// RateLimitPerMinute caps POST /analyze per client IP. Zero disables the limit.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`

	// StoreEnabled toggles persistence of analysis results.
	StoreEnabled bool `koanf:"store_enabled"`

	// StoreDir is the base directory of the document store.
	StoreDir string `koanf:"store_dir"`

	// StoreInMemory keeps documents in memory only (nothing survives a restart).
	StoreInMemory bool `koanf:"store_in_memory"`

	// DatabaseName names the store directory under StoreDir.
	DatabaseName string `koanf:"database_name"`

	// ContainerName namespaces analysis documents inside the database.
	ContainerName string `koanf:"container_name"`

	// StoreTimeoutSeconds bounds a single document write.
	StoreTimeoutSeconds int `koanf:"store_timeout_seconds"`

	// StoreMaxRetryAttempts and StoreRetryIntervalMS shape retries of transient write failures.
	StoreMaxRetryAttempts int `koanf:"store_max_retry_attempts"`
	StoreRetryIntervalMS  int `koanf:"store_retry_interval_ms"`

	// BreakerFailureThreshold consecutive write failures open the store circuit breaker
	// for BreakerTimeoutSeconds.
	BreakerFailureThreshold int `koanf:"breaker_failure_threshold"`
	BreakerTimeoutSeconds   int `koanf:"breaker_timeout_seconds"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":8000",
		ServiceName:             "VRAI Simulation Data Analyzer API",
		RateLimitPerMinute:      600,
		StoreEnabled:            true,
		StoreDir:                "data",
		StoreInMemory:           false,
		DatabaseName:            "data-analyzer",
		ContainerName:           "analysis-results",
		StoreTimeoutSeconds:     30,
		StoreMaxRetryAttempts:   3,
		StoreRetryIntervalMS:    5000,
		BreakerFailureThreshold: 5,
		BreakerTimeoutSeconds:   30,
	}
}

// Validate checks the values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case c.RateLimitPerMinute < 0:
		return fmt.Errorf("%w: rate_limit_per_minute must not be negative", ErrInvalidConfig)
	case c.StoreTimeoutSeconds <= 0:
		return fmt.Errorf("%w: store_timeout_seconds must be positive", ErrInvalidConfig)
	case c.StoreMaxRetryAttempts < 1:
		return fmt.Errorf("%w: store_max_retry_attempts must be at least 1", ErrInvalidConfig)
	case c.StoreRetryIntervalMS < 0:
		return fmt.Errorf("%w: store_retry_interval_ms must not be negative", ErrInvalidConfig)
	case c.BreakerFailureThreshold < 1:
		return fmt.Errorf("%w: breaker_failure_threshold must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// PersistenceAvailable reports whether the persistence settings are enabled and usable.
// It does not touch the store.
func (c *Config) PersistenceAvailable() bool {
	if !c.StoreEnabled {
		return false
	}
	if strings.TrimSpace(c.ContainerName) == "" {
		return false
	}
	if c.StoreInMemory {
		return true
	}
	return strings.TrimSpace(c.StoreDir) != "" && strings.TrimSpace(c.DatabaseName) != ""
}

// StorePath is the on-disk location of the document store.
func (c *Config) StorePath() string {
	return filepath.Join(c.StoreDir, c.DatabaseName)
}

// StoreTimeout returns StoreTimeoutSeconds as a duration.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutSeconds) * time.Second
}

// StoreRetryInterval returns StoreRetryIntervalMS as a duration.
func (c *Config) StoreRetryInterval() time.Duration {
	return time.Duration(c.StoreRetryIntervalMS) * time.Millisecond
}

// BreakerTimeout returns BreakerTimeoutSeconds as a duration.
func (c *Config) BreakerTimeout() time.Duration {
	return time.Duration(c.BreakerTimeoutSeconds) * time.Second
}
