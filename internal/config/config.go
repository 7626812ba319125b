// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and MDP_ environment variables over the defaults.
// - Errors wrap ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // display_timezone must resolve on hosts without zoneinfo
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile, when set, also writes logs to a size-rotated file.
	LogFile string `koanf:"log_file"`

	// LogJSON switches the log format from text to JSON.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":3001".
	Addr string `koanf:"addr"`

	// DataFile is the JSON file holding every evaluation.
	DataFile string `koanf:"data_file"`

	// DisplayTimezone renders submittedAt, e.g. "America/Chicago".
	DisplayTimezone string `koanf:"display_timezone"`

	// IdempotencySize bounds how many Idempotency-Key values are remembered.
	IdempotencySize int `koanf:"idempotency_size"`

	// StatsCacheTTL bounds how long a computed summary is served from cache.
	StatsCacheTTL time.Duration `koanf:"stats_cache_ttl"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// Production enables HSTS and other TLS-only behaviour.
	Production bool `koanf:"production"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":3001",
		DataFile:        "data/data.json",
		DisplayTimezone: "America/Chicago",
		IdempotencySize: 10_000,
		StatsCacheTTL:   30 * time.Second,
		MaxBodyBytes:    1 << 20,
	}
}

// Location resolves DisplayTimezone. An empty zone means UTC.
func (c *Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.DisplayTimezone) == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("%w: display_timezone %q: %v", ErrInvalidConfig, c.DisplayTimezone, err)
	}
	return loc, nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DataFile) == "":
		return fmt.Errorf("%w: data_file must not be empty", ErrInvalidConfig)
	case c.IdempotencySize <= 0:
		return fmt.Errorf("%w: idempotency_size must be positive", ErrInvalidConfig)
	case c.StatsCacheTTL <= 0:
		return fmt.Errorf("%w: stats_cache_ttl must be positive", ErrInvalidConfig)
	case c.MaxBodyBytes <= 0:
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	_, err := c.Location()
	return err
}
