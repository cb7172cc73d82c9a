// Package config provides centralized configuration management for unitcat.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
// Command-line flags override the loaded values before the per-command
// checks run.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Source   SourceConfig
	Output   OutputConfig
	Curated  CuratedConfig
	Logging  LoggingConfig
	Database DatabaseConfig
}

// SourceConfig locates the two unit sources.
type SourceConfig struct {
	// UomDir is the directory of unit-definition source files
	UomDir string `env:"UNITCAT_UOM_DIR"`

	// Exclude lists file names in UomDir that are not unit definitions
	Exclude []string `env:"UNITCAT_UOM_EXCLUDE" default:"mod.rs,prefix.rs"`

	// Ext is the extension of unit-definition files (default: .rs)
	Ext string `env:"UNITCAT_UOM_EXT" default:".rs"`

	// PrefixedFile is the JSON-lines catalog of prefix-expanded units
	PrefixedFile string `env:"UNITCAT_PREFIXED_FILE"`
}

// OutputConfig holds where and how catalogs are written.
type OutputConfig struct {
	// Path is the final catalog (default: units_of_measurement.jsonl)
	Path string `env:"UNITCAT_OUTPUT" default:"units_of_measurement.jsonl"`

	// UomPath optionally receives the resolved library catalog
	UomPath string `env:"UNITCAT_UOM_OUTPUT"`

	// ValidateSchema runs the JSON Schema check before writing (default: true)
	ValidateSchema bool `env:"UNITCAT_VALIDATE_SCHEMA" default:"true"`
}

// CuratedConfig selects the curated tables.
type CuratedConfig struct {
	// File replaces the embedded curated tables when set
	File string `env:"UNITCAT_CURATED_FILE"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// DatabaseConfig holds the settings of the publish target. Only the publish
// command needs them.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// Table receives the catalog (default: units_of_measurement)
	Table string `env:"UNITCAT_DB_TABLE" default:"units_of_measurement"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// Timeout bounds a whole publish (default: 30s)
	Timeout time.Duration `env:"DB_TIMEOUT" default:"30s"`
}
