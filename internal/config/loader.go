package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		// Skip unexported fields
		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		// Get tags
		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		// Apply default if not set
		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		// Set the field value
		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		// Handle time.Duration specially
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			// Split comma-separated values, trim whitespace
			parts := strings.Split(value, ",")
			result := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					result = append(result, p)
				}
			}
			field.Set(reflect.ValueOf(result))
		} else {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Source validation
	if c.Source.Ext != "" && !strings.HasPrefix(c.Source.Ext, ".") {
		errs = append(errs, fmt.Sprintf("UNITCAT_UOM_EXT (%q) must start with '.'", c.Source.Ext))
	}

	// Output validation
	if c.Output.Path == "" {
		errs = append(errs, "UNITCAT_OUTPUT must not be empty")
	}
	if c.Output.UomPath != "" && c.Output.UomPath == c.Output.Path {
		errs = append(errs, "UNITCAT_UOM_OUTPUT must differ from UNITCAT_OUTPUT")
	}

	// Database validation
	if c.Database.MaxConns < c.Database.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Database.MaxConns, c.Database.MinConns))
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}
	if c.Database.Timeout <= 0 {
		errs = append(errs, "DB_TIMEOUT must be positive")
	}
	if c.Database.Table == "" {
		errs = append(errs, "UNITCAT_DB_TABLE must not be empty")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	return joinErrors(errs)
}

// ValidateBuild checks what the build command needs beyond Validate.
func (c *Config) ValidateBuild() error {
	var errs []string
	if c.Source.UomDir == "" {
		errs = append(errs, "UNITCAT_UOM_DIR (--uom-dir) is required")
	}
	if c.Source.PrefixedFile == "" {
		errs = append(errs, "UNITCAT_PREFIXED_FILE (--prefixed) is required")
	}
	return joinErrors(errs)
}

// ValidateExtract checks what the extract command needs beyond Validate.
func (c *Config) ValidateExtract() error {
	var errs []string
	if c.Source.UomDir == "" {
		errs = append(errs, "UNITCAT_UOM_DIR (--uom-dir) is required")
	}
	if c.Output.UomPath == "" {
		errs = append(errs, "UNITCAT_UOM_OUTPUT (--output) is required")
	}
	return joinErrors(errs)
}

// ValidatePublish checks what the publish command needs beyond Validate.
func (c *Config) ValidatePublish() error {
	if c.Database.URL == "" {
		return joinErrors([]string{"DATABASE_URL is required"})
	}
	return nil
}

func joinErrors(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Source: {UomDir: %q, Ext: %q, Exclude: %q, PrefixedFile: %q}, ",
		c.Source.UomDir, c.Source.Ext, c.Source.Exclude, c.Source.PrefixedFile))
	b.WriteString(fmt.Sprintf("Output: {Path: %q, UomPath: %q, ValidateSchema: %v}, ",
		c.Output.Path, c.Output.UomPath, c.Output.ValidateSchema))
	b.WriteString(fmt.Sprintf("Curated: {File: %q}, ", c.Curated.File))
	url := ""
	if c.Database.URL != "" {
		url = "[MASKED]"
	}
	b.WriteString(fmt.Sprintf("Database: {URL: %s, Table: %q, MaxConns: %d, MinConns: %d}, ",
		url, c.Database.Table, c.Database.MaxConns, c.Database.MinConns))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
