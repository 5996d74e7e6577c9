// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the SMTP credential auditor.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default values applied before any file or environment override.
const (
	DefaultRecipient      = "yourmail@mail.com"
	DefaultTimeoutSeconds = 12
	DefaultWorkers        = 1
	DefaultHELO           = "localhost"
)

// Config holds the complete application configuration.
type Config struct {
	Audit   AuditConfig   `yaml:"audit"`
	Logging LoggingConfig `yaml:"logging"`
}

// AuditConfig holds the settings driving the connection attempts.
type AuditConfig struct {
	// Recipient receives the test message of every non-dry-run attempt.
	Recipient string `yaml:"recipient"`

	// TimeoutSeconds bounds each blocking network step of an attempt.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// Workers is the number of concurrent attempts; 1 means sequential.
	Workers int `yaml:"workers"`

	// Rate caps attempt starts per second across all workers; 0 disables
	// the limit.
	Rate float64 `yaml:"rate"`

	DryRun   bool   `yaml:"dry_run"`
	NoColor  bool   `yaml:"no_color"`
	Insecure bool   `yaml:"insecure"`
	HELO     string `yaml:"helo"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer, then
// overrides with environment variables. Returns an error if the specified
// file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.Audit.Recipient = DefaultRecipient
	c.Audit.TimeoutSeconds = DefaultTimeoutSeconds
	c.Audit.Workers = DefaultWorkers
	c.Audit.HELO = DefaultHELO
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("RECIPIENT"); v != "" {
		c.Audit.Recipient = v
	}
	if v := os.Getenv("TIMEOUT_SECONDS"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			c.Audit.TimeoutSeconds = seconds
		}
	}
	if v := os.Getenv("WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil {
			c.Audit.Workers = workers
		}
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			c.Audit.Rate = rate
		}
	}
	if v := os.Getenv("DRY_RUN"); v != "" {
		c.Audit.DryRun = isTruthy(v)
	}
	if v := os.Getenv("NO_COLOR"); v != "" {
		c.Audit.NoColor = isTruthy(v)
	}
	if v := os.Getenv("INSECURE_TLS"); v != "" {
		c.Audit.Insecure = isTruthy(v)
	}
	if v := os.Getenv("HELO_NAME"); v != "" {
		c.Audit.HELO = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
