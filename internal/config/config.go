// Package config provides configuration management for the bulletin mirror.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"imemirror/internal/models"

	"gopkg.in/yaml.v3"
)

// BaseURL is the fixed root under which every court publishes its bulletins.
const BaseURL = "https://www.justiciachaco.gov.ar/IME/Resistencia/Civil"

// DefaultTimezone is used when no time zone is configured.
const DefaultTimezone = "America/Argentina/Cordoba"

// Configuration validation errors.
var (
	ErrNoCourts            = errors.New("at least one court is required")
	ErrCourtMissingNumber  = errors.New("court number is required")
	ErrCourtMissingPath    = errors.New("court path is required")
	ErrDuplicateCourt      = errors.New("court number is listed more than once")
	ErrInvalidTimezone     = errors.New("mirror.timezone is not a known IANA zone")
	ErrInvalidRelayBase    = errors.New("mirror.relay_base must be an absolute http(s) URL")
	ErrInvalidMaxAttempts  = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidBackoff      = errors.New("retry.backoff_ms must be non-negative")
	ErrInvalidTimeout      = errors.New("retry.timeout_sec must be at least 1")
	ErrInvalidConcurrency  = errors.New("crawler.concurrency must be at least 1")
	ErrMissingOutputRoot   = errors.New("output.root is required")
	ErrInvalidLogLevel     = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat    = errors.New("logging.format must be 'text' or 'json'")
	ErrInvalidMaxBodySize  = errors.New("advanced.max_body_kb must be at least 1")
	ErrInvalidCourtsSource = errors.New("JUZGADOS_JSON is not a valid court list")
)

// Config represents the complete mirror configuration.
type Config struct {
	Mirror   MirrorConfig   `yaml:"mirror"`
	Crawler  CrawlerConfig  `yaml:"crawler"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
	Advanced AdvancedConfig `yaml:"advanced"`
}

// MirrorConfig describes what is mirrored.
type MirrorConfig struct {
	Timezone  string         `yaml:"timezone"`
	RelayBase string         `yaml:"relay_base"`
	Courts    []models.Court `yaml:"courts"`
}

// CrawlerConfig contains fetch settings.
type CrawlerConfig struct {
	UserAgent   string      `yaml:"user_agent"`
	Retry       RetryPolicy `yaml:"retry"`
	Concurrency int         `yaml:"concurrency"`
}

// RetryPolicy defines per-candidate retry behavior.
type RetryPolicy struct {
	MaxAttempts int `yaml:"max_attempts"`
	BackoffMs   int `yaml:"backoff_ms"`
	TimeoutSec  int `yaml:"timeout_sec"`
}

// OutputConfig defines where run artifacts are written.
type OutputConfig struct {
	Root string `yaml:"root"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AdvancedConfig contains advanced settings.
type AdvancedConfig struct {
	MaxBodyKb int `yaml:"max_body_kb"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Mirror: MirrorConfig{
			Timezone: DefaultTimezone,
		},
		Crawler: CrawlerConfig{
			Retry: RetryPolicy{
				MaxAttempts: 3,
				BackoffMs:   1000,
				TimeoutSec:  25,
			},
			Concurrency: 1,
		},
		Output: OutputConfig{
			Root: ".",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Advanced: AdvancedConfig{
			MaxBodyKb: 2048,
		},
	}
}

// ParseConfig decodes YAML on top of the defaults without validating.
func ParseConfig(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Mirror.Courts) == 0 {
		return ErrNoCourts
	}

	seen := make(map[string]bool, len(c.Mirror.Courts))

	for i, court := range c.Mirror.Courts {
		number := strings.TrimSpace(court.Number)
		if number == "" {
			return fmt.Errorf("%w: courts[%d]", ErrCourtMissingNumber, i)
		}

		if seen[number] {
			return fmt.Errorf("%w: courts[%d] %q", ErrDuplicateCourt, i, number)
		}

		seen[number] = true

		if strings.TrimSpace(court.Path) == "" {
			return fmt.Errorf("%w: courts[%d]", ErrCourtMissingPath, i)
		}
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if c.Mirror.RelayBase != "" {
		u, err := url.Parse(c.Mirror.RelayBase)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidRelayBase, c.Mirror.RelayBase)
		}
	}

	if c.Crawler.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Crawler.Retry.BackoffMs < 0 {
		return ErrInvalidBackoff
	}

	if c.Crawler.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Crawler.Concurrency < 1 {
		return ErrInvalidConcurrency
	}

	if c.Output.Root == "" {
		return ErrMissingOutputRoot
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	if c.Advanced.MaxBodyKb < 1 {
		return ErrInvalidMaxBodySize
	}

	return nil
}

// Location resolves the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	name := c.Mirror.Timezone
	if name == "" {
		name = DefaultTimezone
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidTimezone, name, err)
	}

	return loc, nil
}

// GetTimeout returns the per-attempt timeout.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Courts: %d, Timezone: %s, MaxAttempts: %d, Relay: %t, Root: %s}",
		len(c.Mirror.Courts),
		c.Mirror.Timezone,
		c.Crawler.Retry.MaxAttempts,
		c.Mirror.RelayBase != "",
		c.Output.Root,
	)
}
