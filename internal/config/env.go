package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"imemirror/internal/models"

	"github.com/adrg/xdg"
)

// Environment variables read by ApplyEnv.
const (
	EnvCourts    = "JUZGADOS_JSON"
	EnvTimezone  = "TZ"
	EnvRelayBase = "IME_RELAY_BASE"
	EnvLogLevel  = "LOG_LEVEL"
)

// LocalConfigPath is checked when no explicit or XDG config file exists.
const LocalConfigPath = "configs/mirror.yaml"

// xdgConfigName is the config file path relative to the XDG config dirs.
const xdgConfigName = "ime-mirror/config.yaml"

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides configuration from environment variables.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if raw, ok := lookup(EnvCourts); ok && strings.TrimSpace(raw) != "" {
		var courts []models.Court
		if err := json.Unmarshal([]byte(raw), &courts); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCourtsSource, err)
		}

		c.Mirror.Courts = courts
	}

	if tz, ok := lookup(EnvTimezone); ok && tz != "" {
		c.Mirror.Timezone = tz
	}

	if relay, ok := lookup(EnvRelayBase); ok {
		c.Mirror.RelayBase = strings.TrimSpace(relay)
	}

	if level, ok := lookup(EnvLogLevel); ok && level != "" {
		c.Logging.Level = strings.ToLower(level)
	}

	return nil
}

// FindConfigFile returns the first existing config file from the XDG config
// directories or the working directory, or "" if there is none.
func FindConfigFile() string {
	if path, err := xdg.SearchConfigFile(xdgConfigName); err == nil {
		return path
	}

	if _, err := os.Stat(LocalConfigPath); err == nil {
		return LocalConfigPath
	}

	return ""
}

// Load builds an unvalidated configuration from the given YAML file (or the
// discovered one when path is empty) and the environment.
func Load(path string, lookup LookupFunc) (*Config, error) {
	if path == "" {
		path = FindConfigFile()
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		cfg, err = ParseConfig(data)
		if err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	return cfg, nil
}
