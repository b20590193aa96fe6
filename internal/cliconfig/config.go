package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/accountstore/internal/domain"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendBuntDB = "buntdb"
)

// Config holds CLI configuration for accountstore.
type Config struct {
	DataDir string
	Backend string

	AccountKey  string
	ProjectsKey string
	TeamKey     string

	CleanupAfter  time.Duration
	GracePeriod   time.Duration
	DebounceDelay time.Duration
	SweepInterval time.Duration
	PurgeStale    bool

	LogLevel    string
	MetricsFile string
	JSON        bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		DataDir:       DefaultDataDir(),
		Backend:       BackendFile,
		AccountKey:    "account",
		ProjectsKey:   "projects",
		TeamKey:       "team",
		CleanupAfter:  domain.DefaultCleanupAfter,
		GracePeriod:   domain.DefaultGracePeriod,
		SweepInterval: time.Hour,
		LogLevel:      "info",
	}
}

// DefaultDataDir returns ~/.accountstore/data, or a relative directory if
// the home directory is unknown.
func DefaultDataDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".accountstore", "data")
	}
	return ".accountstore"
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data-dir is required", domain.ErrInvalidConfig)
	}

	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case BackendFile, BackendBuntDB:
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownBackend, c.Backend)
	}

	keys := map[string]bool{}
	for _, k := range []string{c.AccountKey, c.ProjectsKey, c.TeamKey} {
		if k == "" {
			return fmt.Errorf("%w: slot keys must not be empty", domain.ErrInvalidConfig)
		}
		if keys[k] {
			return fmt.Errorf("%w: duplicate slot key %q", domain.ErrInvalidConfig, k)
		}
		keys[k] = true
	}

	if c.CleanupAfter <= 0 {
		return fmt.Errorf("%w: cleanup-after must be positive", domain.ErrInvalidConfig)
	}
	if c.GracePeriod <= 0 {
		return fmt.Errorf("%w: grace-period must be positive", domain.ErrInvalidConfig)
	}
	if c.DebounceDelay < 0 {
		return fmt.Errorf("%w: debounce must not be negative", domain.ErrInvalidConfig)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("%w: sweep-interval must be positive", domain.ErrInvalidConfig)
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log-level: %v", domain.ErrInvalidConfig, err)
	}

	return nil
}

// Policy returns the lifecycle time windows.
func (c Config) Policy() domain.Policy {
	return domain.Policy{CleanupAfter: c.CleanupAfter, GracePeriod: c.GracePeriod}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
