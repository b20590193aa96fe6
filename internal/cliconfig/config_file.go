package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	DataDir       string `toml:"data_dir"`
	Backend       string `toml:"backend"`
	AccountKey    string `toml:"account_key"`
	ProjectsKey   string `toml:"projects_key"`
	TeamKey       string `toml:"team_key"`
	CleanupAfter  string `toml:"cleanup_after"`
	GracePeriod   string `toml:"grace_period"`
	DebounceDelay string `toml:"debounce"`
	SweepInterval string `toml:"sweep_interval"`
	PurgeStale    *bool  `toml:"purge_stale"`
	LogLevel      string `toml:"log_level"`
	MetricsFile   string `toml:"metrics_file"`
	JSON          *bool  `toml:"json"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.accountstore/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".accountstore", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("data-dir", fc.DataDir, &cfg.DataDir)
	s.setString("backend", fc.Backend, &cfg.Backend)
	s.setString("account-key", fc.AccountKey, &cfg.AccountKey)
	s.setString("projects-key", fc.ProjectsKey, &cfg.ProjectsKey)
	s.setString("team-key", fc.TeamKey, &cfg.TeamKey)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("metrics-file", fc.MetricsFile, &cfg.MetricsFile)

	if err := s.setDuration("cleanup-after", fc.CleanupAfter, &cfg.CleanupAfter); err != nil {
		return err
	}
	if err := s.setDuration("grace-period", fc.GracePeriod, &cfg.GracePeriod); err != nil {
		return err
	}
	if err := s.setDuration("debounce", fc.DebounceDelay, &cfg.DebounceDelay); err != nil {
		return err
	}
	if err := s.setDuration("sweep-interval", fc.SweepInterval, &cfg.SweepInterval); err != nil {
		return err
	}

	s.setBool("purge-stale", fc.PurgeStale, &cfg.PurgeStale)
	s.setBool("json", fc.JSON, &cfg.JSON)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
