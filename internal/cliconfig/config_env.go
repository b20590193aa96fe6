package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (ACCOUNTSTORE_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("data-dir", os.Getenv("ACCOUNTSTORE_DATA_DIR"), &cfg.DataDir)
	s.setString("backend", os.Getenv("ACCOUNTSTORE_BACKEND"), &cfg.Backend)
	s.setString("account-key", os.Getenv("ACCOUNTSTORE_ACCOUNT_KEY"), &cfg.AccountKey)
	s.setString("projects-key", os.Getenv("ACCOUNTSTORE_PROJECTS_KEY"), &cfg.ProjectsKey)
	s.setString("team-key", os.Getenv("ACCOUNTSTORE_TEAM_KEY"), &cfg.TeamKey)
	s.setString("log-level", os.Getenv("ACCOUNTSTORE_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("metrics-file", os.Getenv("ACCOUNTSTORE_METRICS_FILE"), &cfg.MetricsFile)

	if err := s.setDuration("cleanup-after", os.Getenv("ACCOUNTSTORE_CLEANUP_AFTER"), &cfg.CleanupAfter); err != nil {
		return err
	}
	if err := s.setDuration("grace-period", os.Getenv("ACCOUNTSTORE_GRACE_PERIOD"), &cfg.GracePeriod); err != nil {
		return err
	}
	if err := s.setDuration("debounce", os.Getenv("ACCOUNTSTORE_DEBOUNCE"), &cfg.DebounceDelay); err != nil {
		return err
	}
	if err := s.setDuration("sweep-interval", os.Getenv("ACCOUNTSTORE_SWEEP_INTERVAL"), &cfg.SweepInterval); err != nil {
		return err
	}

	s.setBoolFromString("purge-stale", os.Getenv("ACCOUNTSTORE_PURGE_STALE"), &cfg.PurgeStale)
	s.setBoolFromString("json", os.Getenv("ACCOUNTSTORE_JSON"), &cfg.JSON)

	return nil
}
