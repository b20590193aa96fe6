package accountstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/bft-labs/accountstore/internal/app"
	"github.com/bft-labs/accountstore/internal/domain"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendBuntDB = "buntdb"
	BackendMemory = "memory"
)

// Config holds the configuration for an AccountStore.
type Config struct {
	// DataDir is the directory holding the persisted slots.
	// Required unless Backend is BackendMemory or a SlotStore is injected.
	DataDir string

	// Backend selects the slot store. Default: BackendFile
	Backend string

	// AccountKey, ProjectsKey and TeamKey name the persisted slots.
	// Defaults: "account", "projects", "team"
	AccountKey  string
	ProjectsKey string
	TeamKey     string

	// CleanupAfter is how long an account may stay NewAccount before it is
	// eligible for cleanup. Default: 30 days
	CleanupAfter time.Duration

	// GracePeriod is how long a deletion request may be cancelled.
	// Default: 7 days
	GracePeriod time.Duration

	// DebounceDelay coalesces writes to the same slot. Zero writes through.
	DebounceDelay time.Duration
}

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendFile
	}
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.AccountKey == "" {
		c.AccountKey = app.DefaultAccountKey
	}
	if c.ProjectsKey == "" {
		c.ProjectsKey = app.DefaultProjectsKey
	}
	if c.TeamKey == "" {
		c.TeamKey = app.DefaultTeamKey
	}
	if c.CleanupAfter == 0 {
		c.CleanupAfter = domain.DefaultCleanupAfter
	}
	if c.GracePeriod == 0 {
		c.GracePeriod = domain.DefaultGracePeriod
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	return c.validate(true)
}

// validate checks the configuration. requireDir is false when a slot store
// is injected and the backend is never opened.
func (c Config) validate(requireDir bool) error {
	switch c.Backend {
	case BackendFile, BackendBuntDB:
		if requireDir && c.DataDir == "" {
			return fmt.Errorf("%w: DataDir is required for the %s backend", ErrInvalidConfig, c.Backend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}

	if c.AccountKey == c.ProjectsKey || c.AccountKey == c.TeamKey || c.ProjectsKey == c.TeamKey {
		return fmt.Errorf("%w: slot keys must be distinct", ErrInvalidConfig)
	}
	if c.CleanupAfter < 0 || c.GracePeriod < 0 {
		return fmt.Errorf("%w: time windows must be positive", ErrInvalidConfig)
	}
	if c.DebounceDelay < 0 {
		return fmt.Errorf("%w: DebounceDelay must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (c Config) policy() domain.Policy {
	return domain.Policy{CleanupAfter: c.CleanupAfter, GracePeriod: c.GracePeriod}
}

func (c Config) storeConfig() app.StoreConfig {
	return app.StoreConfig{
		AccountKey:  c.AccountKey,
		ProjectsKey: c.ProjectsKey,
		TeamKey:     c.TeamKey,
	}
}
