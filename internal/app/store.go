package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/bft-labs/accountstore/internal/domain"
	"github.com/bft-labs/accountstore/internal/ports"
)

// Default slot keys.
const (
	DefaultAccountKey  = "account"
	DefaultProjectsKey = "projects"
	DefaultTeamKey     = "team"
)

// StoreConfig names the slots owned by the account and its collaborators.
type StoreConfig struct {
	AccountKey  string
	ProjectsKey string
	TeamKey     string
}

// SetDefaults fills empty slot keys.
func (c *StoreConfig) SetDefaults() {
	if c.AccountKey == "" {
		c.AccountKey = DefaultAccountKey
	}
	if c.ProjectsKey == "" {
		c.ProjectsKey = DefaultProjectsKey
	}
	if c.TeamKey == "" {
		c.TeamKey = DefaultTeamKey
	}
}

// Store owns the account record: profile, authentication flag, lifecycle
// status and settings. It writes the whole record to the account slot
// after every mutation.
//
// Mutations are applied in memory first. The only error a mutation can
// return comes from the slot store.
type Store struct {
	mu            sync.RWMutex
	cfg           StoreConfig
	lifecycle     *AccountLifecycle
	profile       domain.Profile
	authenticated bool
	settings      domain.Settings

	slots    ports.SlotStore
	projects ports.Resetter
	team     ports.Resetter
	clock    ports.Clock
	logger   ports.Logger
	newID    func() string
}

// NewStore creates a logged-out store. The project and team collaborators
// are reset on logout.
func NewStore(
	cfg StoreConfig,
	lifecycle *AccountLifecycle,
	slots ports.SlotStore,
	projects ports.Resetter,
	team ports.Resetter,
	clock ports.Clock,
	logger ports.Logger,
) *Store {
	cfg.SetDefaults()
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Store{
		cfg:       cfg,
		lifecycle: lifecycle,
		settings:  domain.DefaultSettings(),
		slots:     slots,
		projects:  projects,
		team:      team,
		clock:     clock,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Hydrate loads the account slot. A missing slot leaves the store logged
// out. An unreadable record resets the store to the logged-out defaults
// and ErrCorruptRecord is returned. A read error leaves the state unchanged.
func (s *Store) Hydrate(ctx context.Context) error {
	b, err := s.slots.Get(ctx, s.cfg.AccountKey)
	if err != nil {
		s.logger.Error("failed to load account", ports.String("key", s.cfg.AccountKey), ports.Err(err))
		return fmt.Errorf("load account: %w", err)
	}

	rec, err := domain.DecodeAccountRecord(b)
	if err != nil {
		s.logger.Warn("ignoring unreadable account record", ports.String("key", s.cfg.AccountKey), ports.Err(err))
		s.apply(domain.NewAccountRecord())
		return err
	}

	s.apply(rec)
	s.logger.Debug("account hydrated",
		ports.String("status", rec.Status.String()),
		ports.Bool("authenticated", rec.IsAuthenticated),
	)
	return nil
}

// Snapshot returns a copy of the current account record.
func (s *Store) Snapshot() domain.AccountRecord {
	s.mu.RLock()
	rec := domain.AccountRecord{
		Profile:         s.profile,
		IsAuthenticated: s.authenticated,
		Settings:        s.settings,
	}
	s.mu.RUnlock()
	rec.StatusRecord = s.lifecycle.Record()
	return rec
}

// Login records a successful sign-in. Empty input fields keep their
// previous values; an account ID is generated if none is known yet.
func (s *Store) Login(ctx context.Context, in domain.ProfileInput) error {
	s.mu.Lock()
	s.profile = s.profile.Merge(in)
	if s.profile.ID == "" {
		s.profile.ID = s.newID()
	}
	s.authenticated = true
	s.mu.Unlock()

	s.lifecycle.Login()
	return s.persist(ctx)
}

// UpdateProfile merges profile fields without touching the status.
func (s *Store) UpdateProfile(ctx context.Context, in domain.ProfileInput) error {
	s.mu.Lock()
	s.profile = s.profile.Merge(in)
	s.mu.Unlock()
	return s.persist(ctx)
}

// UpdateSettings applies a partial settings update. Rejected fields keep
// their previous value and are logged.
func (s *Store) UpdateSettings(ctx context.Context, patch domain.SettingsPatch) error {
	s.mu.Lock()
	next, rejected := s.settings.Apply(patch)
	s.settings = next
	s.mu.Unlock()

	for _, field := range rejected {
		s.logger.Warn("ignoring invalid setting", ports.String("field", field))
	}
	return s.persist(ctx)
}

// Confirm moves the account into normal standing.
func (s *Store) Confirm(ctx context.Context) error {
	s.lifecycle.Confirm()
	return s.persist(ctx)
}

// RequestDeletion starts the deletion grace period.
func (s *Store) RequestDeletion(ctx context.Context) error {
	s.lifecycle.RequestDeletion()
	return s.persist(ctx)
}

// CancelDeletion returns the account to Confirmed.
func (s *Store) CancelDeletion(ctx context.Context) error {
	s.lifecycle.CancelDeletion()
	return s.persist(ctx)
}

// Reset clears the account record and persists the empty record.
// Collaborators are left untouched.
func (s *Store) Reset(ctx context.Context) error {
	s.clear()
	s.lifecycle.Reset()
	return s.persist(ctx)
}

// Logout clears the account, resets the project and team collaborators
// once each and deletes the account, projects and team slots.
func (s *Store) Logout(ctx context.Context) error {
	s.clear()
	s.lifecycle.Logout()

	if s.projects != nil {
		s.projects.Reset()
	}
	if s.team != nil {
		s.team.Reset()
	}

	var errs []error
	for _, key := range []string{s.cfg.AccountKey, s.cfg.ProjectsKey, s.cfg.TeamKey} {
		if err := s.slots.Delete(ctx, key); err != nil {
			s.logger.Error("failed to clear slot", ports.String("key", key), ports.Err(err))
			errs = append(errs, fmt.Errorf("clear %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// Profile returns the current profile.
func (s *Store) Profile() domain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Settings returns the current settings.
func (s *Store) Settings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// IsAuthenticated returns the advisory sign-in flag.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Lifecycle returns the account status state machine.
func (s *Store) Lifecycle() *AccountLifecycle {
	return s.lifecycle
}

// Config returns the slot keys in use.
func (s *Store) Config() StoreConfig {
	return s.cfg
}

func (s *Store) apply(rec domain.AccountRecord) {
	s.mu.Lock()
	s.profile = rec.Profile
	s.authenticated = rec.IsAuthenticated
	s.settings = rec.Settings
	s.mu.Unlock()
	s.lifecycle.Restore(rec.StatusRecord)
}

func (s *Store) clear() {
	s.mu.Lock()
	s.profile = domain.Profile{}
	s.authenticated = false
	s.settings = domain.DefaultSettings()
	s.mu.Unlock()
}

func (s *Store) persist(ctx context.Context) error {
	b, err := domain.EncodeAccountRecord(s.Snapshot())
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	if err := s.slots.Set(ctx, s.cfg.AccountKey, b); err != nil {
		s.logger.Error("failed to persist account", ports.String("key", s.cfg.AccountKey), ports.Err(err))
		return fmt.Errorf("persist account: %w", err)
	}
	return nil
}
