package accountstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	buntdbAdapter "github.com/bft-labs/accountstore/internal/adapters/buntdb"
	"github.com/bft-labs/accountstore/internal/adapters/fs"
	"github.com/bft-labs/accountstore/internal/adapters/metrics"
	"github.com/bft-labs/accountstore/internal/adapters/persist"
	"github.com/bft-labs/accountstore/internal/app"
	"github.com/bft-labs/accountstore/internal/ports"
	"github.com/bft-labs/accountstore/pkg/log"
)

// AccountStore is the client-side account state container: the account
// lifecycle status, profile, settings and the project and team
// collaborators, persisted to durable slots.
// Use New() to create an instance, then Open() to load persisted state.
type AccountStore struct {
	config Config
	opts   options

	store     *app.Store
	lifecycle *app.AccountLifecycle
	projects  *app.ProjectList
	team      *app.TeamState

	slots     ports.SlotStore
	fileStore *fs.SlotFileStore
	debounced *persist.Debounced
	metrics   *metrics.Registry
	events    *eventFanout
	logger    ports.Logger

	plugins []Plugin
	sweeper *sweeper

	mu     sync.Mutex
	open   bool
	closed bool
	cancel context.CancelFunc
}

// New creates a new AccountStore with the given configuration.
// Nothing is read from storage until Open is called.
// Returns an error if configuration is invalid or the backend cannot be opened.
func New(cfg Config, opts ...Option) (*AccountStore, error) {
	// Set defaults
	cfg.SetDefaults()

	// Apply options
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	// Validate configuration
	if err := cfg.validate(o.slotStore == nil); err != nil {
		return nil, err
	}

	// Validate module version compatibility
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	logger := log.With(o.logger)

	a := &AccountStore{
		config:  cfg,
		opts:    o,
		logger:  logger,
		plugins: o.plugins,
		events:  &eventFanout{handlers: o.eventHandlers},
	}

	// Storage chain: backend, metrics, debounce, error reporting.
	slots := o.slotStore
	if slots == nil {
		var err error
		slots, a.fileStore, err = openBackend(cfg)
		if err != nil {
			return nil, err
		}
	}

	if o.metrics {
		a.metrics = metrics.NewRegistry()
		a.events.metrics = a.metrics
		slots = a.metrics.Instrument(slots)
	}

	if cfg.DebounceDelay > 0 {
		pc := persist.DefaultConfig()
		pc.Delay = cfg.DebounceDelay
		pc.Logger = log.With(logger, log.Component("persist"))
		pc.OnError = func(key string, err error) {
			a.events.persistError(key, err, true)
		}
		a.debounced = persist.NewDebounced(slots, pc)
		slots = a.debounced
	}

	a.slots = &reportingStore{inner: slots, report: func(key string, err error) {
		a.events.persistError(key, err, false)
	}}

	a.lifecycle = app.NewAccountLifecycle(cfg.policy(), o.clock, logger, a.events)
	a.projects = app.NewProjectList(cfg.ProjectsKey, a.slots, o.clock, logger)
	a.team = app.NewTeamState(cfg.TeamKey, a.slots, o.clock, logger)
	a.store = app.NewStore(cfg.storeConfig(), a.lifecycle, a.slots, a.projects, a.team, o.clock, logger)

	if o.sweeperConfig != nil {
		a.sweeper = newSweeper(*o.sweeperConfig, a, log.With(logger, log.Component("sweeper")))
	}

	return a, nil
}

func openBackend(cfg Config) (ports.SlotStore, *fs.SlotFileStore, error) {
	switch cfg.Backend {
	case BackendFile:
		fsStore := fs.NewSlotFileStore(cfg.DataDir)
		return fsStore, fsStore, nil
	case BackendBuntDB:
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		db, err := buntdbAdapter.Open(filepath.Join(cfg.DataDir, buntdbAdapter.DatabaseFile))
		if err != nil {
			return nil, nil, err
		}
		return db, nil, nil
	case BackendMemory:
		db, err := buntdbAdapter.Open(buntdbAdapter.InMemory)
		if err != nil {
			return nil, nil, err
		}
		return db, nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// Open loads the persisted slots, then initializes plugins and the sweeper.
// Unreadable records are logged and replaced by defaults; storage errors
// are returned. A failed Open releases storage and the store cannot be
// reopened.
func (a *AccountStore) Open(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.open {
		return ErrAlreadyOpen
	}
	if a.closed {
		return fmt.Errorf("%w: store closed", ErrStorageUnavailable)
	}

	if err := a.Rehydrate(ctx); err != nil {
		return errors.Join(err, a.releaseStorage())
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	// Initialize plugins
	pluginCfg := PluginConfig{
		DataDir:     a.config.DataDir,
		Backend:     a.config.Backend,
		AccountKey:  a.config.AccountKey,
		ProjectsKey: a.config.ProjectsKey,
		TeamKey:     a.config.TeamKey,
		SlotPath:    a.slotPath,
		Rehydrate:   a.Rehydrate,
	}
	for i, p := range a.plugins {
		pluginCfg.Logger = log.With(a.logger, log.Component(p.Name()))
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			a.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			a.shutdownPlugins(context.Background(), a.plugins[:i])
			cancel()
			return errors.Join(err, a.releaseStorage())
		}
		a.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	// Start sweeper if configured
	if a.sweeper != nil {
		a.sweeper.start(runCtx)
	}

	a.open = true
	return nil
}

// Close stops the sweeper and plugins, flushes pending writes and closes
// storage. A closed store cannot be reopened. Closing a store that was
// never opened only releases storage.
func (a *AccountStore) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrNotOpen
	}
	if !a.open {
		return a.releaseStorage()
	}

	if a.sweeper != nil {
		a.sweeper.stop()
	}
	if a.cancel != nil {
		a.cancel()
	}

	// Shutdown plugins (in reverse order)
	a.shutdownPlugins(ctx, a.plugins)

	a.open = false
	return a.releaseStorage()
}

// releaseStorage closes the slot chain. Callers hold a.mu.
func (a *AccountStore) releaseStorage() error {
	a.closed = true
	if err := a.slots.Close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	return nil
}

func (a *AccountStore) shutdownPlugins(ctx context.Context, plugins []Plugin) {
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			a.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
		} else {
			a.logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
		}
	}
}

// Rehydrate reloads the account, projects and team slots into memory.
func (a *AccountStore) Rehydrate(ctx context.Context) error {
	loaders := []struct {
		name string
		load func(context.Context) error
	}{
		{a.config.AccountKey, a.store.Hydrate},
		{a.config.ProjectsKey, a.projects.Load},
		{a.config.TeamKey, a.team.Load},
	}
	for _, l := range loaders {
		err := l.load(ctx)
		if errors.Is(err, ErrCorruptRecord) {
			a.logger.Warn("using defaults for unreadable slot", ports.String("key", l.name), ports.Err(err))
			continue
		}
		if err != nil {
			return err
		}
	}

	if a.metrics != nil {
		a.metrics.SetStatus(a.lifecycle.Status())
	}
	a.events.rehydrated(RehydrateEvent{
		Status:   a.lifecycle.Status(),
		Projects: a.projects.Count(),
		Members:  a.team.Count(),
	})
	return nil
}

// Flush writes any debounced slot writes now.
func (a *AccountStore) Flush(ctx context.Context) error {
	if a.debounced == nil {
		return nil
	}
	return a.debounced.Flush(ctx)
}

func (a *AccountStore) slotPath(key string) (string, bool) {
	if a.fileStore == nil {
		return "", false
	}
	p, err := a.fileStore.Path(key)
	return p, err == nil
}

// Login records a successful sign-in and marks the account NewAccount.
func (a *AccountStore) Login(ctx context.Context, profile ProfileInput) error {
	return a.store.Login(ctx, profile)
}

// UpdateProfile merges profile fields without touching the status.
func (a *AccountStore) UpdateProfile(ctx context.Context, profile ProfileInput) error {
	return a.store.UpdateProfile(ctx, profile)
}

// UpdateSettings applies a partial settings update.
func (a *AccountStore) UpdateSettings(ctx context.Context, patch SettingsPatch) error {
	return a.store.UpdateSettings(ctx, patch)
}

// Confirm moves the account into normal standing.
func (a *AccountStore) Confirm(ctx context.Context) error {
	return a.store.Confirm(ctx)
}

// RequestDeletion starts the deletion grace period.
func (a *AccountStore) RequestDeletion(ctx context.Context) error {
	return a.store.RequestDeletion(ctx)
}

// CancelDeletion returns the account to Confirmed.
func (a *AccountStore) CancelDeletion(ctx context.Context) error {
	return a.store.CancelDeletion(ctx)
}

// Logout clears the account and resets projects and team.
func (a *AccountStore) Logout(ctx context.Context) error {
	return a.store.Logout(ctx)
}

// Reset clears the account record only.
func (a *AccountStore) Reset(ctx context.Context) error {
	return a.store.Reset(ctx)
}

// Status returns the current account status.
func (a *AccountStore) Status() Status {
	return a.lifecycle.Status()
}

// StatusTimestamp returns the instant the current status was entered.
// ok is false when the status is Unset.
func (a *AccountStore) StatusTimestamp() (time.Time, bool) {
	return a.lifecycle.StatusTimestamp()
}

// Snapshot returns a copy of the current account record.
func (a *AccountStore) Snapshot() AccountRecord {
	return a.store.Snapshot()
}

// Profile returns the current profile.
func (a *AccountStore) Profile() Profile {
	return a.store.Profile()
}

// Settings returns the current settings.
func (a *AccountStore) Settings() Settings {
	return a.store.Settings()
}

// IsAuthenticated returns the advisory sign-in flag.
func (a *AccountStore) IsAuthenticated() bool {
	return a.store.IsAuthenticated()
}

// IsEligibleForCleanup reports whether the account stayed unconfirmed past
// the cleanup window.
func (a *AccountStore) IsEligibleForCleanup() bool {
	return a.lifecycle.IsEligibleForCleanup()
}

// IsInGracePeriod reports whether a deletion request can still be cancelled.
func (a *AccountStore) IsInGracePeriod() bool {
	return a.lifecycle.IsInGracePeriod()
}

// ShouldShowCreateModal reports whether a new account with projectCount
// projects should be prompted to create one.
func (a *AccountStore) ShouldShowCreateModal(projectCount int) bool {
	return a.lifecycle.ShouldShowCreateModal(projectCount)
}

// NeedsFirstProject is ShouldShowCreateModal for the store's own project list.
func (a *AccountStore) NeedsFirstProject() bool {
	return a.lifecycle.ShouldShowCreateModal(a.projects.Count())
}

// AddProject creates a project.
func (a *AccountStore) AddProject(ctx context.Context, name string) (Project, error) {
	return a.projects.Add(ctx, name)
}

// RemoveProject deletes a project by ID and reports whether it existed.
func (a *AccountStore) RemoveProject(ctx context.Context, id string) (bool, error) {
	return a.projects.Remove(ctx, id)
}

// Projects returns the projects in insertion order.
func (a *AccountStore) Projects() []Project {
	return a.projects.List()
}

// AddMember invites a team member. An empty role defaults to member.
func (a *AccountStore) AddMember(ctx context.Context, email string, role Role) (Member, error) {
	return a.team.Add(ctx, email, role)
}

// RemoveMember deletes a member by ID or email and reports whether it existed.
func (a *AccountStore) RemoveMember(ctx context.Context, idOrEmail string) (bool, error) {
	return a.team.Remove(ctx, idOrEmail)
}

// Members returns the team in insertion order.
func (a *AccountStore) Members() []Member {
	return a.team.List()
}

// Sweep runs the stale-account check once. With purge set, an account
// eligible for cleanup is logged out.
func (a *AccountStore) Sweep(ctx context.Context, purge bool) (SweepResult, error) {
	return a.sweep(ctx, purge)
}

// Gatherer returns the metrics registry, or nil without WithMetrics.
func (a *AccountStore) Gatherer() prometheus.Gatherer {
	if a.metrics == nil {
		return nil
	}
	return a.metrics.Gatherer()
}

// WriteMetrics writes the metrics to path in the Prometheus text format.
// It is a no-op without WithMetrics.
func (a *AccountStore) WriteMetrics(path string) error {
	if a.metrics == nil || path == "" {
		return nil
	}
	return a.metrics.WriteTextfile(path)
}

// validateModuleVersions checks that all module versions are compatible.
// Returns an error if any module version is below its minimum compatible version.
func validateModuleVersions() error {
	modules := map[string]struct {
		version    string
		minVersion string
	}{
		"log": {log.Version, log.MinCompatibleVersion},
	}

	for name, m := range modules {
		if !isVersionCompatible(m.version, m.minVersion) {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, m.version, m.minVersion)
		}
	}

	return nil
}

// isVersionCompatible checks if version >= minVersion using semantic versioning.
// Assumes versions are in format "major.minor.patch".
func isVersionCompatible(version, minVersion string) bool {
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	_, _ = fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch)
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}
