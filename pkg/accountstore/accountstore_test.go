package accountstore_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/accountstore/pkg/accountstore"
)

// =============================================================================
// Test Utilities
// =============================================================================

// testLogger implements accountstore.Logger for capturing log output in tests.
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, fields ...accountstore.LogField) { l.log("DEBUG", msg) }
func (l *testLogger) Info(msg string, fields ...accountstore.LogField)  { l.log("INFO", msg) }
func (l *testLogger) Warn(msg string, fields ...accountstore.LogField)  { l.log("WARN", msg) }
func (l *testLogger) Error(msg string, fields ...accountstore.LogField) { l.log("ERROR", msg) }

func (l *testLogger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("[%s] %s", level, msg))
}

func (l *testLogger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}

// fixedClock is a manually advanced clock.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock() *fixedClock {
	return &fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// eventTracker records store events.
type eventTracker struct {
	accountstore.BaseEventHandler
	mu            sync.Mutex
	statusChanges []accountstore.StatusChangeEvent
	persistErrors []accountstore.PersistErrorEvent
	rehydrates    []accountstore.RehydrateEvent
}

func (e *eventTracker) OnStatusChange(event accountstore.StatusChangeEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statusChanges = append(e.statusChanges, event)
}

func (e *eventTracker) OnPersistError(event accountstore.PersistErrorEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.persistErrors = append(e.persistErrors, event)
}

func (e *eventTracker) OnRehydrate(event accountstore.RehydrateEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rehydrates = append(e.rehydrates, event)
}

func (e *eventTracker) StatusChanges() []accountstore.StatusChangeEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]accountstore.StatusChangeEvent(nil), e.statusChanges...)
}

func (e *eventTracker) PersistErrors() []accountstore.PersistErrorEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]accountstore.PersistErrorEvent(nil), e.persistErrors...)
}

// trackingPlugin records initialization and shutdown calls.
type trackingPlugin struct {
	name          string
	order         *[]string
	initError     error
	shutdownError error
	cfg           accountstore.PluginConfig
}

func (p *trackingPlugin) Name() string { return p.name }

func (p *trackingPlugin) Initialize(ctx context.Context, cfg accountstore.PluginConfig) error {
	if p.initError != nil {
		return p.initError
	}
	p.cfg = cfg
	*p.order = append(*p.order, "init:"+p.name)
	return nil
}

func (p *trackingPlugin) Shutdown(ctx context.Context) error {
	*p.order = append(*p.order, "shutdown:"+p.name)
	return p.shutdownError
}

// brokenStore fails every write.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, nil }
func (brokenStore) Set(context.Context, string, []byte) error   { return errors.New("disk full") }
func (brokenStore) Delete(context.Context, string) error        { return nil }
func (brokenStore) Close() error                                { return nil }

// unreadableStore fails every read and records Close.
type unreadableStore struct {
	closed bool
}

func (*unreadableStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk gone")
}
func (*unreadableStore) Set(context.Context, string, []byte) error { return nil }
func (*unreadableStore) Delete(context.Context, string) error      { return nil }
func (s *unreadableStore) Close() error {
	s.closed = true
	return nil
}

func openStore(t *testing.T, cfg accountstore.Config, opts ...accountstore.Option) *accountstore.AccountStore {
	t.Helper()
	s, err := accountstore.New(cfg, opts...)
	require.NoError(t, err)
	require.NoError(t, s.Open(context.Background()))
	return s
}

// =============================================================================
// Configuration
// =============================================================================

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  accountstore.Config
		want error
	}{
		{"file backend without dir", accountstore.Config{}, accountstore.ErrInvalidConfig},
		{"unknown backend", accountstore.Config{Backend: "etcd"}, accountstore.ErrUnknownBackend},
		{"duplicate keys", accountstore.Config{Backend: accountstore.BackendMemory, TeamKey: "account"}, accountstore.ErrInvalidConfig},
		{"negative debounce", accountstore.Config{Backend: accountstore.BackendMemory, DebounceDelay: -1}, accountstore.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := accountstore.New(tt.cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// =============================================================================
// Account Lifecycle
// =============================================================================

func TestAccountStore_PersistsAcrossReopen(t *testing.T) {
	for _, backend := range []string{accountstore.BackendFile, accountstore.BackendBuntDB} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			cfg := accountstore.Config{DataDir: t.TempDir(), Backend: backend}
			clock := newFixedClock()

			s := openStore(t, cfg, accountstore.WithClock(clock))
			require.NoError(t, s.Login(ctx, accountstore.ProfileInput{Email: "ada@example.com"}))
			clock.Advance(time.Minute)
			require.NoError(t, s.Confirm(ctx))
			_, err := s.AddProject(ctx, "Engine")
			require.NoError(t, err)
			_, err = s.AddMember(ctx, "bob@example.com", accountstore.RoleAdmin)
			require.NoError(t, err)
			require.NoError(t, s.Close(ctx))

			reopened := openStore(t, cfg, accountstore.WithClock(clock))
			defer reopened.Close(ctx)

			assert.Equal(t, accountstore.StatusConfirmed, reopened.Status())
			ts, ok := reopened.StatusTimestamp()
			require.True(t, ok)
			assert.True(t, ts.Equal(clock.Now()))
			assert.Equal(t, "ada@example.com", reopened.Profile().Email)
			assert.True(t, reopened.IsAuthenticated())
			require.Len(t, reopened.Projects(), 1)
			require.Len(t, reopened.Members(), 1)
			assert.Equal(t, accountstore.RoleAdmin, reopened.Members()[0].Role)
		})
	}
}

func TestAccountStore_LogoutClearsEverything(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := accountstore.Config{DataDir: dir}

	s := openStore(t, cfg)
	require.NoError(t, s.Login(ctx, accountstore.ProfileInput{Email: "ada@example.com"}))
	_, err := s.AddProject(ctx, "Engine")
	require.NoError(t, err)
	_, err = s.AddMember(ctx, "bob@example.com", "")
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx))

	assert.Equal(t, accountstore.StatusUnset, s.Status())
	assert.Empty(t, s.Projects())
	assert.Empty(t, s.Members())
	for _, name := range []string{"account.json", "projects.json", "team.json"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.True(t, os.IsNotExist(err), "%s should be removed", name)
	}
	require.NoError(t, s.Close(ctx))
}

func TestAccountStore_DerivedQueries(t *testing.T) {
	ctx := context.Background()
	clock := newFixedClock()
	s := openStore(t, accountstore.Config{Backend: accountstore.BackendMemory}, accountstore.WithClock(clock))
	defer s.Close(ctx)

	require.NoError(t, s.Login(ctx, accountstore.ProfileInput{}))
	assert.True(t, s.NeedsFirstProject())
	assert.True(t, s.ShouldShowCreateModal(0))
	assert.False(t, s.ShouldShowCreateModal(1))

	clock.Advance(31 * 24 * time.Hour)
	assert.True(t, s.IsEligibleForCleanup())

	require.NoError(t, s.RequestDeletion(ctx))
	assert.True(t, s.IsInGracePeriod())
	assert.False(t, s.IsEligibleForCleanup())

	clock.Advance(8 * 24 * time.Hour)
	assert.False(t, s.IsInGracePeriod())
}

func TestAccountStore_CustomPolicy(t *testing.T) {
	ctx := context.Background()
	clock := newFixedClock()
	s := openStore(t, accountstore.Config{
		Backend:      accountstore.BackendMemory,
		CleanupAfter: time.Hour,
		GracePeriod:  time.Minute,
	}, accountstore.WithClock(clock))
	defer s.Close(ctx)

	require.NoError(t, s.Login(ctx, accountstore.ProfileInput{}))
	clock.Advance(2 * time.Hour)
	assert.True(t, s.IsEligibleForCleanup())
}

func TestAccountStore_CorruptSlotFallsBackToDefaults(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "account.json"), []byte("{oops"), 0o600))
	logger := &testLogger{}

	s := openStore(t, accountstore.Config{DataDir: dir}, accountstore.WithLogger(logger))
	defer s.Close(ctx)

	assert.Equal(t, accountstore.StatusUnset, s.Status())
	assert.Contains(t, logger.Messages(), "[WARN] using defaults for unreadable slot")
}

// =============================================================================
// Events
// =============================================================================

func TestAccountStore_EmitsEvents(t *testing.T) {
	ctx := context.Background()
	tracker := &eventTracker{}
	s := openStore(t, accountstore.Config{Backend: accountstore.BackendMemory}, accountstore.WithEventHandler(tracker))
	defer s.Close(ctx)

	require.NoError(t, s.Login(ctx, accountstore.ProfileInput{}))
	require.NoError(t, s.RequestDeletion(ctx))
	require.NoError(t, s.CancelDeletion(ctx))

	changes := tracker.StatusChanges()
	require.Len(t, changes, 3)
	assert.Equal(t, accountstore.StatusNewAccount, changes[0].Current)
	assert.Equal(t, accountstore.StatusPendingDeletion, changes[1].Current)
	assert.Equal(t, accountstore.StatusPendingDeletion, changes[2].Previous)
	assert.Equal(t, accountstore.StatusConfirmed, changes[2].Current)
	assert.Len(t, tracker.rehydrates, 1, "Open rehydrates once")
}

func TestAccountStore_ReportsPersistErrors(t *testing.T) {
	ctx := context.Background()
	tracker := &eventTracker{}
	s := openStore(t, accountstore.Config{},
		accountstore.WithSlotStore(brokenStore{}),
		accountstore.WithEventHandler(tracker),
	)
	defer s.Close(ctx)

	err := s.Confirm(ctx)

	require.Error(t, err)
	assert.Equal(t, accountstore.StatusConfirmed, s.Status(), "state changes even when persistence fails")
	errs := tracker.PersistErrors()
	require.Len(t, errs, 1)
	assert.Equal(t, "account", errs[0].Key)
	assert.False(t, errs[0].Deferred)
}

func TestAccountStore_DebouncedWritesFlushOnClose(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := accountstore.Config{DataDir: dir, DebounceDelay: time.Hour}

	s := openStore(t, cfg)
	require.NoError(t, s.Login(ctx, accountstore.ProfileInput{Name: "Ada"}))
	require.NoError(t, s.Confirm(ctx))

	_, err := os.Stat(filepath.Join(dir, "account.json"))
	assert.True(t, os.IsNotExist(err), "write should still be pending")

	require.NoError(t, s.Close(ctx))

	reopened := openStore(t, accountstore.Config{DataDir: dir})
	defer reopened.Close(ctx)
	assert.Equal(t, accountstore.StatusConfirmed, reopened.Status())
	assert.Equal(t, "Ada", reopened.Profile().Name)
}

func TestAccountStore_Metrics(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, accountstore.Config{Backend: accountstore.BackendMemory}, accountstore.WithMetrics())
	defer s.Close(ctx)

	require.NoError(t, s.Login(ctx, accountstore.ProfileInput{}))
	require.NoError(t, s.Confirm(ctx))

	path := filepath.Join(t.TempDir(), "accountstore.prom")
	require.NoError(t, s.WriteMetrics(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `accountstore_status{status="Confirmed"} 1`)
	assert.Contains(t, string(b), `accountstore_status_transitions_total{from="NewAccount",to="Confirmed"} 1`)
	assert.NotNil(t, s.Gatherer())
}

// =============================================================================
// Sweeper
// =============================================================================

func TestAccountStore_Sweep(t *testing.T) {
	ctx := context.Background()
	clock := newFixedClock()
	s := openStore(t, accountstore.Config{Backend: accountstore.BackendMemory}, accountstore.WithClock(clock))
	defer s.Close(ctx)

	require.NoError(t, s.Login(ctx, accountstore.ProfileInput{}))

	res, err := s.Sweep(ctx, true)
	require.NoError(t, err)
	assert.False(t, res.EligibleForCleanup)
	assert.False(t, res.Purged)

	clock.Advance(31 * 24 * time.Hour)
	res, err = s.Sweep(ctx, false)
	require.NoError(t, err)
	assert.True(t, res.EligibleForCleanup)
	assert.False(t, res.Purged)
	assert.Equal(t, accountstore.StatusNewAccount, s.Status())

	res, err = s.Sweep(ctx, true)
	require.NoError(t, err)
	assert.True(t, res.Purged)
	assert.Equal(t, accountstore.StatusUnset, s.Status())
}

func TestAccountStore_SweepReportsElapsedGrace(t *testing.T) {
	ctx := context.Background()
	clock := newFixedClock()
	s := openStore(t, accountstore.Config{Backend: accountstore.BackendMemory}, accountstore.WithClock(clock))
	defer s.Close(ctx)

	require.NoError(t, s.RequestDeletion(ctx))
	clock.Advance(8 * 24 * time.Hour)

	res, err := s.Sweep(ctx, true)
	require.NoError(t, err)
	assert.True(t, res.GraceElapsed)
	assert.False(t, res.Purged)
}

func TestAccountStore_BackgroundSweeperPurges(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	clock := newFixedClock()

	seed := openStore(t, accountstore.Config{DataDir: dir}, accountstore.WithClock(clock))
	require.NoError(t, seed.Login(ctx, accountstore.ProfileInput{}))
	require.NoError(t, seed.Close(ctx))

	clock.Advance(40 * 24 * time.Hour)
	s := openStore(t, accountstore.Config{DataDir: dir},
		accountstore.WithClock(clock),
		accountstore.WithSweeper(accountstore.SweeperConfig{Enabled: true, Interval: time.Hour, PurgeStale: true}),
	)
	defer s.Close(ctx)

	require.Eventually(t, func() bool {
		return s.Status() == accountstore.StatusUnset
	}, 2*time.Second, 10*time.Millisecond)
}

// =============================================================================
// Plugins
// =============================================================================

func TestPlugin_InitializationOrder(t *testing.T) {
	ctx := context.Background()
	var order []string
	p1 := &trackingPlugin{name: "p1", order: &order}
	p2 := &trackingPlugin{name: "p2", order: &order}

	s := openStore(t, accountstore.Config{DataDir: t.TempDir()},
		accountstore.WithPlugin(p1),
		accountstore.WithPlugin(p2),
	)
	require.NoError(t, s.Close(ctx))

	assert.Equal(t, []string{"init:p1", "init:p2", "shutdown:p2", "shutdown:p1"}, order)
	assert.Equal(t, accountstore.BackendFile, p1.cfg.Backend)
	path, ok := p1.cfg.SlotPath("account")
	assert.True(t, ok)
	assert.Equal(t, "account.json", filepath.Base(path))
	assert.NotNil(t, p1.cfg.Rehydrate)
}

func TestPlugin_InitializationFailure_ShutsDownEarlierPlugins(t *testing.T) {
	var order []string
	p1 := &trackingPlugin{name: "p1", order: &order}
	p2 := &trackingPlugin{name: "p2", order: &order, initError: errors.New("boom")}
	p3 := &trackingPlugin{name: "p3", order: &order}

	s, err := accountstore.New(accountstore.Config{Backend: accountstore.BackendMemory},
		accountstore.WithPlugin(p1),
		accountstore.WithPlugin(p2),
		accountstore.WithPlugin(p3),
	)
	require.NoError(t, err)

	err = s.Open(context.Background())

	require.Error(t, err)
	assert.Equal(t, []string{"init:p1", "shutdown:p1"}, order)
	assert.ErrorIs(t, s.Close(context.Background()), accountstore.ErrNotOpen)
}

func TestPlugin_ShutdownFailure_ContinuesOtherPlugins(t *testing.T) {
	var order []string
	p1 := &trackingPlugin{name: "p1", order: &order}
	p2 := &trackingPlugin{name: "p2", order: &order, shutdownError: errors.New("stuck")}

	s := openStore(t, accountstore.Config{Backend: accountstore.BackendMemory},
		accountstore.WithPlugin(p1),
		accountstore.WithPlugin(p2),
	)

	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, []string{"init:p1", "init:p2", "shutdown:p2", "shutdown:p1"}, order)
}

func TestAccountStore_OpenCloseGuards(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, accountstore.Config{Backend: accountstore.BackendMemory})

	assert.ErrorIs(t, s.Open(ctx), accountstore.ErrAlreadyOpen)
	require.NoError(t, s.Close(ctx))
	assert.ErrorIs(t, s.Close(ctx), accountstore.ErrNotOpen)
	assert.ErrorIs(t, s.Open(ctx), accountstore.ErrStorageUnavailable)
}

func TestAccountStore_FailedOpenReleasesStorage(t *testing.T) {
	ctx := context.Background()
	slots := &unreadableStore{}
	s, err := accountstore.New(accountstore.Config{}, accountstore.WithSlotStore(slots))
	require.NoError(t, err)

	err = s.Open(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
	assert.True(t, slots.closed, "storage should be closed after a failed open")
	assert.ErrorIs(t, s.Close(ctx), accountstore.ErrNotOpen)
	assert.ErrorIs(t, s.Open(ctx), accountstore.ErrStorageUnavailable)
}

func TestPlugin_InitializationFailure_ReleasesStorage(t *testing.T) {
	slots := &unreadableStore{}
	var order []string
	s, err := accountstore.New(accountstore.Config{},
		accountstore.WithSlotStore(&readableStore{unreadableStore: slots}),
		accountstore.WithPlugin(&trackingPlugin{name: "p1", order: &order, initError: errors.New("boom")}),
	)
	require.NoError(t, err)

	require.Error(t, s.Open(context.Background()))
	assert.True(t, slots.closed)
}

func TestAccountStore_CloseWithoutOpenReleasesStorage(t *testing.T) {
	ctx := context.Background()
	slots := &unreadableStore{}
	s, err := accountstore.New(accountstore.Config{}, accountstore.WithSlotStore(slots))
	require.NoError(t, err)

	require.NoError(t, s.Close(ctx))

	assert.True(t, slots.closed)
	assert.ErrorIs(t, s.Close(ctx), accountstore.ErrNotOpen)
	assert.ErrorIs(t, s.Open(ctx), accountstore.ErrStorageUnavailable)
}

// readableStore serves empty slots and delegates Close.
type readableStore struct {
	*unreadableStore
}

func (readableStore) Get(context.Context, string) ([]byte, error) { return nil, nil }
