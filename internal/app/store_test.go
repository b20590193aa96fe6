package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/accountstore/internal/domain"
)

// memSlots is an in-memory ports.SlotStore.
type memSlots struct {
	mu      sync.Mutex
	data    map[string][]byte
	sets    map[string]int
	deletes []string
	failSet error
	failDel error
}

func newMemSlots() *memSlots {
	return &memSlots{data: map[string][]byte{}, sets: map[string]int{}}
}

func (m *memSlots) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *memSlots) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[key]++
	if m.failSet != nil {
		return m.failSet
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memSlots) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, key)
	if m.failDel != nil {
		return m.failDel
	}
	delete(m.data, key)
	return nil
}

func (m *memSlots) Close() error { return nil }

func (m *memSlots) record(t *testing.T, key string) domain.AccountRecord {
	t.Helper()
	m.mu.Lock()
	b, ok := m.data[key]
	m.mu.Unlock()
	require.True(t, ok, "slot %q not written", key)
	var rec domain.AccountRecord
	require.NoError(t, json.Unmarshal(b, &rec))
	return rec
}

// countingResetter records Reset calls.
type countingResetter struct {
	mu    sync.Mutex
	calls int
}

func (r *countingResetter) Reset() {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
}

func (r *countingResetter) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type storeFixture struct {
	store    *Store
	slots    *memSlots
	clock    *fakeClock
	projects *countingResetter
	team     *countingResetter
	logger   *mockLogger
}

func newStoreFixture() *storeFixture {
	f := &storeFixture{
		slots:    newMemSlots(),
		clock:    newFakeClock(),
		projects: &countingResetter{},
		team:     &countingResetter{},
		logger:   &mockLogger{},
	}
	lc := NewAccountLifecycle(domain.DefaultPolicy(), f.clock, f.logger, nil)
	f.store = NewStore(StoreConfig{}, lc, f.slots, f.projects, f.team, f.clock, f.logger)
	return f
}

func TestStore_LoginPersists(t *testing.T) {
	f := newStoreFixture()
	ctx := context.Background()

	require.NoError(t, f.store.Login(ctx, domain.ProfileInput{Email: "ada@example.com", Name: "Ada"}))

	rec := f.slots.record(t, DefaultAccountKey)
	assert.True(t, rec.IsAuthenticated)
	assert.Equal(t, domain.StatusNewAccount, rec.Status)
	require.NotNil(t, rec.At)
	assert.True(t, rec.At.Equal(f.clock.Now()))
	assert.Equal(t, "ada@example.com", rec.Profile.Email)
	assert.NotEmpty(t, rec.Profile.ID, "login should assign an account ID")
	assert.Equal(t, domain.DefaultSettings(), rec.Settings)
}

func TestStore_LoginKeepsExistingID(t *testing.T) {
	f := newStoreFixture()
	ctx := context.Background()

	require.NoError(t, f.store.Login(ctx, domain.ProfileInput{ID: "acct-1"}))
	require.NoError(t, f.store.Login(ctx, domain.ProfileInput{Name: "Ada"}))

	p := f.store.Profile()
	assert.Equal(t, "acct-1", p.ID)
	assert.Equal(t, "Ada", p.Name)
}

func TestStore_EveryMutationPersists(t *testing.T) {
	f := newStoreFixture()
	ctx := context.Background()
	dark := domain.ThemeDark

	steps := []struct {
		name string
		op   func() error
		want domain.Status
	}{
		{"login", func() error { return f.store.Login(ctx, domain.ProfileInput{Email: "a@b.c"}) }, domain.StatusNewAccount},
		{"confirm", func() error { return f.store.Confirm(ctx) }, domain.StatusConfirmed},
		{"settings", func() error { return f.store.UpdateSettings(ctx, domain.SettingsPatch{Theme: &dark}) }, domain.StatusConfirmed},
		{"request deletion", func() error { return f.store.RequestDeletion(ctx) }, domain.StatusPendingDeletion},
		{"cancel deletion", func() error { return f.store.CancelDeletion(ctx) }, domain.StatusConfirmed},
		{"profile", func() error { return f.store.UpdateProfile(ctx, domain.ProfileInput{Company: "Acme"}) }, domain.StatusConfirmed},
		{"reset", func() error { return f.store.Reset(ctx) }, domain.StatusUnset},
	}

	for i, step := range steps {
		f.clock.Advance(day)
		require.NoError(t, step.op(), step.name)

		assert.Equal(t, i+1, f.slots.sets[DefaultAccountKey], "%s: write count", step.name)
		rec := f.slots.record(t, DefaultAccountKey)
		assert.Equal(t, step.want, rec.Status, step.name)
		assert.Equal(t, rec.Status != domain.StatusUnset, rec.At != nil, "%s: timestamp invariant", step.name)
	}

	rec := f.slots.record(t, DefaultAccountKey)
	assert.True(t, rec.IsEmpty(), "reset should persist an empty record")
	assert.Equal(t, 0, f.projects.Calls(), "reset must not touch collaborators")
	assert.Equal(t, 0, f.team.Calls(), "reset must not touch collaborators")
}

func TestStore_UpdateSettingsRejectsInvalid(t *testing.T) {
	f := newStoreFixture()
	bogus := domain.Theme("neon")
	compact := true

	require.NoError(t, f.store.UpdateSettings(context.Background(), domain.SettingsPatch{Theme: &bogus, CompactMode: &compact}))

	s := f.store.Settings()
	assert.Equal(t, domain.ThemeSystem, s.Theme)
	assert.True(t, s.CompactMode)
	assert.Len(t, f.logger.Warnings(), 1)
}

func TestStore_LogoutResetsCollaboratorsOnce(t *testing.T) {
	f := newStoreFixture()
	ctx := context.Background()

	require.NoError(t, f.store.Login(ctx, domain.ProfileInput{Email: "a@b.c"}))
	require.NoError(t, f.store.Confirm(ctx))
	require.NoError(t, f.store.Logout(ctx))

	assert.Equal(t, 1, f.projects.Calls())
	assert.Equal(t, 1, f.team.Calls())
	assert.Equal(t, domain.StatusUnset, f.store.Lifecycle().Status())
	_, ok := f.store.Lifecycle().StatusTimestamp()
	assert.False(t, ok)
	assert.False(t, f.store.IsAuthenticated())
	assert.True(t, f.store.Profile().IsEmpty())
	assert.ElementsMatch(t, []string{DefaultAccountKey, DefaultProjectsKey, DefaultTeamKey}, f.slots.deletes)

	b, err := f.slots.Get(ctx, DefaultAccountKey)
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestStore_LogoutJoinsDeleteErrors(t *testing.T) {
	f := newStoreFixture()
	f.slots.failDel = errors.New("disk gone")

	err := f.store.Logout(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear account")
	assert.Contains(t, err.Error(), "clear team")
	// In-memory state is cleared regardless.
	assert.Equal(t, 1, f.projects.Calls())
	assert.Equal(t, 1, f.team.Calls())
}

func TestStore_PersistErrorKeepsMemoryState(t *testing.T) {
	f := newStoreFixture()
	f.slots.failSet = errors.New("read-only")

	err := f.store.Login(context.Background(), domain.ProfileInput{Email: "a@b.c"})

	require.Error(t, err)
	assert.Equal(t, domain.StatusNewAccount, f.store.Lifecycle().Status())
	assert.True(t, f.store.IsAuthenticated())
}

func TestStore_HydrateRoundTrip(t *testing.T) {
	f := newStoreFixture()
	ctx := context.Background()

	require.NoError(t, f.store.Login(ctx, domain.ProfileInput{Email: "a@b.c", Name: "Ada"}))
	require.NoError(t, f.store.RequestDeletion(ctx))
	want := f.store.Snapshot()

	lc := NewAccountLifecycle(domain.DefaultPolicy(), f.clock, f.logger, nil)
	restored := NewStore(StoreConfig{}, lc, f.slots, nil, nil, f.clock, f.logger)
	require.NoError(t, restored.Hydrate(ctx))

	got := restored.Snapshot()
	assert.Equal(t, want.Profile, got.Profile)
	assert.Equal(t, want.Settings, got.Settings)
	assert.Equal(t, want.Status, got.Status)
	require.NotNil(t, got.At)
	assert.True(t, want.At.Equal(*got.At))
	assert.True(t, restored.Lifecycle().IsInGracePeriod())
}

func TestStore_HydrateMissingSlot(t *testing.T) {
	f := newStoreFixture()

	require.NoError(t, f.store.Hydrate(context.Background()))

	assert.True(t, f.store.Snapshot().IsEmpty())
	assert.Equal(t, domain.DefaultSettings(), f.store.Settings())
}

func TestStore_HydrateCorruptSlot(t *testing.T) {
	f := newStoreFixture()
	f.slots.data[DefaultAccountKey] = []byte("{not json")

	err := f.store.Hydrate(context.Background())

	require.ErrorIs(t, err, domain.ErrCorruptRecord)
	assert.True(t, f.store.Snapshot().IsEmpty())
}

func TestStore_HydrateNormalizesMissingTimestamp(t *testing.T) {
	f := newStoreFixture()
	f.slots.data[DefaultAccountKey] = []byte(`{"status":"confirmed","is_authenticated":true}`)

	require.NoError(t, f.store.Hydrate(context.Background()))

	ts, ok := f.store.Lifecycle().StatusTimestamp()
	require.True(t, ok)
	assert.True(t, ts.Equal(f.clock.Now()))
	assert.Equal(t, domain.StatusConfirmed, f.store.Lifecycle().Status())
	assert.Len(t, f.logger.Warnings(), 1, "restoring the timestamp should be logged")
}

func TestStore_HydrateUnknownStatusIsUnset(t *testing.T) {
	f := newStoreFixture()
	f.slots.data[DefaultAccountKey] = []byte(`{"status":"archived","status_timestamp":"2026-01-01T00:00:00Z"}`)

	require.NoError(t, f.store.Hydrate(context.Background()))

	assert.Equal(t, domain.StatusUnset, f.store.Lifecycle().Status())
	_, ok := f.store.Lifecycle().StatusTimestamp()
	assert.False(t, ok)
	assert.Len(t, f.logger.Warnings(), 1)
}

func TestStore_RehydrateCorruptSlotResetsToDefaults(t *testing.T) {
	f := newStoreFixture()
	ctx := context.Background()
	dark := domain.ThemeDark
	require.NoError(t, f.store.Login(ctx, domain.ProfileInput{Email: "a@b.c"}))
	require.NoError(t, f.store.UpdateSettings(ctx, domain.SettingsPatch{Theme: &dark}))

	f.slots.data[DefaultAccountKey] = []byte("{not json")
	err := f.store.Hydrate(ctx)

	require.ErrorIs(t, err, domain.ErrCorruptRecord)
	assert.True(t, f.store.Snapshot().IsEmpty())
	assert.Equal(t, domain.DefaultSettings(), f.store.Settings())
	_, ok := f.store.Lifecycle().StatusTimestamp()
	assert.False(t, ok)
}

func TestStore_CustomKeys(t *testing.T) {
	slots := newMemSlots()
	lc := NewAccountLifecycle(domain.DefaultPolicy(), nil, &mockLogger{}, nil)
	s := NewStore(StoreConfig{AccountKey: "acct"}, lc, slots, nil, nil, nil, &mockLogger{})

	require.NoError(t, s.Login(context.Background(), domain.ProfileInput{}))

	assert.Equal(t, 1, slots.sets["acct"])
	assert.Equal(t, DefaultProjectsKey, s.Config().ProjectsKey)
}
