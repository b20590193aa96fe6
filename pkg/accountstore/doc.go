// Package accountstore provides an embeddable client-side account state
// container.
//
// An AccountStore tracks where the signed-in account is in its lifecycle
// (NewAccount, Confirmed, PendingDeletion), the instant it entered that
// status, the profile, the preference settings and two collaborator
// containers (projects and team). Every mutation is written to a durable
// slot and the slots are read back once on Open.
//
// # Basic Usage
//
//	s, err := accountstore.New(accountstore.Config{
//	    DataDir: "/path/to/data",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	if err := s.Open(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close(ctx)
//
//	_ = s.Login(ctx, accountstore.ProfileInput{Email: "ada@example.com"})
//	if s.NeedsFirstProject() {
//	    // prompt for a first project
//	}
//
// # Derived Queries
//
// [AccountStore.IsEligibleForCleanup] and [AccountStore.IsInGracePeriod] are
// evaluated against the current time on every call and are never stored.
// The windows default to 30 and 7 days and are set with
// [Config.CleanupAfter] and [Config.GracePeriod].
//
// # Storage
//
// [Config.Backend] selects one JSON file per slot ([BackendFile]), a single
// BuntDB file ([BackendBuntDB]) or a throwaway in-memory BuntDB
// ([BackendMemory]). [WithSlotStore] injects any other [SlotStore].
// A positive [Config.DebounceDelay] coalesces bursts of writes; pending
// writes are flushed by [AccountStore.Flush] and [AccountStore.Close].
//
// Mutations never fail on their own. A returned error always comes from
// storage, after the in-memory state has already changed.
//
// # Event Handling
//
// Implement [EventHandler] (embedding [BaseEventHandler]) and pass it via
// [WithEventHandler] to observe status changes, failed writes and
// rehydration. [WithMetrics] records the same activity as Prometheus
// metrics.
//
// # Plugins
//
// [WithPlugin] registers a [Plugin]. Plugins are initialized by Open in
// registration order and shut down by Close in reverse order. The
// slotwatcher plugin uses [PluginConfig.Rehydrate] to pick up changes
// written by another process.
package accountstore
