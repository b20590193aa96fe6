package accountstore

import (
	"time"

	"github.com/bft-labs/accountstore/internal/adapters/metrics"
)

// StatusChangeEvent describes an account status transition.
type StatusChangeEvent struct {
	Previous Status
	Current  Status
	// At is the instant the new status was entered. Nil when Current is Unset.
	At *time.Time
}

// PersistErrorEvent describes a failed slot write or delete.
type PersistErrorEvent struct {
	Key   string
	Error error
	// Deferred is true when the failure happened in a debounced background write.
	Deferred bool
}

// RehydrateEvent is emitted after the store reloads its slots.
type RehydrateEvent struct {
	Status   Status
	Projects int
	Members  int
}

// EventHandler receives store notifications.
// Callbacks run synchronously on the goroutine that caused them and must
// return quickly.
type EventHandler interface {
	OnStatusChange(event StatusChangeEvent)
	OnPersistError(event PersistErrorEvent)
	OnRehydrate(event RehydrateEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle
// only the events you need.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStatusChange(StatusChangeEvent) {}
func (BaseEventHandler) OnPersistError(PersistErrorEvent) {}
func (BaseEventHandler) OnRehydrate(RehydrateEvent)       {}

// eventFanout adapts the public handlers to the internal emitter.
type eventFanout struct {
	handlers []EventHandler
	metrics  *metrics.Registry
}

func (e *eventFanout) OnStatusChange(previous, current Status, at *time.Time) {
	if e.metrics != nil {
		e.metrics.OnStatusChange(previous, current, at)
	}
	for _, h := range e.handlers {
		h.OnStatusChange(StatusChangeEvent{Previous: previous, Current: current, At: at})
	}
}

func (e *eventFanout) persistError(key string, err error, deferred bool) {
	for _, h := range e.handlers {
		h.OnPersistError(PersistErrorEvent{Key: key, Error: err, Deferred: deferred})
	}
}

func (e *eventFanout) rehydrated(ev RehydrateEvent) {
	for _, h := range e.handlers {
		h.OnRehydrate(ev)
	}
}
