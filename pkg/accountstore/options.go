package accountstore

import "github.com/bft-labs/accountstore/internal/ports"

// Option configures optional behavior of an AccountStore.
type Option func(*options)

// options holds the optional configuration for an AccountStore.
type options struct {
	logger        ports.Logger
	clock         ports.Clock
	eventHandlers []EventHandler
	slotStore     ports.SlotStore
	plugins       []Plugin
	sweeperConfig *SweeperConfig
	metrics       bool
}

func defaultOptions() options {
	return options{
		clock: ports.SystemClock{},
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithEventHandler adds a handler for store events. It may be given more
// than once; handlers are called in registration order.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		if handler != nil {
			o.eventHandlers = append(o.eventHandlers, handler)
		}
	}
}

// WithSlotStore injects a slot store in place of the configured backend.
// The AccountStore takes ownership and closes it on Close.
func WithSlotStore(store SlotStore) Option {
	return func(o *options) {
		o.slotStore = store
	}
}

// WithPlugin registers a plugin to be initialized when the store opens.
// Plugins are initialized in registration order and shutdown in reverse order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithMetrics enables Prometheus metrics on a private registry.
// See [AccountStore.Gatherer] and [AccountStore.WriteMetrics].
func WithMetrics() Option {
	return func(o *options) {
		o.metrics = true
	}
}
