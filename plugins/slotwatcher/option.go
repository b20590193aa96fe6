package slotwatcher

import "github.com/bft-labs/accountstore/pkg/accountstore"

// WithSlotWatcher returns an accountstore Option that enables slot watching.
// When enabled, the plugin watches the file backend's slot files and
// rehydrates the store when another process changes them.
//
// Usage:
//
//	s, err := accountstore.New(cfg,
//	    slotwatcher.WithSlotWatcher(slotwatcher.Config{
//	        DebounceDelay: 50 * time.Millisecond,
//	    }),
//	)
func WithSlotWatcher(cfg Config) accountstore.Option {
	plugin := New(cfg)
	return accountstore.WithPlugin(plugin)
}

// WithDefaultSlotWatcher returns an accountstore Option that enables slot
// watching with default settings (debounce 100ms, retry every 1s).
//
// Usage:
//
//	s, err := accountstore.New(cfg, slotwatcher.WithDefaultSlotWatcher())
func WithDefaultSlotWatcher() accountstore.Option {
	return WithSlotWatcher(DefaultConfig())
}
