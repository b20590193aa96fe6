// Package slotwatcher keeps an AccountStore in sync with writes made by
// other processes. When enabled, it watches the slot files of the file
// backend and rehydrates the store when one of them changes.
package slotwatcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/accountstore/internal/ports"
	"github.com/bft-labs/accountstore/pkg/accountstore"
)

// Plugin implements slot watching.
type Plugin struct {
	mu sync.RWMutex

	// Configuration
	retryInterval time.Duration
	debounceDelay time.Duration
	strict        bool

	// Runtime state
	dir       string
	files     map[string]string
	rehydrate func(ctx context.Context) error
	logger    accountstore.Logger
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	debounce  *time.Timer
	ready     chan struct{}
}

// Config holds configuration options for the slot watcher plugin.
type Config struct {
	// RetryInterval is the delay between retries when rehydration fails.
	// Default: 1 second
	RetryInterval time.Duration

	// DebounceDelay is the delay to wait after a file change before rehydrating.
	// Default: 100 milliseconds
	DebounceDelay time.Duration

	// Strict makes Initialize fail with ErrWatchUnsupported on backends
	// without slot files instead of disabling the plugin.
	Strict bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		RetryInterval: time.Second,
		DebounceDelay: 100 * time.Millisecond,
	}
}

// New creates a new slot watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = time.Second
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}

	return &Plugin{
		retryInterval: cfg.RetryInterval,
		debounceDelay: cfg.DebounceDelay,
		strict:        cfg.Strict,
		ready:         make(chan struct{}),
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "slotwatcher"
}

// Initialize sets up the plugin and starts the watcher.
func (p *Plugin) Initialize(ctx context.Context, cfg accountstore.PluginConfig) error {
	p.mu.Lock()
	p.logger = cfg.Logger
	p.rehydrate = cfg.Rehydrate
	p.files = make(map[string]string)
	if cfg.SlotPath != nil {
		for _, key := range []string{cfg.AccountKey, cfg.ProjectsKey, cfg.TeamKey} {
			if path, ok := cfg.SlotPath(key); ok {
				p.dir = filepath.Dir(path)
				p.files[filepath.Base(path)] = key
			}
		}
	}
	p.mu.Unlock()

	if p.dir == "" || p.rehydrate == nil {
		if p.strict {
			return fmt.Errorf("%w: %s", accountstore.ErrWatchUnsupported, cfg.Backend)
		}
		p.logger.Warn("Slot watcher disabled: backend has no slot files",
			ports.String("backend", cfg.Backend))
		close(p.ready)
		return nil
	}

	if err := os.MkdirAll(p.dir, 0o700); err != nil {
		return fmt.Errorf("%w: %v", accountstore.ErrStorageUnavailable, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(p.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", p.dir, err)
	}

	// Create cancellable context for the watcher loop
	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("Slot watcher plugin initialized", ports.String("dir", p.dir))

	// Start watcher loop
	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)

	return nil
}

// Shutdown stops the slot watcher.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.mu.Unlock()
	return nil
}

// Ready is closed once the watch is registered, or immediately when the
// plugin is disabled.
func (p *Plugin) Ready() <-chan struct{} {
	return p.ready
}

// watchLoop watches the slot directory for changes.
func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	close(p.ready)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			key, watched := p.files[filepath.Base(event.Name)]
			if !watched {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			p.logger.Debug("Slot watcher: slot changed",
				ports.String("key", key),
				ports.String("op", event.Op.String()))
			p.debounceRehydrate(ctx, p.debounceDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("Slot watcher: watcher error", ports.Err(err))
		}
	}
}

func (p *Plugin) debounceRehydrate(ctx context.Context, delay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}

	p.debounce = time.AfterFunc(delay, func() {
		p.rehydrateWithRetry(ctx)
	})
}

// rehydrateWithRetry retries until success or context cancellation.
func (p *Plugin) rehydrateWithRetry(ctx context.Context) {
	retryCount := 0

	for {
		err := p.rehydrate(ctx)
		if err == nil {
			if retryCount > 0 {
				p.logger.Info("Slot watcher: rehydrated after retries", ports.Int("retries", retryCount))
			} else {
				p.logger.Info("Slot watcher: rehydrated")
			}
			return
		}

		// Failure - log and retry
		retryCount++
		p.logger.Error("Slot watcher: rehydrate failed", ports.Err(err))

		select {
		case <-ctx.Done():
			p.logger.Info("Slot watcher: stopping retry due to context cancellation")
			return
		case <-time.After(p.retryInterval):
			// Continue to next retry
		}
	}
}

// Ensure Plugin implements accountstore.Plugin.
var _ accountstore.Plugin = (*Plugin)(nil)
