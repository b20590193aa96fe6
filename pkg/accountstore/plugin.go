package accountstore

import "context"

// Plugin extends an AccountStore with optional behaviour.
// Plugins are initialized by Open in registration order and shut down by
// Close in reverse order.
type Plugin interface {
	// Name returns the plugin identifier used in logs.
	Name() string

	// Initialize starts the plugin. Long-running work must run in its own
	// goroutine and stop when ctx is cancelled or Shutdown is called.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown stops the plugin and waits for its goroutines.
	Shutdown(ctx context.Context) error
}

// PluginConfig is passed to plugins on initialization.
type PluginConfig struct {
	DataDir     string
	Backend     string
	AccountKey  string
	ProjectsKey string
	TeamKey     string
	Logger      Logger

	// SlotPath returns the file backing a slot key. ok is false when the
	// store has no per-slot files.
	SlotPath func(key string) (path string, ok bool)

	// Rehydrate reloads every slot into memory.
	Rehydrate func(ctx context.Context) error
}

// BasePlugin implements Initialize and Shutdown as no-ops. Embed it and
// provide Name.
type BasePlugin struct{}

func (BasePlugin) Initialize(context.Context, PluginConfig) error { return nil }
func (BasePlugin) Shutdown(context.Context) error                 { return nil }
