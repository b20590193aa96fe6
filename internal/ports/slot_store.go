package ports

import "context"

// SlotStore is a durable key-value store of serialized state slots.
// Each state container owns one slot, addressed by key.
type SlotStore interface {
	// Get returns the raw value of a slot.
	// Returns nil and a nil error if the slot does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the value of a slot.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a slot. Deleting a missing slot is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the store.
	Close() error
}
