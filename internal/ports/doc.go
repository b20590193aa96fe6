// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// Ports are the boundaries between the account core and the outside world.
// They define what the application needs from external systems without
// specifying how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [SlotStore]: Durable key-value slots holding serialized state
//   - [Resetter]: A sibling state container cleared on logout
//   - [Clock]: Source of the current instant
//   - [Logger]: Structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with concrete
// backends (JSON files, buntdb, zerolog, prometheus).
package ports
