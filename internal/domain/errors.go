package domain

import "errors"

// Domain errors represent error conditions at the storage and configuration
// boundary. Account operations themselves never fail.
// These errors can be checked with errors.Is.
var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("accountstore: invalid configuration")

	// ErrStorageUnavailable is returned when the slot store cannot be opened or written.
	ErrStorageUnavailable = errors.New("accountstore: storage unavailable")

	// ErrCorruptRecord is returned when a persisted slot cannot be decoded.
	ErrCorruptRecord = errors.New("accountstore: corrupt record")

	// ErrUnknownBackend is returned when the configured storage backend does not exist.
	ErrUnknownBackend = errors.New("accountstore: unknown storage backend")

	// ErrInvalidInput is returned when a project or team entry is missing
	// required fields.
	ErrInvalidInput = errors.New("accountstore: invalid input")

	// ErrWatchUnsupported is returned when slot watching is requested on a backend
	// that has no files to watch.
	ErrWatchUnsupported = errors.New("accountstore: watching not supported by backend")

	// ErrAlreadyOpen is returned when Open is called on an open store.
	ErrAlreadyOpen = errors.New("accountstore: already open")

	// ErrNotOpen is returned when Close is called on a store that is not open.
	ErrNotOpen = errors.New("accountstore: not open")
)
