package log

// Version information for the log module.
const (
	// Version is the current version of the log module.
	Version = "2.0.0"

	// MinCompatibleVersion is the oldest version accountstore accepts.
	MinCompatibleVersion = "2.0.0"
)
