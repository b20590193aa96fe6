// Package log is the logging surface shared by accountstore, its adapters
// and plugins.
//
// Wrap a zerolog logger:
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//
// Scope a logger to a subsystem:
//
//	sweepLog := log.With(logger, log.Component("sweeper"))
//
// Any type with Debug, Info, Warn and Error methods taking a message and
// Fields satisfies Logger. Use Discard to silence output.
package log
