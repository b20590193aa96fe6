package ports

import "github.com/bft-labs/accountstore/pkg/log"

// Logger provides structured logging to the internal layers.
type Logger = log.Logger

// Field is a structured log key-value pair.
type Field = log.Field

// Field constructors re-exported for internal packages.
var (
	String   = log.String
	Int      = log.Int
	Bool     = log.Bool
	Duration = log.Duration
	Time     = log.Time
	Err      = log.Err
	Any      = log.Any
)
