package log

import (
	"io"

	"github.com/rs/zerolog"

	logAdapter "github.com/bft-labs/syncfiles/internal/adapters/log"
	"github.com/bft-labs/syncfiles/internal/ports"
)

// Logger provides structured logging capabilities.
type Logger = ports.Logger

// Field represents a key-value pair for structured logging.
type Field = ports.Field

// Field constructors.
var (
	String   = ports.String
	Strings  = ports.Strings
	Int      = ports.Int
	Int64    = ports.Int64
	Float64  = ports.Float64
	Bool     = ports.Bool
	Duration = ports.Duration
	Err      = ports.Err
	Any      = ports.Any
)

// NewZerologLogger wraps a zerolog.Logger.
func NewZerologLogger(logger zerolog.Logger) Logger {
	return logAdapter.NewZerologAdapterWithLogger(logger)
}

// NewConsoleLogger writes human-readable lines to w. Unknown levels fall back to info.
func NewConsoleLogger(w io.Writer, level string) Logger {
	return logAdapter.NewZerologAdapterWithLogger(logAdapter.NewConsoleLoggerTo(w, level))
}

// NewNoopLogger returns a logger that discards everything.
func NewNoopLogger() Logger {
	return logAdapter.NewNoopLogger()
}
