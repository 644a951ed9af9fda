package syncfiles

import (
	"github.com/bft-labs/syncfiles/internal/app"
	"github.com/bft-labs/syncfiles/internal/ports"
)

// Re-exported port types so callers can supply their own implementations.
type (
	// Logger is the interface for structured logging.
	Logger = ports.Logger

	// LogField represents a structured log field.
	LogField = ports.Field

	// Transport opens authenticated sessions to the remote host.
	Transport = ports.Transport

	// LedgerRepository persists per-file send state.
	LedgerRepository = ports.LedgerRepository

	// Exporter turns pending records into one batch file.
	Exporter = ports.Exporter

	// ProgressFunc receives streaming progress for one file.
	ProgressFunc = ports.ProgressFunc
)

// EventHandler receives batch state changes.
// It is called synchronously; implementations should return quickly.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
}

// StateChangeEvent describes one batch state transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// Option configures optional behavior of a Client.
type Option func(*options)

// options holds the optional configuration for a Client.
type options struct {
	transport    ports.Transport
	ledger       ports.LedgerRepository
	exporter     ports.Exporter
	logger       ports.Logger
	progress     ports.ProgressFunc
	newCode      app.CodeGenerator
	eventHandler EventHandler
	plugins      []Plugin
}

// WithTransport replaces the SSH transport.
func WithTransport(t Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithLedger replaces the SQL ledger. The client does not close it.
func WithLedger(l LedgerRepository) Option {
	return func(o *options) {
		o.ledger = l
	}
}

// WithExporter replaces the spool directory exporter.
func WithExporter(e Exporter) Option {
	return func(o *options) {
		o.exporter = e
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithProgress receives per-file transfer progress.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// WithCodeGenerator replaces the confirmation code generator.
func WithCodeGenerator(fn func() string) Option {
	return func(o *options) {
		o.newCode = fn
	}
}

// WithEventHandler sets a handler for batch state changes.
func WithEventHandler(h EventHandler) Option {
	return func(o *options) {
		o.eventHandler = h
	}
}
