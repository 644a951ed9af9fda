package syncfiles

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bft-labs/syncfiles/internal/adapters/fs"
	logAdapter "github.com/bft-labs/syncfiles/internal/adapters/log"
	"github.com/bft-labs/syncfiles/internal/adapters/sqlstore"
	sshAdapter "github.com/bft-labs/syncfiles/internal/adapters/ssh"
	"github.com/bft-labs/syncfiles/internal/app"
	"github.com/bft-labs/syncfiles/internal/cliconfig"
	"github.com/bft-labs/syncfiles/internal/domain"
	"github.com/bft-labs/syncfiles/internal/ports"
	"github.com/bft-labs/syncfiles/internal/watch"
)

// Config holds the client configuration. Use DefaultConfig() as a base.
type Config = cliconfig.Config

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return cliconfig.DefaultConfig()
}

// Domain types returned by the client.
type (
	Action      = domain.Action
	BatchResult = domain.BatchResult
	LedgerEntry = domain.LedgerEntry
	Progress    = domain.Progress
	State       = app.State
)

// Actions.
const (
	ActionExportBatch  = domain.ActionExportBatch
	ActionSendFiles    = domain.ActionSendFiles
	ActionConfirmBatch = domain.ActionConfirmBatch
	ActionPendingFiles = domain.ActionPendingFiles
)

// Batch states.
const (
	StateIdle       = app.StateIdle
	StateExporting  = app.StateExporting
	StateSending    = app.StateSending
	StateConfirming = app.StateConfirming
)

// Errors reported by the client. Transport and archive failures are typed;
// see the domain error types for errors.As targets.
var (
	ErrBusy             = domain.ErrBusy
	ErrNothingToConfirm = domain.ErrNothingToConfirm
	ErrInvalidAction    = domain.ErrInvalidAction
	ErrInvalidConfig    = domain.ErrInvalidConfig
)

// ParseAction parses a wire action name such as "send_files".
func ParseAction(s string) (Action, error) {
	return domain.ParseAction(s)
}

// Client runs actions against one outgoing directory.
type Client struct {
	config  Config
	handler *app.Handler
	logger  ports.Logger
	plugins []Plugin
	db      *sql.DB
}

// New validates cfg and wires the client. Unless replaced by options it
// connects over SSH, keeps the ledger in SQL and exports from the spool directory.
func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = logAdapter.NewNoopLogger()
	}

	for _, dir := range []string{cfg.OutgoingDir, cfg.ArchiveDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	c := &Client{config: cfg, logger: logger, plugins: o.plugins}

	ledger := o.ledger
	if ledger == nil {
		db, l, err := openLedger(ctx, cfg)
		if err != nil {
			return nil, err
		}
		c.db = db
		ledger = l
	}

	transport := o.transport
	if transport == nil {
		transport = sshAdapter.NewTransport(sshAdapter.Config{
			Host:              cfg.RemoteHost,
			Port:              cfg.RemotePort,
			Username:          cfg.Username,
			Password:          cfg.Password,
			KeyFile:           cfg.KeyFile,
			KnownHostsFile:    cfg.KnownHostsFile,
			TrustUnknownHosts: cfg.TrustUnknownHosts,
			ConnectTimeout:    cfg.ConnectTimeout,
		}, logger)
	}

	exporter := o.exporter
	if exporter == nil {
		exporter = fs.NewSpoolExporter(cfg.SpoolDir, cfg.OutgoingDir, cfg.Hostname, logger)
	}

	var media ports.MediaStore
	if cfg.MediaDir != "" {
		media = fs.NewMediaStore(cfg.MediaDir)
	}

	sender := app.NewSender(app.SenderConfig{
		OutgoingDir:       cfg.OutgoingDir,
		RemoteDir:         cfg.RemoteDir,
		RemoteTmpDir:      cfg.RemoteTmpDir,
		MediaRemoteDir:    cfg.MediaRemoteDir,
		MediaRemoteTmpDir: cfg.MediaRemoteTmpDir,
		UpdateHistory:     cfg.UpdateHistory,
		CopyTimeout:       cfg.CopyTimeout,
	}, transport, fs.NewArchiver(cfg.OutgoingDir, cfg.ArchiveDir, logger), ledger, media, logger, o.progress)

	var emitter app.EventEmitter
	if o.eventHandler != nil {
		emitter = &eventEmitterWrapper{handler: o.eventHandler}
	}

	c.handler = app.NewHandler(exporter, ledger, sender,
		app.NewConfirmer(ledger, logger, o.newCode), logger, emitter)

	logger.Info("syncfiles client ready",
		ports.String("remote", cfg.RemoteHost),
		ports.String("outgoing", cfg.OutgoingDir),
		ports.String("ledger", cfg.LedgerDriver),
	)
	return c, nil
}

func openLedger(ctx context.Context, cfg Config) (*sql.DB, *sqlstore.Ledger, error) {
	if cfg.LedgerDriver == cliconfig.LedgerSQLite && cfg.LedgerDSN != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.LedgerDSN), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}
	db, err := sqlstore.Open(ctx, cfg.LedgerDriver, cfg.LedgerDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := sqlstore.Migrate(ctx, db, cfg.LedgerDriver); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	l, err := sqlstore.NewLedger(db, cfg.LedgerDriver)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, l, nil
}

// Handle runs one action. See app.Handler for the result contract.
func (c *Client) Handle(ctx context.Context, action Action) (BatchResult, error) {
	return c.handler.Handle(ctx, action)
}

// Export runs ActionExportBatch.
func (c *Client) Export(ctx context.Context) (BatchResult, error) {
	return c.Handle(ctx, ActionExportBatch)
}

// Send runs ActionSendFiles.
func (c *Client) Send(ctx context.Context) (BatchResult, error) {
	return c.Handle(ctx, ActionSendFiles)
}

// Confirm runs ActionConfirmBatch.
func (c *Client) Confirm(ctx context.Context) (BatchResult, error) {
	return c.Handle(ctx, ActionConfirmBatch)
}

// Pending runs ActionPendingFiles.
func (c *Client) Pending(ctx context.Context) (BatchResult, error) {
	return c.Handle(ctx, ActionPendingFiles)
}

// History returns the most recently sent entries, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]LedgerEntry, error) {
	return c.handler.History(ctx, limit)
}

// State returns the current batch state.
func (c *Client) State() State {
	return c.handler.State()
}

// Watch sends whenever files land in the outgoing directory and every
// PollInterval, until ctx is done. Registered plugins run for the same span.
func (c *Client) Watch(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pluginCfg := PluginConfig{
		OutgoingDir: c.config.OutgoingDir,
		ArchiveDir:  c.config.ArchiveDir,
		MediaDir:    c.config.MediaDir,
		Logger:      c.logger,
	}
	started := 0
	defer func() {
		for i := started - 1; i >= 0; i-- {
			p := c.plugins[i]
			if err := p.Shutdown(context.Background()); err != nil {
				c.logger.Error("plugin shutdown failed",
					ports.String("plugin", p.Name()),
					ports.Err(err))
			}
		}
	}()
	for _, p := range c.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			return fmt.Errorf("initialize plugin %s: %w", p.Name(), err)
		}
		started++
		c.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	w := watch.New(watch.Config{
		Dir:           c.config.OutgoingDir,
		DebounceDelay: c.config.DebounceDelay,
		PollInterval:  c.config.PollInterval,
	}, func(ctx context.Context) error {
		_, err := c.Send(ctx)
		return err
	}, c.logger)
	return w.Run(runCtx)
}

// Close releases the ledger database opened by New.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// eventEmitterWrapper adapts EventHandler to the internal emitter interface.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	e.handler.OnStateChange(StateChangeEvent{
		Previous: previous,
		Current:  current,
		Reason:   reason,
	})
}
