package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	logAdapter "github.com/bft-labs/syncfiles/internal/adapters/log"
	"github.com/bft-labs/syncfiles/internal/app"
	"github.com/bft-labs/syncfiles/internal/cliconfig"
	"github.com/bft-labs/syncfiles/pkg/syncfiles"
	"github.com/bft-labs/syncfiles/plugins/archivecleanup"
)

const helpDescription = `
Move exported batch files from this node to the central server over SSH/SFTP.

Highlights:
  - Each file is copied to a temporary name, size-checked and renamed, so the
    server never sees a partial file.
  - A local ledger records every file; a file is sent at most once and an
    interrupted send resumes where it stopped.
  - Configure via file ($HOME/.syncfiles/config.toml), SYNCFILES_* env, or flags.
`

var exampleUsage = strings.TrimSpace(`
  syncfiles export
  syncfiles send --remote-host central.example.org --username node-1 --key-file ~/.ssh/id_ed25519 --remote-dir /srv/incoming
  syncfiles pending --json
  syncfiles run confirm_batch
  syncfiles watch --poll 5m
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli carries state shared by all subcommands.
type cli struct {
	cfg      cliconfig.Config
	cfgPath  string
	asJSON   bool
	progress bool
	log      zerolog.Logger
}

func main() {
	c := &cli{
		cfg: cliconfig.DefaultConfig(),
		log: logAdapter.NewConsoleLogger("info"),
	}

	root := &cobra.Command{
		Use:               "syncfiles",
		Short:             "Send exported batch files to the central server exactly once",
		Long:              strings.TrimSpace(helpDescription),
		Example:           exampleUsage,
		Version:           fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.loadConfig,
	}
	c.bindFlags(root.PersistentFlags())

	root.AddCommand(
		c.actionCommand("export", "Bundle pending records into one batch file", syncfiles.ActionExportBatch),
		c.actionCommand("send", "Send every pending batch file and new media files", syncfiles.ActionSendFiles),
		c.actionCommand("confirm", "Issue a confirmation code for all sent files", syncfiles.ActionConfirmBatch),
		c.actionCommand("pending", "List batch files not yet sent", syncfiles.ActionPendingFiles),
		c.runCommand(),
		c.historyCommand(),
		c.watchCommand(),
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		c.log.Error().Err(err).Msg("syncfiles")
		os.Exit(1)
	}
}

func (c *cli) bindFlags(fs *pflag.FlagSet) {
	cfg := &c.cfg
	fs.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.syncfiles/config.toml)")
	fs.BoolVar(&c.asJSON, "json", false, "print results as JSON")
	fs.BoolVar(&c.progress, "progress", false, "print per-file transfer progress to stderr")

	fs.StringVar(&cfg.Home, "home", cfg.Home, "base directory for outgoing, archive, spool and the ledger (default: $HOME/.syncfiles)")
	fs.StringVar(&cfg.RemoteHost, "remote-host", cfg.RemoteHost, "SSH host of the central server")
	fs.IntVar(&cfg.RemotePort, "remote-port", cfg.RemotePort, "SSH port of the central server")
	fs.StringVar(&cfg.Username, "username", cfg.Username, "SSH username")
	fs.StringVar(&cfg.Password, "password", cfg.Password, "SSH password (prefer --key-file or SYNCFILES_PASSWORD)")
	fs.StringVar(&cfg.KeyFile, "key-file", cfg.KeyFile, "private key file for SSH authentication")
	fs.StringVar(&cfg.KnownHostsFile, "known-hosts", cfg.KnownHostsFile, "known_hosts file (default: $HOME/.ssh/known_hosts)")
	fs.BoolVar(&cfg.TrustUnknownHosts, "trust-unknown-hosts", cfg.TrustUnknownHosts, "accept and record hosts missing from known_hosts")
	fs.DurationVar(&cfg.ConnectTimeout, "connect-timeout", cfg.ConnectTimeout, "timeout for dialing and the SSH handshake")
	fs.DurationVar(&cfg.CopyTimeout, "copy-timeout", cfg.CopyTimeout, "timeout for a single file copy (0 disables)")

	fs.StringVar(&cfg.OutgoingDir, "outgoing-dir", cfg.OutgoingDir, "directory of batch files waiting to be sent")
	fs.StringVar(&cfg.ArchiveDir, "archive-dir", cfg.ArchiveDir, "directory receiving sent batch files")
	fs.StringVar(&cfg.RemoteDir, "remote-dir", cfg.RemoteDir, "remote directory receiving batch files")
	fs.StringVar(&cfg.RemoteTmpDir, "remote-tmp-dir", cfg.RemoteTmpDir, "remote directory for temporary names (default: remote-dir)")
	fs.StringVar(&cfg.MediaDir, "media-dir", cfg.MediaDir, "local media directory (empty disables media sending)")
	fs.StringVar(&cfg.MediaRemoteDir, "media-remote-dir", cfg.MediaRemoteDir, "remote directory receiving media files")
	fs.StringVar(&cfg.MediaRemoteTmpDir, "media-remote-tmp-dir", cfg.MediaRemoteTmpDir, "remote directory for temporary media names")
	fs.StringVar(&cfg.SpoolDir, "spool-dir", cfg.SpoolDir, "directory of JSON records to export")
	fs.StringVar(&cfg.Hostname, "hostname", cfg.Hostname, "node name used in batch file names (default: os hostname)")

	fs.StringVar(&cfg.LedgerDriver, "ledger-driver", cfg.LedgerDriver, "ledger backend: sqlite or postgres")
	fs.StringVar(&cfg.LedgerDSN, "ledger-dsn", cfg.LedgerDSN, "ledger data source (default: <home>/ledger.db)")
	fs.BoolVar(&cfg.UpdateHistory, "update-history", cfg.UpdateHistory, "mark ledger entries sent after each copy")

	fs.DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "watch: send interval without file events (0 disables)")
	fs.DurationVar(&cfg.DebounceDelay, "debounce", cfg.DebounceDelay, "watch: quiet period after file events")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
}

// loadConfig applies file, env and flag layers, in increasing precedence.
func (c *cli) loadConfig(cmd *cobra.Command, _ []string) error {
	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&c.cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := cliconfig.ApplyEnvConfig(&c.cfg, changed); err != nil {
		return err
	}

	if err := c.cfg.Validate(); err != nil {
		return err
	}

	c.log = logAdapter.NewConsoleLogger(c.cfg.LogLevel)
	c.log.Debug().Interface("config", c.cfg.Masked()).Msg("configuration")
	return nil
}

func (c *cli) newClient(ctx context.Context, extra ...syncfiles.Option) (*syncfiles.Client, error) {
	opts := []syncfiles.Option{
		syncfiles.WithLogger(logAdapter.NewZerologAdapterWithLogger(c.log)),
	}
	opts = append(opts, extra...)
	if c.progress {
		opts = append(opts, syncfiles.WithProgress(newProgressPrinter(os.Stderr)))
	}
	client, err := syncfiles.New(ctx, c.cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

func (c *cli) actionCommand(use, short string, action syncfiles.Action) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runAction(cmd.Context(), action)
		},
	}
}

func (c *cli) runCommand() *cobra.Command {
	names := make([]string, 0, 4)
	for _, a := range []syncfiles.Action{
		syncfiles.ActionExportBatch, syncfiles.ActionSendFiles,
		syncfiles.ActionConfirmBatch, syncfiles.ActionPendingFiles,
	} {
		names = append(names, a.String())
	}
	return &cobra.Command{
		Use:       "run <action>",
		Short:     "Run an action by name: " + strings.Join(names, ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := syncfiles.ParseAction(args[0])
			if err != nil {
				return err
			}
			return c.runAction(cmd.Context(), action)
		},
	}
}

func (c *cli) runAction(ctx context.Context, action syncfiles.Action) error {
	client, err := c.newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	res, actionErr := client.Handle(ctx, action)
	if err := printResult(os.Stdout, res, c.asJSON); err != nil {
		return err
	}
	if actionErr != nil {
		return fmt.Errorf("%s: %w", action, actionErr)
	}
	return nil
}

func (c *cli) historyCommand() *cobra.Command {
	limit := app.DefaultHistoryLimit
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the most recently sent files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := c.newClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			entries, err := client.History(ctx, limit)
			if err != nil {
				return err
			}
			return printHistory(os.Stdout, entries, c.asJSON)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", limit, "number of entries to show")
	return cmd
}

func (c *cli) watchCommand() *cobra.Command {
	var archiveMax string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Send whenever files land in the outgoing directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var opts []syncfiles.Option
			if archiveMax != "" {
				high, err := humanize.ParseBytes(archiveMax)
				if err != nil {
					return fmt.Errorf("archive-max: %w", err)
				}
				opts = append(opts, archivecleanup.WithArchiveCleanup(archivecleanup.Config{
					HighWatermark: int64(high),
				}))
			}

			client, err := c.newClient(ctx, opts...)
			if err != nil {
				return err
			}
			defer client.Close()

			err = client.Watch(ctx)
			if errors.Is(err, context.Canceled) {
				c.log.Info().Msg("received signal, stopping...")
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&archiveMax, "archive-max", "", "prune the oldest archived files past this size, e.g. 2GiB (empty disables)")
	return cmd
}
