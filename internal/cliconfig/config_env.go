package cliconfig

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "SYNCFILES_"

// EnvConfig holds the raw SYNCFILES_* environment. Values stay strings so the
// same setters validate them as file and flag values.
type EnvConfig struct {
	Home              string `env:"HOME"`
	RemoteHost        string `env:"REMOTE_HOST"`
	RemotePort        string `env:"REMOTE_PORT"`
	Username          string `env:"USERNAME"`
	Password          string `env:"PASSWORD"`
	KeyFile           string `env:"KEY_FILE"`
	KnownHostsFile    string `env:"KNOWN_HOSTS_FILE"`
	TrustUnknownHosts string `env:"TRUST_UNKNOWN_HOSTS"`
	ConnectTimeout    string `env:"CONNECT_TIMEOUT"`
	CopyTimeout       string `env:"COPY_TIMEOUT"`
	OutgoingDir       string `env:"OUTGOING_DIR"`
	ArchiveDir        string `env:"ARCHIVE_DIR"`
	RemoteDir         string `env:"REMOTE_DIR"`
	RemoteTmpDir      string `env:"REMOTE_TMP_DIR"`
	MediaDir          string `env:"MEDIA_DIR"`
	MediaRemoteDir    string `env:"MEDIA_REMOTE_DIR"`
	MediaRemoteTmpDir string `env:"MEDIA_REMOTE_TMP_DIR"`
	SpoolDir          string `env:"SPOOL_DIR"`
	Hostname          string `env:"HOSTNAME"`
	LedgerDriver      string `env:"LEDGER_DRIVER"`
	LedgerDSN         string `env:"LEDGER_DSN"`
	UpdateHistory     string `env:"UPDATE_HISTORY"`
	PollInterval      string `env:"POLL_INTERVAL"`
	DebounceDelay     string `env:"DEBOUNCE_DELAY"`
	LogLevel          string `env:"LOG_LEVEL"`
}

// LoadEnvConfig reads SYNCFILES_* variables.
func LoadEnvConfig() (EnvConfig, error) {
	var ec EnvConfig
	if err := env.ParseWithOptions(&ec, env.Options{Prefix: EnvPrefix}); err != nil {
		return ec, fmt.Errorf("parse environment: %w", err)
	}
	return ec, nil
}

// ApplyEnvConfig applies configuration from environment variables (SYNCFILES_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	ec, err := LoadEnvConfig()
	if err != nil {
		return err
	}

	s := newConfigSetter(changed)

	s.setString("home", ec.Home, &cfg.Home)
	s.setString("remote-host", ec.RemoteHost, &cfg.RemoteHost)
	s.setString("username", ec.Username, &cfg.Username)
	s.setString("password", ec.Password, &cfg.Password)
	s.setString("key-file", ec.KeyFile, &cfg.KeyFile)
	s.setString("known-hosts", ec.KnownHostsFile, &cfg.KnownHostsFile)
	s.setString("outgoing-dir", ec.OutgoingDir, &cfg.OutgoingDir)
	s.setString("archive-dir", ec.ArchiveDir, &cfg.ArchiveDir)
	s.setString("remote-dir", ec.RemoteDir, &cfg.RemoteDir)
	s.setString("remote-tmp-dir", ec.RemoteTmpDir, &cfg.RemoteTmpDir)
	s.setString("media-dir", ec.MediaDir, &cfg.MediaDir)
	s.setString("media-remote-dir", ec.MediaRemoteDir, &cfg.MediaRemoteDir)
	s.setString("media-remote-tmp-dir", ec.MediaRemoteTmpDir, &cfg.MediaRemoteTmpDir)
	s.setString("spool-dir", ec.SpoolDir, &cfg.SpoolDir)
	s.setString("hostname", ec.Hostname, &cfg.Hostname)
	s.setString("ledger-driver", ec.LedgerDriver, &cfg.LedgerDriver)
	s.setString("ledger-dsn", ec.LedgerDSN, &cfg.LedgerDSN)
	s.setString("log-level", ec.LogLevel, &cfg.LogLevel)

	if err := s.setIntFromString("remote-port", ec.RemotePort, &cfg.RemotePort); err != nil {
		return err
	}

	if err := s.setDuration("connect-timeout", ec.ConnectTimeout, &cfg.ConnectTimeout); err != nil {
		return err
	}
	if err := s.setDuration("copy-timeout", ec.CopyTimeout, &cfg.CopyTimeout); err != nil {
		return err
	}
	if err := s.setDuration("poll", ec.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("debounce", ec.DebounceDelay, &cfg.DebounceDelay); err != nil {
		return err
	}

	s.setBoolFromString("trust-unknown-hosts", ec.TrustUnknownHosts, &cfg.TrustUnknownHosts)
	s.setBoolFromString("update-history", ec.UpdateHistory, &cfg.UpdateHistory)

	return nil
}
