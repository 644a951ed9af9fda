package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bft-labs/syncfiles/internal/domain"
)

// Supported ledger drivers.
const (
	LedgerSQLite   = "sqlite"
	LedgerPostgres = "postgres"
)

// MaskedSecret replaces secrets when the configuration is logged.
const MaskedSecret = "*****"

// Config holds CLI configuration for syncfiles.
type Config struct {
	Home string

	RemoteHost        string
	RemotePort        int
	Username          string
	Password          string
	KeyFile           string
	KnownHostsFile    string
	TrustUnknownHosts bool
	ConnectTimeout    time.Duration
	CopyTimeout       time.Duration

	OutgoingDir       string
	ArchiveDir        string
	RemoteDir         string
	RemoteTmpDir      string
	MediaDir          string
	MediaRemoteDir    string
	MediaRemoteTmpDir string
	SpoolDir          string
	Hostname          string

	LedgerDriver  string
	LedgerDSN     string
	UpdateHistory bool

	PollInterval  time.Duration
	DebounceDelay time.Duration
	LogLevel      string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		RemotePort:     22,
		ConnectTimeout: 30 * time.Second,
		LedgerDriver:   LedgerSQLite,
		UpdateHistory:  true,
		PollInterval:   time.Minute,
		DebounceDelay:  500 * time.Millisecond,
		LogLevel:       "info",
	}
}

// DefaultHome returns ~/.syncfiles, or ".syncfiles" when the home directory is unknown.
func DefaultHome() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".syncfiles")
	}
	return ".syncfiles"
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.Home == "" {
		c.Home = DefaultHome()
	}
	if c.OutgoingDir == "" {
		c.OutgoingDir = filepath.Join(c.Home, "outgoing")
	}
	if c.ArchiveDir == "" {
		c.ArchiveDir = filepath.Join(c.Home, "archive")
	}
	if c.SpoolDir == "" {
		c.SpoolDir = filepath.Join(c.Home, "spool")
	}
	if c.KnownHostsFile == "" {
		if h, err := os.UserHomeDir(); err == nil {
			c.KnownHostsFile = filepath.Join(h, ".ssh", "known_hosts")
		}
	}
	if c.Hostname == "" {
		if h, err := os.Hostname(); err == nil {
			c.Hostname = h
		}
	}

	if c.RemoteHost == "" {
		return invalid("remote-host is required")
	}
	if c.RemotePort <= 0 || c.RemotePort > 65535 {
		return invalid("remote-port must be between 1 and 65535")
	}
	if c.Username == "" {
		return invalid("username is required")
	}
	if c.Password == "" && c.KeyFile == "" {
		return invalid("password or key-file is required")
	}
	if c.RemoteDir == "" {
		return invalid("remote-dir is required")
	}
	if c.MediaDir != "" && c.MediaRemoteDir == "" {
		return invalid("media-remote-dir is required when media-dir is set")
	}

	switch c.LedgerDriver {
	case "":
		c.LedgerDriver = LedgerSQLite
		fallthrough
	case LedgerSQLite:
		if c.LedgerDSN == "" {
			c.LedgerDSN = filepath.Join(c.Home, "ledger.db")
		}
	case LedgerPostgres:
		if c.LedgerDSN == "" {
			return invalid("ledger-dsn is required for the postgres ledger")
		}
	default:
		return invalid(fmt.Sprintf("unsupported ledger-driver %q", c.LedgerDriver))
	}

	if c.ConnectTimeout <= 0 {
		return invalid("connect timeout must be positive")
	}
	if c.CopyTimeout < 0 || c.PollInterval < 0 || c.DebounceDelay < 0 {
		return invalid("intervals must not be negative")
	}

	return nil
}

// Masked returns a copy safe to log.
func (c Config) Masked() Config {
	if c.Password != "" {
		c.Password = MaskedSecret
	}
	return c
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, msg)
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
