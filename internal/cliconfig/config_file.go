package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Home              string `toml:"home"`
	RemoteHost        string `toml:"remote_host"`
	RemotePort        int    `toml:"remote_port"`
	Username          string `toml:"username"`
	Password          string `toml:"password"`
	KeyFile           string `toml:"key_file"`
	KnownHostsFile    string `toml:"known_hosts_file"`
	TrustUnknownHosts *bool  `toml:"trust_unknown_hosts"`
	ConnectTimeout    string `toml:"connect_timeout"`
	CopyTimeout       string `toml:"copy_timeout"`
	OutgoingDir       string `toml:"outgoing_dir"`
	ArchiveDir        string `toml:"archive_dir"`
	RemoteDir         string `toml:"remote_dir"`
	RemoteTmpDir      string `toml:"remote_tmp_dir"`
	MediaDir          string `toml:"media_dir"`
	MediaRemoteDir    string `toml:"media_remote_dir"`
	MediaRemoteTmpDir string `toml:"media_remote_tmp_dir"`
	SpoolDir          string `toml:"spool_dir"`
	Hostname          string `toml:"hostname"`
	LedgerDriver      string `toml:"ledger_driver"`
	LedgerDSN         string `toml:"ledger_dsn"`
	UpdateHistory     *bool  `toml:"update_history"`
	PollInterval      string `toml:"poll_interval"`
	DebounceDelay     string `toml:"debounce_delay"`
	LogLevel          string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.syncfiles/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".syncfiles", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("home", fc.Home, &cfg.Home)
	s.setString("remote-host", fc.RemoteHost, &cfg.RemoteHost)
	s.setString("username", fc.Username, &cfg.Username)
	s.setString("password", fc.Password, &cfg.Password)
	s.setString("key-file", fc.KeyFile, &cfg.KeyFile)
	s.setString("known-hosts", fc.KnownHostsFile, &cfg.KnownHostsFile)
	s.setString("outgoing-dir", fc.OutgoingDir, &cfg.OutgoingDir)
	s.setString("archive-dir", fc.ArchiveDir, &cfg.ArchiveDir)
	s.setString("remote-dir", fc.RemoteDir, &cfg.RemoteDir)
	s.setString("remote-tmp-dir", fc.RemoteTmpDir, &cfg.RemoteTmpDir)
	s.setString("media-dir", fc.MediaDir, &cfg.MediaDir)
	s.setString("media-remote-dir", fc.MediaRemoteDir, &cfg.MediaRemoteDir)
	s.setString("media-remote-tmp-dir", fc.MediaRemoteTmpDir, &cfg.MediaRemoteTmpDir)
	s.setString("spool-dir", fc.SpoolDir, &cfg.SpoolDir)
	s.setString("hostname", fc.Hostname, &cfg.Hostname)
	s.setString("ledger-driver", fc.LedgerDriver, &cfg.LedgerDriver)
	s.setString("ledger-dsn", fc.LedgerDSN, &cfg.LedgerDSN)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	s.setInt("remote-port", fc.RemotePort, &cfg.RemotePort)

	if err := s.setDuration("connect-timeout", fc.ConnectTimeout, &cfg.ConnectTimeout); err != nil {
		return err
	}
	if err := s.setDuration("copy-timeout", fc.CopyTimeout, &cfg.CopyTimeout); err != nil {
		return err
	}
	if err := s.setDuration("poll", fc.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("debounce", fc.DebounceDelay, &cfg.DebounceDelay); err != nil {
		return err
	}

	s.setBool("trust-unknown-hosts", fc.TrustUnknownHosts, &cfg.TrustUnknownHosts)
	s.setBool("update-history", fc.UpdateHistory, &cfg.UpdateHistory)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
