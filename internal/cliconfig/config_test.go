package cliconfig

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bft-labs/syncfiles/internal/domain"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Home = "/var/lib/syncfiles"
	cfg.RemoteHost = "central.example.org"
	cfg.Username = "client"
	cfg.Password = "pw"
	cfg.RemoteDir = "/srv/incoming"
	cfg.KnownHostsFile = "/etc/ssh/known_hosts"
	cfg.Hostname = "node-1"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.RemotePort != 22 {
		t.Errorf("RemotePort = %v, want 22", cfg.RemotePort)
	}
	if cfg.LedgerDriver != LedgerSQLite {
		t.Errorf("LedgerDriver = %v, want %v", cfg.LedgerDriver, LedgerSQLite)
	}
	if !cfg.UpdateHistory {
		t.Error("UpdateHistory = false, want true")
	}
	if cfg.PollInterval != time.Minute {
		t.Errorf("PollInterval = %v, want 1m", cfg.PollInterval)
	}
	if cfg.TrustUnknownHosts {
		t.Error("TrustUnknownHosts must default to false")
	}
}

func TestConfig_ValidateDerivesPaths(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	want := map[string]string{
		"outgoing": filepath.Join(cfg.Home, "outgoing"),
		"archive":  filepath.Join(cfg.Home, "archive"),
		"spool":    filepath.Join(cfg.Home, "spool"),
		"ledger":   filepath.Join(cfg.Home, "ledger.db"),
	}
	got := map[string]string{
		"outgoing": cfg.OutgoingDir,
		"archive":  cfg.ArchiveDir,
		"spool":    cfg.SpoolDir,
		"ledger":   cfg.LedgerDSN,
	}
	for k, w := range want {
		if got[k] != w {
			t.Errorf("%s = %v, want %v", k, got[k], w)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"key file instead of password", func(c *Config) { c.Password = ""; c.KeyFile = "/k" }, ""},
		{"missing host", func(c *Config) { c.RemoteHost = "" }, "remote-host"},
		{"bad port", func(c *Config) { c.RemotePort = 70000 }, "remote-port"},
		{"missing user", func(c *Config) { c.Username = "" }, "username"},
		{"no credentials", func(c *Config) { c.Password = "" }, "password or key-file"},
		{"missing remote dir", func(c *Config) { c.RemoteDir = "" }, "remote-dir"},
		{"media without remote", func(c *Config) { c.MediaDir = "/m" }, "media-remote-dir"},
		{"postgres without dsn", func(c *Config) { c.LedgerDriver = LedgerPostgres }, "ledger-dsn"},
		{"postgres with dsn", func(c *Config) {
			c.LedgerDriver = LedgerPostgres
			c.LedgerDSN = "postgres://u@db/ledger"
		}, ""},
		{"unknown driver", func(c *Config) { c.LedgerDriver = "mysql" }, "ledger-driver"},
		{"zero connect timeout", func(c *Config) { c.ConnectTimeout = 0 }, "connect timeout"},
		{"negative poll", func(c *Config) { c.PollInterval = -time.Second }, "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("error %v does not wrap ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Masked(t *testing.T) {
	cfg := validConfig()
	masked := cfg.Masked()

	if masked.Password != MaskedSecret {
		t.Errorf("Password = %v, want masked", masked.Password)
	}
	if cfg.Password != "pw" {
		t.Error("Masked() modified the receiver")
	}

	cfg.Password = ""
	if cfg.Masked().Password != "" {
		t.Error("empty password should stay empty")
	}
}

func TestConfigSetter(t *testing.T) {
	s := newConfigSetter(map[string]bool{"remote-host": true})

	host := "flag-host"
	s.setString("remote-host", "file-host", &host)
	if host != "flag-host" {
		t.Errorf("changed flag overwritten: %v", host)
	}

	port := 22
	if err := s.setIntFromString("remote-port", "-1", &port); err != nil || port != 22 {
		t.Errorf("non-positive port applied: %v, %v", port, err)
	}
	if err := s.setIntFromString("remote-port", "x", &port); err == nil {
		t.Error("expected parse error")
	}

	var b bool
	s.setBoolFromString("update-history", "1", &b)
	if !b {
		t.Error("\"1\" should parse as true")
	}
}
