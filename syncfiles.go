// Package syncfiles sends exported batch files to a central server over
// SSH/SFTP, exactly once per file.
//
// Example usage:
//
//	cfg := syncfiles.DefaultConfig()
//	cfg.RemoteHost = "central.example.org"
//	cfg.Username = "node-1"
//	cfg.KeyFile = "/etc/syncfiles/id_ed25519"
//	cfg.RemoteDir = "/srv/incoming"
//	res, err := syncfiles.Run(context.Background(), cfg, syncfiles.ActionSendFiles)
//
// For long-lived use, options and plugins, see pkg/syncfiles.
package syncfiles

import (
	"context"

	"github.com/bft-labs/syncfiles/pkg/syncfiles"
)

// Config holds the client configuration.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = syncfiles.Config

// Action names one operation of the client.
type Action = syncfiles.Action

// BatchResult is returned by every action.
type BatchResult = syncfiles.BatchResult

// Actions.
const (
	ActionExportBatch  = syncfiles.ActionExportBatch
	ActionSendFiles    = syncfiles.ActionSendFiles
	ActionConfirmBatch = syncfiles.ActionConfirmBatch
	ActionPendingFiles = syncfiles.ActionPendingFiles
)

// DefaultConfig returns a Config with sensible default values.
// At minimum, set RemoteHost, Username, a credential and RemoteDir.
func DefaultConfig() Config {
	return syncfiles.DefaultConfig()
}

// Run opens a client, runs one action and closes the client.
func Run(ctx context.Context, cfg Config, action Action) (BatchResult, error) {
	c, err := syncfiles.New(ctx, cfg)
	if err != nil {
		return BatchResult{}, err
	}
	defer c.Close()
	return c.Handle(ctx, action)
}

// Watch opens a client and sends on every change to the outgoing directory
// until ctx is done.
func Watch(ctx context.Context, cfg Config) error {
	c, err := syncfiles.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()
	return c.Watch(ctx)
}
