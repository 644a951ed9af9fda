package ports

import (
	"context"

	"github.com/bft-labs/syncfiles/internal/domain"
)

// Transport opens authenticated sessions to the remote host.
type Transport interface {
	// Connect authenticates and returns an open session.
	// Returns *domain.ConnectionError when the host is unreachable or not trusted
	// and *domain.AuthenticationError when credentials are rejected.
	// The caller must Close the session on every path.
	Connect(ctx context.Context) (Session, error)
}

// Session is one authenticated connection. It can open several channels.
type Session interface {
	// Host returns the remote host the session is connected to.
	Host() string

	// OpenChannel opens a copy channel rooted at the given directories.
	// The channel must be closed independently of the session.
	OpenChannel(ctx context.Context, opts ChannelOptions) (Channel, error)

	// Close terminates the session.
	Close() error
}

// Channel places files on the remote host atomically.
type Channel interface {
	// Copy sends SourceDir/filename to DestDir/filename through a temp name.
	// The final name only appears after the size check and rename succeed.
	// Returns *domain.TransferIOError or *domain.TransferIntegrityError on failure;
	// the returned Transfer has Committed=false in that case.
	Copy(ctx context.Context, filename string) (domain.Transfer, error)

	// Close releases the channel.
	Close() error
}

// ProgressFunc receives streaming progress for one file.
type ProgressFunc func(p domain.Progress)

// ChannelOptions configures where a channel reads and writes.
type ChannelOptions struct {
	// SourceDir is the local directory holding the files to send.
	SourceDir string

	// DestDir is the remote directory receiving the final names.
	DestDir string

	// TempDir is the remote directory for "<name>.tmp" files.
	// Empty means DestDir.
	TempDir string

	// Progress is called while bytes are streamed. Optional.
	Progress ProgressFunc
}

// TempPathDir returns the directory used for temp names.
func (o ChannelOptions) TempPathDir() string {
	if o.TempDir != "" {
		return o.TempDir
	}
	return o.DestDir
}
