package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/syncfiles/internal/domain"
	"github.com/bft-labs/syncfiles/internal/ports"
)

func writeSource(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func openChannel(t *testing.T, tr *Transport, opts ports.ChannelOptions) (ports.Session, ports.Channel) {
	t.Helper()
	sess, err := tr.Connect(context.Background())
	require.NoError(t, err)
	ch, err := sess.OpenChannel(context.Background(), opts)
	require.NoError(t, err)
	return sess, ch
}

func TestCopyCommitsUnderFinalName(t *testing.T) {
	src := t.TempDir()
	writeSource(t, src, "a.json", `{"id":1}`)

	tr := NewTransport(NewRemote(), "central", "client")
	var last domain.Progress
	sess, ch := openChannel(t, tr, ports.ChannelOptions{
		SourceDir: src,
		DestDir:   "/incoming",
		Progress:  func(p domain.Progress) { last = p },
	})

	res, err := ch.Copy(context.Background(), "a.json")
	require.NoError(t, err)
	assert.True(t, res.Committed)
	assert.Equal(t, "/incoming/a.json", res.RemotePath)
	assert.Equal(t, int64(8), res.Bytes)
	assert.Equal(t, 100.0, last.Percent())

	data, ok := tr.Remote().ReadFile("/incoming/a.json")
	require.True(t, ok)
	assert.Equal(t, `{"id":1}`, string(data))
	assert.False(t, tr.Remote().Exists("/incoming/a.json.tmp"))

	require.NoError(t, ch.Close())
	require.NoError(t, sess.Close())
	assert.Equal(t, []string{"session.open", "channel.open", "channel.close", "session.close"}, tr.Events())
}

func TestCopyUsesSeparateTempDir(t *testing.T) {
	src := t.TempDir()
	writeSource(t, src, "a.json", "x")

	tr := NewTransport(NewRemote(), "central", "client")
	tr.FailAfter(0, true)
	_, ch := openChannel(t, tr, ports.ChannelOptions{SourceDir: src, DestDir: "/incoming", TempDir: "/tmp"})

	_, err := ch.Copy(context.Background(), "a.json")
	require.Error(t, err)
	assert.Equal(t, []string{"a.json.tmp"}, tr.Remote().List("/tmp"))
	assert.Empty(t, tr.Remote().List("/incoming"))
}

func TestCrashMidCopyLeavesNoFinalName(t *testing.T) {
	src := t.TempDir()
	writeSource(t, src, "a.json", "0123456789")

	tr := NewTransport(NewRemote(), "central", "client")
	tr.FailAfter(0, true)
	_, ch := openChannel(t, tr, ports.ChannelOptions{SourceDir: src, DestDir: "/incoming"})

	res, err := ch.Copy(context.Background(), "a.json")
	var ioErr *domain.TransferIOError
	require.True(t, errors.As(err, &ioErr))
	assert.False(t, res.Committed)
	assert.False(t, tr.Remote().Exists("/incoming/a.json"))

	partial, ok := tr.Remote().ReadFile("/incoming/a.json.tmp")
	require.True(t, ok)
	assert.Len(t, partial, 5)
}

func TestSizeMismatchIsNotRenamed(t *testing.T) {
	src := t.TempDir()
	writeSource(t, src, "a.json", "0123456789")

	tr := NewTransport(NewRemote(), "central", "client")
	tr.CorruptSize()
	_, ch := openChannel(t, tr, ports.ChannelOptions{SourceDir: src, DestDir: "/incoming"})

	_, err := ch.Copy(context.Background(), "a.json")
	var integrity *domain.TransferIntegrityError
	require.True(t, errors.As(err, &integrity))
	assert.Equal(t, int64(10), integrity.LocalSize)
	assert.Equal(t, int64(9), integrity.RemoteSize)
	assert.False(t, tr.Remote().Exists("/incoming/a.json"))
}

func TestMissingSourceIsIOError(t *testing.T) {
	tr := NewTransport(NewRemote(), "central", "client")
	_, ch := openChannel(t, tr, ports.ChannelOptions{SourceDir: t.TempDir(), DestDir: "/incoming"})

	_, err := ch.Copy(context.Background(), "missing.json")
	var ioErr *domain.TransferIOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "read", ioErr.Op)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestConnectTrustPolicy(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*Transport)
		wantErr   bool
		checkFunc func(t *testing.T, err error)
	}{
		{
			name:  "unknown host rejected",
			setup: func(tr *Transport) { tr.UnknownHost(false) },
			checkFunc: func(t *testing.T, err error) {
				var ce *domain.ConnectionError
				require.True(t, errors.As(err, &ce))
				assert.True(t, ce.UnknownHost)
				assert.Contains(t, err.Error(), "central")
			},
			wantErr: true,
		},
		{
			name:  "unknown host trusted",
			setup: func(tr *Transport) { tr.UnknownHost(true) },
		},
		{
			name:  "bad credentials",
			setup: func(tr *Transport) { tr.RejectCredentials() },
			checkFunc: func(t *testing.T, err error) {
				var ae *domain.AuthenticationError
				require.True(t, errors.As(err, &ae))
				assert.Equal(t, "client", ae.Username)
			},
			wantErr: true,
		},
		{
			name: "unknown host checked before credentials",
			setup: func(tr *Transport) {
				tr.UnknownHost(false)
				tr.RejectCredentials()
			},
			checkFunc: func(t *testing.T, err error) {
				var ce *domain.ConnectionError
				require.True(t, errors.As(err, &ce))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTransport(NewRemote(), "central", "client")
			tt.setup(tr)
			sess, err := tr.Connect(context.Background())
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, "central", sess.Host())
				require.NoError(t, sess.Close())
				return
			}
			require.Error(t, err)
			assert.Equal(t, 0, tr.Connects())
			tt.checkFunc(t, err)
		})
	}
}
