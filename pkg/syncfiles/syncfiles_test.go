package syncfiles_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/syncfiles/internal/adapters/memory"
	"github.com/bft-labs/syncfiles/pkg/syncfiles"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []syncfiles.StateChangeEvent
}

func (h *recordingHandler) OnStateChange(ev syncfiles.StateChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
}

func testConfig(t *testing.T) syncfiles.Config {
	t.Helper()
	cfg := syncfiles.DefaultConfig()
	cfg.Home = t.TempDir()
	cfg.RemoteHost = "central"
	cfg.Username = "node"
	cfg.Password = "secret"
	cfg.RemoteDir = "/srv/incoming"
	cfg.Hostname = "node-1"
	return cfg
}

func spoolRecord(t *testing.T, cfg syncfiles.Config, name, body string) {
	t.Helper()
	dir := cfg.SpoolDir
	if dir == "" {
		dir = filepath.Join(cfg.Home, "spool")
	}
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := syncfiles.DefaultConfig()
	_, err := syncfiles.New(context.Background(), cfg)
	assert.ErrorIs(t, err, syncfiles.ErrInvalidConfig)
}

func TestClient_ExportSendConfirm(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	transport := memory.NewTransport(memory.NewRemote(), "central", "node")
	events := &recordingHandler{}

	c, err := syncfiles.New(ctx, cfg,
		syncfiles.WithTransport(transport),
		syncfiles.WithLedger(memory.NewLedger()),
		syncfiles.WithCodeGenerator(func() string { return "CODE0001" }),
		syncfiles.WithEventHandler(events),
	)
	require.NoError(t, err)
	defer c.Close()

	spoolRecord(t, cfg, "tx1.json", `{"id":1}`)
	spoolRecord(t, cfg, "tx2.json", `{"id":2}`)

	res, err := c.Export(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, res.BatchID)
	require.Len(t, res.PendingFiles, 1)
	batch := res.PendingFiles[0]

	res, err = c.Send(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{batch}, res.LastSentFiles)
	assert.Empty(t, res.PendingFiles)
	assert.True(t, transport.Remote().Exists("/srv/incoming/"+batch))
	assert.FileExists(t, filepath.Join(cfg.Home, "archive", batch))

	res, err = c.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CODE0001", res.ConfirmationCode)

	history, err := c.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].ApprovalCode)
	assert.Equal(t, "CODE0001", *history[0].ApprovalCode)

	assert.Equal(t, syncfiles.StateIdle, c.State())
	events.mu.Lock()
	defer events.mu.Unlock()
	require.NotEmpty(t, events.events)
	assert.Equal(t, syncfiles.StateExporting, events.events[0].Current)
}

func TestClient_SQLiteLedger(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	transport := memory.NewTransport(memory.NewRemote(), "central", "node")

	c, err := syncfiles.New(ctx, cfg, syncfiles.WithTransport(transport))
	require.NoError(t, err)

	spoolRecord(t, cfg, "tx1.json", `{"id":1}`)
	_, err = c.Export(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.FileExists(t, filepath.Join(cfg.Home, "ledger.db"))

	// pending entries survive a restart
	c, err = syncfiles.New(ctx, cfg, syncfiles.WithTransport(transport))
	require.NoError(t, err)
	defer c.Close()

	res, err := c.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, res.PendingFiles, 1)

	res, err = c.Send(ctx)
	require.NoError(t, err)
	assert.Len(t, res.LastSentFiles, 1)
	assert.Empty(t, res.PendingFiles)
}

func TestClient_ConfirmWithNothingSent(t *testing.T) {
	ctx := context.Background()
	c, err := syncfiles.New(ctx, testConfig(t),
		syncfiles.WithTransport(memory.NewTransport(memory.NewRemote(), "central", "node")),
		syncfiles.WithLedger(memory.NewLedger()),
	)
	require.NoError(t, err)
	defer c.Close()

	res, err := c.Confirm(ctx)
	assert.ErrorIs(t, err, syncfiles.ErrNothingToConfirm)
	assert.True(t, res.Failed())
}

func TestParseAction(t *testing.T) {
	a, err := syncfiles.ParseAction("send_files")
	require.NoError(t, err)
	assert.Equal(t, syncfiles.ActionSendFiles, a)

	_, err = syncfiles.ParseAction("reboot")
	assert.ErrorIs(t, err, syncfiles.ErrInvalidAction)
}
