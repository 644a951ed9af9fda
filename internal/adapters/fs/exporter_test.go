package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logAdapter "github.com/bft-labs/syncfiles/internal/adapters/log"
)

func newTestExporter(t *testing.T) (*SpoolExporter, string, string) {
	t.Helper()
	tmp := t.TempDir()
	spool := filepath.Join(tmp, "spool")
	outgoing := filepath.Join(tmp, "outgoing")
	require.NoError(t, os.MkdirAll(spool, 0o755))

	e := NewSpoolExporter(spool, outgoing, "clinic.01", logAdapter.NewNoopLogger())
	e.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }
	e.newID = func() string { return "0f1e2d3c-4b5a-6978-8796-a5b4c3d2e1f0" }
	return e, spool, outgoing
}

func TestSpoolExporter_EmptySpool(t *testing.T) {
	e, _, outgoing := newTestExporter(t)

	batch, err := e.Export(context.Background())
	require.NoError(t, err)
	assert.Nil(t, batch)
	assert.NoDirExists(t, outgoing)
}

func TestSpoolExporter_BundlesRecords(t *testing.T) {
	e, spool, outgoing := newTestExporter(t)
	require.NoError(t, os.WriteFile(filepath.Join(spool, "001.json"), []byte(`{"id":1}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(spool, "002.json"), []byte(`{"id":2}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(spool, "ignore.txt"), []byte(`x`), 0o644))

	batch, err := e.Export(context.Background())
	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.Equal(t, "0f1e2d3c-4b5a-6978-8796-a5b4c3d2e1f0", batch.ID)
	assert.Equal(t, "clinic-01_20240506070809_0f1e2d3c.json", batch.Filename)

	b, err := os.ReadFile(filepath.Join(outgoing, batch.Filename))
	require.NoError(t, err)
	var bf batchFile
	require.NoError(t, json.Unmarshal(b, &bf))
	assert.Equal(t, batch.ID, bf.BatchID)
	require.Len(t, bf.Transactions, 2)
	assert.JSONEq(t, `{"id":1}`, string(bf.Transactions[0]))

	assert.NoFileExists(t, filepath.Join(spool, "001.json"))
	assert.NoFileExists(t, filepath.Join(spool, "002.json"))
	assert.FileExists(t, filepath.Join(spool, "ignore.txt"))
	assert.NoFileExists(t, filepath.Join(outgoing, batch.Filename+".tmp"))
}

func TestSpoolExporter_InvalidRecordKeepsSpool(t *testing.T) {
	e, spool, _ := newTestExporter(t)
	require.NoError(t, os.WriteFile(filepath.Join(spool, "bad.json"), []byte(`{not json`), 0o644))

	_, err := e.Export(context.Background())
	require.Error(t, err)
	assert.FileExists(t, filepath.Join(spool, "bad.json"))
}

func TestSpoolExporter_MissingSpool(t *testing.T) {
	e := NewSpoolExporter(filepath.Join(t.TempDir(), "nope"), t.TempDir(), "h", logAdapter.NewNoopLogger())
	_, err := e.Export(context.Background())
	assert.Error(t, err)
}
