package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/syncfiles/pkg/syncfiles"
)

func init() {
	color.NoColor = true
}

func TestPrintResult_JSON(t *testing.T) {
	res := syncfiles.BatchResult{
		Action:        syncfiles.ActionSendFiles,
		LastSentFiles: []string{"a.json"},
		PendingFiles:  []string{},
	}
	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, res, true))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "send_files", decoded["action"])
	assert.Equal(t, []any{"a.json"}, decoded["last_sent_files"])
	assert.NotContains(t, decoded, "error")
}

func TestPrintResult_Text(t *testing.T) {
	res := syncfiles.BatchResult{
		Action:       syncfiles.ActionSendFiles,
		Error:        "connection refused",
		PendingFiles: []string{"b.json", "a.json"},
	}
	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, res, false))

	out := buf.String()
	assert.Contains(t, out, "✗ send_files: connection refused")
	assert.Contains(t, out, "pending (2):")
	assert.Contains(t, out, "    • b.json")
	assert.NotContains(t, out, "sent (")
}

func TestPrintHistory(t *testing.T) {
	sent := time.Now().Add(-2 * time.Hour)
	code := "ABCD1234"
	entries := []syncfiles.LedgerEntry{
		{Filename: "b.json", Created: sent, Sent: true, SentAt: &sent, ApprovalCode: &code},
		{Filename: "a.json", Created: sent, Sent: true, SentAt: &sent},
	}

	var buf bytes.Buffer
	require.NoError(t, printHistory(&buf, entries, false))
	out := buf.String()
	assert.Contains(t, out, "2 hours ago")
	assert.Contains(t, out, "ABCD1234")
	assert.Contains(t, out, "unconfirmed")

	buf.Reset()
	require.NoError(t, printHistory(&buf, entries, true))
	var rows []historyRow
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "ABCD1234", rows[0].ApprovalCode)
	assert.Empty(t, rows[1].ApprovalCode)
}

func TestPrintHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printHistory(&buf, nil, false))
	assert.Contains(t, buf.String(), "no files sent yet")
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressPrinter(&buf)
	p(syncfiles.Progress{Filename: "a.json", Sent: 512, Total: 1024})
	p(syncfiles.Progress{Filename: "a.json", Sent: 1024, Total: 1024})
	assert.Contains(t, buf.String(), "(50%)")
	assert.Contains(t, buf.String(), "(100%)\n")
}
