package log

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/bft-labs/syncfiles/internal/ports"
)

func TestZerologAdapter_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapterWithLogger(zerolog.New(&buf))

	adapter.Info("copied",
		ports.String("file", "a.json"),
		ports.Int64("bytes", 40000),
		ports.Duration("took", 2*time.Second),
		ports.Strings("pending", []string{"b.json"}),
		ports.Err(errors.New("boom")),
	)

	out := buf.String()
	assert.Contains(t, out, `"message":"copied"`)
	assert.Contains(t, out, `"file":"a.json"`)
	assert.Contains(t, out, `"bytes":40000`)
	assert.Contains(t, out, `"pending":["b.json"]`)
	assert.Contains(t, out, `"error":"boom"`)
}

func TestNewConsoleLoggerTo_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, "warn")
	adapter := NewZerologAdapterWithLogger(logger)

	adapter.Info("hidden")
	adapter.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	assert.Equal(t, zerolog.InfoLevel, NewConsoleLoggerTo(&buf, "nonsense").GetLevel())
}
