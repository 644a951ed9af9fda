package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/syncfiles/internal/domain"
	"github.com/bft-labs/syncfiles/internal/ports"
)

// batchFile is the on-disk layout of one exported batch.
type batchFile struct {
	BatchID      string            `json:"batch_id"`
	Hostname     string            `json:"hostname"`
	Created      time.Time         `json:"created"`
	Transactions []json.RawMessage `json:"transactions"`
}

// SpoolExporter implements ports.Exporter by bundling the JSON records found in
// a spool directory into one batch file written atomically to the outgoing directory.
type SpoolExporter struct {
	spoolDir    string
	outgoingDir string
	hostname    string
	logger      ports.Logger

	now   func() time.Time
	newID func() string
}

// NewSpoolExporter creates an exporter reading spoolDir and writing outgoingDir.
func NewSpoolExporter(spoolDir, outgoingDir, hostname string, logger ports.Logger) *SpoolExporter {
	return &SpoolExporter{
		spoolDir:    spoolDir,
		outgoingDir: outgoingDir,
		hostname:    sanitizeHost(hostname),
		logger:      logger,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Export bundles every *.json record in the spool. It returns (nil, nil) when
// the spool is empty. Consumed records are removed only after the batch file exists.
func (e *SpoolExporter) Export(ctx context.Context) (*domain.Batch, error) {
	records, err := e.records()
	if err != nil {
		return nil, fmt.Errorf("read spool: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	created := e.now().UTC()
	id := e.newID()
	bf := batchFile{
		BatchID:      id,
		Hostname:     e.hostname,
		Created:      created,
		Transactions: make([]json.RawMessage, 0, len(records)),
	}
	for _, path := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		if !json.Valid(b) {
			return nil, fmt.Errorf("record %s is not valid JSON", filepath.Base(path))
		}
		bf.Transactions = append(bf.Transactions, json.RawMessage(b))
	}

	data, err := json.Marshal(bf)
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}

	short := strings.ReplaceAll(id, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	filename := fmt.Sprintf("%s_%s_%s.json", e.hostname, created.Format("20060102150405"), short)
	if err := writeFileAtomic(filepath.Join(e.outgoingDir, filename), data, 0o644); err != nil {
		return nil, fmt.Errorf("write batch: %w", err)
	}

	for _, path := range records {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			e.logger.Warn("failed to remove exported record",
				ports.String("record", path),
				ports.Err(err),
			)
		}
	}

	e.logger.Info("exported batch",
		ports.String("batch_id", id),
		ports.String("file", filename),
		ports.Int("records", len(records)),
	)
	return &domain.Batch{ID: id, Filename: filename}, nil
}

func (e *SpoolExporter) records() ([]string, error) {
	entries, err := os.ReadDir(e.spoolDir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		out = append(out, filepath.Join(e.spoolDir, entry.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func sanitizeHost(h string) string {
	if h == "" {
		return "node"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '-'
		}
	}, h)
}
