package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bft-labs/syncfiles/internal/domain"
)

type ledgerRow struct {
	seq   int
	entry domain.LedgerEntry
}

// Ledger implements ports.LedgerRepository in memory.
type Ledger struct {
	mu   sync.Mutex
	rows map[string]ledgerRow
	seq  int
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{rows: make(map[string]ledgerRow)}
}

// Create implements ports.LedgerRepository.
func (l *Ledger) Create(_ context.Context, filename string, created time.Time) (domain.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.rows[filename]; ok {
		return domain.LedgerEntry{}, &domain.DuplicateError{Filename: filename}
	}
	l.seq++
	e := domain.NewLedgerEntry(filename, created)
	l.rows[filename] = ledgerRow{seq: l.seq, entry: e}
	return clone(e), nil
}

// Get implements ports.LedgerRepository.
func (l *Ledger) Get(_ context.Context, filename string) (domain.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	row, ok := l.rows[filename]
	if !ok {
		return domain.LedgerEntry{}, &domain.NotFoundError{Filename: filename}
	}
	return clone(row.entry), nil
}

// Update implements ports.LedgerRepository.
func (l *Ledger) Update(_ context.Context, entry domain.LedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	row, ok := l.rows[entry.Filename]
	if !ok {
		return &domain.NotFoundError{Filename: entry.Filename}
	}
	row.entry.Sent = entry.Sent
	row.entry.SentAt = entry.SentAt
	row.entry.ApprovalCode = entry.ApprovalCode
	l.rows[entry.Filename] = row
	return nil
}

// ListPending implements ports.LedgerRepository.
func (l *Ledger) ListPending(_ context.Context, order domain.SortOrder) ([]domain.LedgerEntry, error) {
	rows := l.filter(func(e domain.LedgerEntry) bool { return !e.Sent })
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.entry.Created.Equal(b.entry.Created) {
			if order == domain.OldestFirst {
				return a.entry.Created.Before(b.entry.Created)
			}
			return a.entry.Created.After(b.entry.Created)
		}
		if order == domain.OldestFirst {
			return a.seq < b.seq
		}
		return a.seq > b.seq
	})
	return entries(rows), nil
}

// ListSent implements ports.LedgerRepository.
func (l *Ledger) ListSent(_ context.Context, limit int) ([]domain.LedgerEntry, error) {
	rows := l.filter(func(e domain.LedgerEntry) bool { return e.Sent })
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.entry.SentAt.Equal(*b.entry.SentAt) {
			return a.entry.SentAt.After(*b.entry.SentAt)
		}
		return a.seq > b.seq
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return entries(rows), nil
}

// ListAwaitingConfirmation implements ports.LedgerRepository.
func (l *Ledger) ListAwaitingConfirmation(_ context.Context) ([]domain.LedgerEntry, error) {
	rows := l.filter(domain.LedgerEntry.AwaitingConfirmation)
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.entry.SentAt.Equal(*b.entry.SentAt) {
			return a.entry.SentAt.Before(*b.entry.SentAt)
		}
		return a.seq < b.seq
	})
	return entries(rows), nil
}

// Approve implements ports.LedgerRepository.
func (l *Ledger) Approve(_ context.Context, filenames []string, code string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, name := range filenames {
		row, ok := l.rows[name]
		if !ok || !row.entry.AwaitingConfirmation() {
			return &domain.NotFoundError{Filename: name}
		}
	}
	for _, name := range filenames {
		row := l.rows[name]
		row.entry.Approve(code)
		l.rows[name] = row
	}
	return nil
}

func (l *Ledger) filter(keep func(domain.LedgerEntry) bool) []ledgerRow {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []ledgerRow
	for _, row := range l.rows {
		if keep(row.entry) {
			out = append(out, ledgerRow{seq: row.seq, entry: clone(row.entry)})
		}
	}
	return out
}

func entries(rows []ledgerRow) []domain.LedgerEntry {
	out := make([]domain.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.entry)
	}
	return out
}

func clone(e domain.LedgerEntry) domain.LedgerEntry {
	if e.SentAt != nil {
		t := *e.SentAt
		e.SentAt = &t
	}
	if e.ApprovalCode != nil {
		c := *e.ApprovalCode
		e.ApprovalCode = &c
	}
	return e
}
