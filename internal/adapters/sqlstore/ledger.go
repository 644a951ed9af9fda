package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/syncfiles/internal/domain"
)

const entryColumns = `filename, created_at, sent, sent_at, approval_code`

// Ledger implements ports.LedgerRepository on a SQL database.
// Timestamps are stored as unix nanoseconds so both dialects share one codec.
type Ledger struct {
	db       *sql.DB
	numbered bool
}

// NewSQLiteLedger returns a ledger using "?" placeholders.
func NewSQLiteLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// NewPostgresLedger returns a ledger using "$N" placeholders.
func NewPostgresLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db, numbered: true}
}

// NewLedger returns the ledger matching driver.
func NewLedger(db *sql.DB, driver string) (*Ledger, error) {
	switch driver {
	case DriverSQLite:
		return NewSQLiteLedger(db), nil
	case DriverPostgres:
		return NewPostgresLedger(db), nil
	default:
		return nil, fmt.Errorf("unsupported ledger driver %q", driver)
	}
}

// rebind rewrites "?" placeholders to "$1..$N" for PostgreSQL.
func (l *Ledger) rebind(query string) string {
	if !l.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Create inserts a pending entry or reports a duplicate.
func (l *Ledger) Create(ctx context.Context, filename string, created time.Time) (domain.LedgerEntry, error) {
	query := l.rebind(`INSERT INTO ledger_entries (filename, created_at, sent)
		VALUES (?, ?, ?)
		ON CONFLICT (filename) DO NOTHING`)

	result, err := l.db.ExecContext(ctx, query, filename, created.UnixNano(), false)
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.LedgerEntry{}, &domain.DuplicateError{Filename: filename}
	}

	return domain.NewLedgerEntry(filename, time.Unix(0, created.UnixNano()).UTC()), nil
}

// Get returns the entry for filename.
func (l *Ledger) Get(ctx context.Context, filename string) (domain.LedgerEntry, error) {
	query := l.rebind(`SELECT ` + entryColumns + ` FROM ledger_entries WHERE filename = ?`)

	e, err := scanEntry(l.db.QueryRowContext(ctx, query, filename))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.LedgerEntry{}, &domain.NotFoundError{Filename: filename}
		}
		return domain.LedgerEntry{}, fmt.Errorf("failed to select ledger entry: %w", err)
	}
	return e, nil
}

// Update saves sent state and approval code of an existing entry.
func (l *Ledger) Update(ctx context.Context, entry domain.LedgerEntry) error {
	query := l.rebind(`UPDATE ledger_entries SET sent = ?, sent_at = ?, approval_code = ? WHERE filename = ?`)

	result, err := l.db.ExecContext(ctx, query,
		entry.Sent, nullableNanos(entry.SentAt), nullableString(entry.ApprovalCode), entry.Filename)
	if err != nil {
		return fmt.Errorf("failed to update ledger entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return &domain.NotFoundError{Filename: entry.Filename}
	}
	return nil
}

// ListPending returns unsent entries ordered by creation.
func (l *Ledger) ListPending(ctx context.Context, order domain.SortOrder) ([]domain.LedgerEntry, error) {
	dir := "DESC"
	if order == domain.OldestFirst {
		dir = "ASC"
	}
	query := l.rebind(`SELECT ` + entryColumns + ` FROM ledger_entries
		WHERE sent = ?
		ORDER BY created_at ` + dir + `, id ` + dir)

	return l.list(ctx, query, false)
}

// ListSent returns sent entries, most recently sent first.
func (l *Ledger) ListSent(ctx context.Context, limit int) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries
		WHERE sent = ?
		ORDER BY sent_at DESC, id DESC`
	args := []any{true}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return l.list(ctx, l.rebind(query), args...)
}

// ListAwaitingConfirmation returns sent entries without an approval code, oldest first.
func (l *Ledger) ListAwaitingConfirmation(ctx context.Context) ([]domain.LedgerEntry, error) {
	query := l.rebind(`SELECT ` + entryColumns + ` FROM ledger_entries
		WHERE sent = ? AND approval_code IS NULL
		ORDER BY sent_at ASC, id ASC`)
	return l.list(ctx, query, true)
}

// Approve sets code on every named entry inside one transaction. If any entry
// is no longer awaiting confirmation nothing is written.
func (l *Ledger) Approve(ctx context.Context, filenames []string, code string) error {
	query := l.rebind(`UPDATE ledger_entries SET approval_code = ?
		WHERE filename = ? AND sent = ? AND approval_code IS NULL`)

	return WithTx(ctx, l.db, nil, func(ctx context.Context, tx DBTX) error {
		for _, name := range filenames {
			result, err := tx.ExecContext(ctx, query, code, name, true)
			if err != nil {
				return fmt.Errorf("failed to approve %s: %w", name, err)
			}
			rowsAffected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if rowsAffected != 1 {
				return fmt.Errorf("approve %s: %w", name, &domain.NotFoundError{Filename: name})
			}
		}
		return nil
	})
}

func (l *Ledger) list(ctx context.Context, query string, args ...any) ([]domain.LedgerEntry, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error selecting ledger entries: %w", err)
	}
	defer rows.Close()

	result := []domain.LedgerEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (domain.LedgerEntry, error) {
	var (
		e        domain.LedgerEntry
		created  int64
		sentAt   sql.NullInt64
		approval sql.NullString
	)
	if err := s.Scan(&e.Filename, &created, &e.Sent, &sentAt, &approval); err != nil {
		return domain.LedgerEntry{}, err
	}
	e.Created = time.Unix(0, created).UTC()
	if sentAt.Valid {
		t := time.Unix(0, sentAt.Int64).UTC()
		e.SentAt = &t
	}
	if approval.Valid {
		code := approval.String
		e.ApprovalCode = &code
	}
	return e, nil
}

func nullableNanos(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
