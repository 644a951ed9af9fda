package ports

import (
	"context"
	"time"

	"github.com/bft-labs/syncfiles/internal/domain"
)

// LedgerRepository persists per-file send state.
// Updates are last-write-wins on a single row.
type LedgerRepository interface {
	// Create inserts a pending entry.
	// Returns *domain.DuplicateError if the filename already exists.
	Create(ctx context.Context, filename string, created time.Time) (domain.LedgerEntry, error)

	// Get returns the entry for filename.
	// Returns *domain.NotFoundError if absent.
	Get(ctx context.Context, filename string) (domain.LedgerEntry, error)

	// Update saves a mutated entry fetched with Get.
	// Returns *domain.NotFoundError if the row vanished.
	Update(ctx context.Context, entry domain.LedgerEntry) error

	// ListPending returns entries with sent=false ordered by creation time.
	ListPending(ctx context.Context, order domain.SortOrder) ([]domain.LedgerEntry, error)

	// ListSent returns sent entries, newest sent first. limit <= 0 means all.
	ListSent(ctx context.Context, limit int) ([]domain.LedgerEntry, error)

	// ListAwaitingConfirmation returns sent entries without an approval code.
	ListAwaitingConfirmation(ctx context.Context) ([]domain.LedgerEntry, error)

	// Approve writes code onto every named entry, all or nothing.
	Approve(ctx context.Context, filenames []string, code string) error
}
