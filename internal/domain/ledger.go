package domain

import "time"

// LedgerEntry is the send state of one exported batch file.
// Sent is true exactly when SentAt is non-nil.
type LedgerEntry struct {
	// Filename is the unique key of the entry (base name inside outgoing/).
	Filename string

	// Created is when the export recorded the entry.
	Created time.Time

	// Sent reports whether the file was committed on the remote host.
	Sent bool

	// SentAt is set together with Sent.
	SentAt *time.Time

	// ApprovalCode is the confirmation code, set once confirmed.
	ApprovalCode *string
}

// NewLedgerEntry returns a pending entry for filename.
func NewLedgerEntry(filename string, created time.Time) LedgerEntry {
	return LedgerEntry{Filename: filename, Created: created}
}

// MarkSent flips the entry to sent at the given time.
func (e *LedgerEntry) MarkSent(at time.Time) {
	e.Sent = true
	e.SentAt = &at
}

// Approve stores the confirmation code on the entry.
func (e *LedgerEntry) Approve(code string) {
	e.ApprovalCode = &code
}

// Confirmed reports whether the entry carries a confirmation code.
func (e LedgerEntry) Confirmed() bool {
	return e.ApprovalCode != nil
}

// AwaitingConfirmation reports whether the entry was sent but not confirmed yet.
func (e LedgerEntry) AwaitingConfirmation() bool {
	return e.Sent && e.ApprovalCode == nil
}

// SortOrder selects the direction of ledger listings.
type SortOrder int

const (
	// NewestFirst orders by the listing's timestamp, descending.
	NewestFirst SortOrder = iota
	// OldestFirst orders by the listing's timestamp, ascending.
	OldestFirst
)

// String returns a human-readable representation of the order.
func (o SortOrder) String() string {
	switch o {
	case NewestFirst:
		return "desc"
	case OldestFirst:
		return "asc"
	default:
		return "unknown"
	}
}
