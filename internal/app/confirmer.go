package app

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/bft-labs/syncfiles/internal/domain"
	"github.com/bft-labs/syncfiles/internal/ports"
)

// CodeGenerator returns a new confirmation code.
type CodeGenerator func() string

// NewConfirmationCode returns the first 8 hex digits of a random UUID, uppercased.
func NewConfirmationCode() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

// Confirmer issues one confirmation code over every sent, unconfirmed entry.
type Confirmer struct {
	ledger  ports.LedgerRepository
	logger  ports.Logger
	newCode CodeGenerator
}

// NewConfirmer creates a confirmer. A nil generator uses NewConfirmationCode.
func NewConfirmer(ledger ports.LedgerRepository, logger ports.Logger, newCode CodeGenerator) *Confirmer {
	if newCode == nil {
		newCode = NewConfirmationCode
	}
	return &Confirmer{ledger: ledger, logger: logger, newCode: newCode}
}

// Confirm writes a fresh code onto all entries awaiting confirmation, all or
// nothing, and returns the code and the confirmed filenames.
// With no eligible entry it fails with *domain.ConfirmationError wrapping
// domain.ErrNothingToConfirm.
func (c *Confirmer) Confirm(ctx context.Context) (string, []string, error) {
	entries, err := c.ledger.ListAwaitingConfirmation(ctx)
	if err != nil {
		return "", nil, &domain.ConfirmationError{Err: err}
	}
	if len(entries) == 0 {
		return "", nil, &domain.ConfirmationError{Err: domain.ErrNothingToConfirm}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Filename)
	}

	code := c.newCode()
	if err := c.ledger.Approve(ctx, names, code); err != nil {
		return "", nil, &domain.ConfirmationError{Err: err}
	}

	c.logger.Info("batch confirmed",
		ports.String("code", code),
		ports.Int("files", len(names)),
	)
	return code, names, nil
}
