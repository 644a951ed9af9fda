package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bft-labs/syncfiles/internal/domain"
	"github.com/bft-labs/syncfiles/internal/ports"
)

// DefaultHistoryLimit is the number of entries History returns when limit <= 0.
const DefaultHistoryLimit = 20

// Handler runs one action per call and reports the outcome as a BatchResult.
// It is the only place where component errors become *domain.ActionError.
type Handler struct {
	lifecycle *Lifecycle
	exporter  ports.Exporter
	ledger    ports.LedgerRepository
	sender    *Sender
	confirmer *Confirmer
	logger    ports.Logger
	now       func() time.Time
}

// NewHandler creates an action handler with the given dependencies.
// emitter may be nil.
func NewHandler(
	exporter ports.Exporter,
	ledger ports.LedgerRepository,
	sender *Sender,
	confirmer *Confirmer,
	logger ports.Logger,
	emitter EventEmitter,
) *Handler {
	return &Handler{
		lifecycle: NewLifecycle(logger, emitter),
		exporter:  exporter,
		ledger:    ledger,
		sender:    sender,
		confirmer: confirmer,
		logger:    logger,
		now:       time.Now,
	}
}

// State returns the current batch state.
func (h *Handler) State() State {
	return h.lifecycle.State()
}

// Handle runs action. The returned result always carries the pending list as
// it stands after the action. On failure the error is a *domain.ActionError
// and its message is also stored in the result.
func (h *Handler) Handle(ctx context.Context, action domain.Action) (domain.BatchResult, error) {
	res := domain.NewBatchResult(action)

	err := h.run(ctx, action, &res)

	pending, perr := h.Pending(ctx)
	if perr == nil {
		res.PendingFiles = pending
	} else {
		err = errors.Join(err, fmt.Errorf("list pending: %w", perr))
	}

	if err != nil {
		aerr := &domain.ActionError{Action: action, Err: err}
		res.Error = aerr.Error()
		h.logger.Error("action failed",
			ports.String("action", action.String()),
			ports.Err(err),
		)
		return res, aerr
	}

	h.logger.Info("action completed",
		ports.String("action", action.String()),
		ports.Int("pending", len(res.PendingFiles)),
	)
	return res, nil
}

func (h *Handler) run(ctx context.Context, action domain.Action, res *domain.BatchResult) (err error) {
	if !action.Valid() {
		return domain.ErrInvalidAction
	}

	// queries run without taking a working state
	if state := stateFor(action); state != StateIdle {
		if err := h.lifecycle.TransitionTo(state, action.String()); err != nil {
			return err
		}
		defer func() {
			_ = h.lifecycle.TransitionTo(StateIdle, action.String()+" finished")
		}()
	}

	switch action {
	case domain.ActionExportBatch:
		return h.exportBatch(ctx, res)
	case domain.ActionSendFiles:
		return h.sendFiles(ctx, res)
	case domain.ActionConfirmBatch:
		return h.confirmBatch(ctx, res)
	case domain.ActionPendingFiles:
		return nil
	default:
		return domain.ErrInvalidAction
	}
}

func (h *Handler) exportBatch(ctx context.Context, res *domain.BatchResult) error {
	batch, err := h.exporter.Export(ctx)
	if err != nil {
		return err
	}
	if batch == nil {
		h.logger.Info("nothing to export")
		return nil
	}

	if _, err := h.ledger.Create(ctx, batch.Filename, h.now()); err != nil {
		return err
	}
	res.BatchID = batch.ID

	h.logger.Info("batch exported",
		ports.String("batch_id", batch.ID),
		ports.String("file", batch.Filename),
	)
	return nil
}

// sendFiles drains pending entries oldest first, then sends new media files.
// The two phases are independent: both run and both errors are reported.
func (h *Handler) sendFiles(ctx context.Context, res *domain.BatchResult) error {
	entries, err := h.ledger.ListPending(ctx, domain.OldestFirst)
	if err != nil {
		return err
	}
	names := filenames(entries)

	archived, sendErr := h.sender.Send(ctx, names)
	res.LastArchivedFiles = archived
	if sendErr == nil {
		res.LastSentFiles = names
	}

	media, mediaErr := h.sender.MediaCandidates(ctx)
	if mediaErr == nil && len(media) > 0 {
		mediaErr = h.sender.SendMedia(ctx, media)
		if mediaErr == nil {
			res.LastMediaSent = media
		}
	}

	return errors.Join(sendErr, mediaErr)
}

func (h *Handler) confirmBatch(ctx context.Context, res *domain.BatchResult) error {
	code, _, err := h.confirmer.Confirm(ctx)
	if err != nil {
		return err
	}
	res.ConfirmationCode = code
	return nil
}

// Pending returns the filenames of unsent entries, newest first. It has no side effects.
func (h *Handler) Pending(ctx context.Context) ([]string, error) {
	entries, err := h.ledger.ListPending(ctx, domain.NewestFirst)
	if err != nil {
		return nil, err
	}
	return filenames(entries), nil
}

// History returns the most recently sent entries. limit <= 0 uses DefaultHistoryLimit.
func (h *Handler) History(ctx context.Context, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return h.ledger.ListSent(ctx, limit)
}

func filenames(entries []domain.LedgerEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Filename)
	}
	return out
}
