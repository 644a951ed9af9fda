package ports

import (
	"context"

	"github.com/bft-labs/syncfiles/internal/domain"
)

// Exporter turns pending records into one named batch file in the outgoing directory.
// It returns a nil batch and nil error when there is nothing to export.
type Exporter interface {
	Export(ctx context.Context) (*domain.Batch, error)
}
