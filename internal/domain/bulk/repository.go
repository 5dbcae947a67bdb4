package bulk

import (
	"context"

	"github.com/google/uuid"
)

// ImportRunRepository persists import runs.
type ImportRunRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ImportRun, error)

	// FindRecent returns the latest runs, newest first.
	FindRecent(ctx context.Context, limit int) ([]*ImportRun, error)

	Save(ctx context.Context, run *ImportRun) error
}
