package catalog

import (
	"context"

	"github.com/google/uuid"
)

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)

	// FindByName returns shared.ErrNotFound when no category has the name
	FindByName(ctx context.Context, name string) (*Category, error)

	FindAll(ctx context.Context) ([]Category, error)

	Save(ctx context.Context, category *Category) error
}
