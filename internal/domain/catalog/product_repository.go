package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/Alex240101/oxapampa/internal/domain/shared"
)

// CodeRef pairs a product code with its id, used to match imported rows.
type CodeRef struct {
	Code string
	ID   uuid.UUID
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs finds multiple products by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindAll returns a page of products ordered by the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, int64, error)

	// FindLowStock returns active products whose stock is at or below the minimum
	FindLowStock(ctx context.Context) ([]Product, error)

	// ListForExport streams every product in code order
	ListForExport(ctx context.Context) ([]Product, error)

	// CodeIndex returns the code and id of every product
	CodeIndex(ctx context.Context) ([]CodeRef, error)

	// Create inserts a new product
	Create(ctx context.Context, product *Product) error

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error
}
