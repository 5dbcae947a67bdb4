package sales

import (
	"context"

	"github.com/google/uuid"
)

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	// FindByID loads a sale with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)

	// Register stores the sale and its items and decrements product stock in a
	// single transaction. It fails with shared.ErrInsufficientStock when any
	// product runs short.
	Register(ctx context.Context, sale *Sale) error

	// AttachDocument stores the fiscal document fields of a sale
	AttachDocument(ctx context.Context, saleID uuid.UUID, doc Document) error
}
