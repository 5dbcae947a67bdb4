package invoicing

import (
	"context"

	"github.com/google/uuid"
)

// DocumentRepository persists fiscal documents and owns the series counter.
type DocumentRepository interface {
	// MaxNumber returns the highest number issued in series, 0 if none.
	MaxNumber(ctx context.Context, series string) (int, error)

	// Reserve inserts doc. It returns a *NumberingConflictError when the
	// (series, number) pair is already taken.
	Reserve(ctx context.Context, doc *FiscalDocument) error

	// Update stores the provider outcome of a reserved document.
	Update(ctx context.Context, doc *FiscalDocument) error

	FindBySeriesNumber(ctx context.Context, series string, number int) (*FiscalDocument, error)
	FindBySale(ctx context.Context, saleID uuid.UUID) ([]FiscalDocument, error)
}

// Provider submits documents to the electronic invoicing service.
type Provider interface {
	Submit(ctx context.Context, payload *Payload) (*ProviderResponse, error)
}
