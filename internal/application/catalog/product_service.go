// Package catalog serves read access to products for the back office.
package catalog

import (
	"context"

	"github.com/Alex240101/oxapampa/internal/domain/catalog"
	"github.com/Alex240101/oxapampa/internal/domain/shared"
	"github.com/Alex240101/oxapampa/internal/infrastructure/telemetry"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ProductService handles product-related business operations
type ProductService struct {
	productRepo catalog.ProductRepository
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// List returns a page of products matching the filter.
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) (shared.Paginated[ProductResponse], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ProductService", "List")
	defer span.End()

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	filter.PageSize = min(filter.PageSize, maxPageSize)
	if filter.OrderBy == "" {
		filter.OrderBy = "code"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
	}

	products, total, err := s.productRepo.FindAll(ctx, shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.Paginated[ProductResponse]{}, err
	}
	return shared.NewPaginated(ToProductResponses(products), total, filter.Page, filter.PageSize), nil
}

// LowStock returns active products whose stock is at or below their minimum.
func (s *ProductService) LowStock(ctx context.Context) ([]ProductResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ProductService", "LowStock")
	defer span.End()

	products, err := s.productRepo.FindLowStock(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, "count", len(products))
	return ToProductResponses(products), nil
}
