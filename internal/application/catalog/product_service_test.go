package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Alex240101/oxapampa/internal/domain/catalog"
	"github.com/Alex240101/oxapampa/internal/domain/shared"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) FindLowStock(ctx context.Context) ([]catalog.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) ListForExport(ctx context.Context) ([]catalog.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) CodeIndex(ctx context.Context) ([]catalog.CodeRef, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalog.CodeRef), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, p *catalog.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) Save(ctx context.Context, p *catalog.Product) error {
	return m.Called(ctx, p).Error(0)
}

func newProduct(t *testing.T, code string, stock, minStock int64) catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(code, "Producto "+code, "")
	require.NoError(t, err)
	require.NoError(t, p.ApplyImport(p.Name, "Oxapampa", decimal.NewFromInt(stock), decimal.NewFromInt(minStock)))
	return *p
}

func TestProductService_List_AppliesDefaults(t *testing.T) {
	repo := new(MockProductRepository)
	svc := NewProductService(repo)

	products := []catalog.Product{newProduct(t, "A-1", 10, 2), newProduct(t, "A-2", 1, 5)}
	repo.On("FindAll", mock.Anything, shared.Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "code",
		OrderDir: "asc",
		Search:   "foco",
	}).Return(products, int64(41), nil)

	page, err := svc.List(context.Background(), ProductListFilter{Search: "foco"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(41), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.False(t, page.Items[0].LowStock)
	assert.True(t, page.Items[1].LowStock)
	repo.AssertExpectations(t)
}

func TestProductService_List_CapsPageSize(t *testing.T) {
	repo := new(MockProductRepository)
	svc := NewProductService(repo)

	repo.On("FindAll", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
		return f.PageSize == maxPageSize && f.Page == 3 && f.OrderBy == "stock" && f.OrderDir == "desc"
	})).Return([]catalog.Product{}, int64(0), nil)

	page, err := svc.List(context.Background(), ProductListFilter{Page: 3, PageSize: 500, OrderBy: "stock", OrderDir: "desc"})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.Page)
}

func TestProductService_List_RepositoryError(t *testing.T) {
	repo := new(MockProductRepository)
	svc := NewProductService(repo)
	repo.On("FindAll", mock.Anything, mock.Anything).Return([]catalog.Product(nil), int64(0), errors.New("db down"))

	_, err := svc.List(context.Background(), ProductListFilter{})
	assert.EqualError(t, err, "db down")
}

func TestProductService_LowStock(t *testing.T) {
	repo := new(MockProductRepository)
	svc := NewProductService(repo)

	low := newProduct(t, "L-1", 3, 3)
	repo.On("FindLowStock", mock.Anything).Return([]catalog.Product{low}, nil)

	got, err := svc.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "L-1", got[0].Code)
	assert.True(t, got[0].LowStock)
	assert.Equal(t, "Oxapampa", got[0].Store)
}
