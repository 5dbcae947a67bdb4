package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	catalogapp "github.com/Alex240101/oxapampa/internal/application/catalog"
	"github.com/Alex240101/oxapampa/internal/domain/shared"
)

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, filter catalogapp.ProductListFilter) (shared.Paginated[catalogapp.ProductResponse], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[catalogapp.ProductResponse]), args.Error(1)
}

func (m *MockProductService) LowStock(ctx context.Context) ([]catalogapp.ProductResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalogapp.ProductResponse), args.Error(1)
}

func productRouter(svc ProductService) http.Handler {
	h := NewProductHandler(svc)
	r := newTestRouter(&testSession)
	r.GET("/products", h.List)
	r.GET("/products/low-stock", h.LowStock)
	return r
}

func TestProductHandler_List(t *testing.T) {
	svc := new(MockProductService)
	items := []catalogapp.ProductResponse{
		{ID: uuid.New(), Code: "CAB-001", Name: "Cable 2.5mm", Stock: decimal.NewFromInt(10)},
		{ID: uuid.New(), Code: "TUB-002", Name: "Tubo PVC", Stock: decimal.NewFromInt(3)},
	}
	svc.On("List", mock.Anything, catalogapp.ProductListFilter{Search: "cab", Page: 2, PageSize: 2}).
		Return(shared.NewPaginated(items, 5, 2, 2), nil)

	w := do(productRouter(svc), http.MethodGet, "/products?search=cab&page=2&page_size=2", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decode(t, w)
	assert.True(t, env.Success)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(5), env.Meta.Total)
	assert.Equal(t, 2, env.Meta.Page)
	assert.Equal(t, 3, env.Meta.TotalPages)
	assert.Contains(t, string(env.Data), "TUB-002")
	svc.AssertExpectations(t)
}

func TestProductHandler_List_BadQuery(t *testing.T) {
	svc := new(MockProductService)
	w := do(productRouter(svc), http.MethodGet, "/products?page=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "List")
}

func TestProductHandler_LowStock(t *testing.T) {
	svc := new(MockProductService)
	svc.On("LowStock", mock.Anything).Return([]catalogapp.ProductResponse{
		{Code: "TUB-002", Stock: decimal.NewFromInt(1), MinStock: decimal.NewFromInt(5), LowStock: true},
	}, nil).Once()
	svc.On("LowStock", mock.Anything).Return(nil, errors.New("db down")).Once()

	r := productRouter(svc)

	w := do(r, http.MethodGet, "/products/low-stock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"low_stock":true`)

	w = do(r, http.MethodGet, "/products/low-stock", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
