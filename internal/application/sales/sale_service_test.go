package sales

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Alex240101/oxapampa/internal/domain/catalog"
	"github.com/Alex240101/oxapampa/internal/domain/invoicing"
	"github.com/Alex240101/oxapampa/internal/domain/sales"
	"github.com/Alex240101/oxapampa/internal/domain/session"
	"github.com/Alex240101/oxapampa/internal/domain/shared"
	"github.com/Alex240101/oxapampa/internal/domain/shared/valueobject"
)

// MockSaleRepository is a mock implementation of sales.SaleRepository
type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Sale), args.Error(1)
}

func (m *MockSaleRepository) Register(ctx context.Context, sale *sales.Sale) error {
	return m.Called(ctx, sale).Error(0)
}

func (m *MockSaleRepository) AttachDocument(ctx context.Context, saleID uuid.UUID, doc sales.Document) error {
	return m.Called(ctx, saleID, doc).Error(0)
}

// stubProducts serves FindByIDs; every other method is unused here.
type stubProducts struct {
	catalog.ProductRepository
	products []catalog.Product
}

func (s *stubProducts) FindByIDs(_ context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, id := range ids {
		for _, p := range s.products {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

var seller = session.Session{UserID: uuid.New(), Username: "caja1", Role: session.RoleSeller}

func stockedProduct(t *testing.T, code string, price string, stock int64) catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(code, "Producto "+code, "")
	require.NoError(t, err)
	require.NoError(t, p.SetPrices(valueobject.NewMoneyPEN(decimal.Zero), valueobject.NewMoneyPEN(decimal.RequireFromString(price))))
	p.Stock = decimal.NewFromInt(stock)
	return *p
}

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func TestRegister_UsesCatalogPrices(t *testing.T) {
	cable := stockedProduct(t, "CAB-1", "10.00", 20)
	repo := new(MockSaleRepository)
	repo.On("Register", mock.Anything, mock.AnythingOfType("*sales.Sale")).Return(nil)
	svc := NewSaleService(repo, &stubProducts{products: []catalog.Product{cable}}, nil)

	resp, err := svc.Register(context.Background(), seller, RegisterSaleRequest{
		DocumentType: invoicing.DocumentTypeReceipt,
		Customer:     invoicing.Customer{DocumentType: "DNI", DocumentNumber: "12345678", Name: "Ana"},
		Items:        []RegisterSaleItem{{ProductID: cable.ID, Quantity: qty(2)}},
	})
	require.NoError(t, err)

	assert.Equal(t, "20", resp.Total.String())
	assert.Equal(t, "caja1", resp.SoldBy)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "CAB-1", resp.Items[0].ProductCode)
	repo.AssertExpectations(t)
}

func TestRegister_PriceOverride(t *testing.T) {
	foco := stockedProduct(t, "FOC-1", "8.50", 5)
	repo := new(MockSaleRepository)
	repo.On("Register", mock.Anything, mock.Anything).Return(nil)
	svc := NewSaleService(repo, &stubProducts{products: []catalog.Product{foco}}, nil)

	price := decimal.RequireFromString("7.999")
	resp, err := svc.Register(context.Background(), seller, RegisterSaleRequest{
		Items: []RegisterSaleItem{{ProductID: foco.ID, Quantity: qty(3), UnitPrice: &price}},
	})
	require.NoError(t, err)
	assert.Equal(t, "24", resp.Total.String())
}

func TestRegister_Validation(t *testing.T) {
	cable := stockedProduct(t, "CAB-1", "10.00", 3)
	inactive := stockedProduct(t, "OLD-1", "1.00", 10)
	inactive.Deactivate()
	products := &stubProducts{products: []catalog.Product{cable, inactive}}

	ruc := invoicing.Customer{DocumentType: "RUC", DocumentNumber: "20123456789", Name: "Ferreteria SAC"}

	tests := []struct {
		name string
		req  RegisterSaleRequest
		code string
	}{
		{
			name: "no items",
			req:  RegisterSaleRequest{},
			code: shared.CodeValidation,
		},
		{
			name: "unknown product",
			req:  RegisterSaleRequest{Items: []RegisterSaleItem{{ProductID: uuid.New(), Quantity: qty(1)}}},
			code: shared.CodeValidation,
		},
		{
			name: "inactive product",
			req:  RegisterSaleRequest{Items: []RegisterSaleItem{{ProductID: inactive.ID, Quantity: qty(1)}}},
			code: shared.CodeValidation,
		},
		{
			name: "repeated lines exceed stock",
			req: RegisterSaleRequest{Items: []RegisterSaleItem{
				{ProductID: cable.ID, Quantity: qty(2)},
				{ProductID: cable.ID, Quantity: qty(2)},
			}},
			code: shared.CodeInsufficientStock,
		},
		{
			name: "zero quantity",
			req:  RegisterSaleRequest{Items: []RegisterSaleItem{{ProductID: cable.ID, Quantity: qty(0)}}},
			code: shared.CodeValidation,
		},
		{
			name: "invoice without address",
			req: RegisterSaleRequest{
				DocumentType: invoicing.DocumentTypeInvoice,
				Customer:     ruc,
				Items:        []RegisterSaleItem{{ProductID: cable.ID, Quantity: qty(1)}},
			},
			code: shared.CodeValidation,
		},
		{
			name: "invoice for a DNI customer",
			req: RegisterSaleRequest{
				DocumentType: invoicing.DocumentTypeInvoice,
				Customer:     invoicing.Customer{DocumentType: "DNI", DocumentNumber: "12345678", Address: "Jr. Lima 123"},
				Items:        []RegisterSaleItem{{ProductID: cable.ID, Quantity: qty(1)}},
			},
			code: shared.CodeValidation,
		},
		{
			name: "credit note is not a sale document",
			req: RegisterSaleRequest{
				DocumentType: invoicing.DocumentTypeCreditNote,
				Items:        []RegisterSaleItem{{ProductID: cable.ID, Quantity: qty(1)}},
			},
			code: shared.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockSaleRepository)
			svc := NewSaleService(repo, products, nil)

			_, err := svc.Register(context.Background(), seller, tt.req)
			require.Error(t, err)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.code, de.Code)
			repo.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
		})
	}
}

func TestRegister_InvoiceWithRUCAndAddress(t *testing.T) {
	cable := stockedProduct(t, "CAB-1", "10.00", 3)
	repo := new(MockSaleRepository)
	repo.On("Register", mock.Anything, mock.Anything).Return(nil)
	svc := NewSaleService(repo, &stubProducts{products: []catalog.Product{cable}}, nil)

	_, err := svc.Register(context.Background(), seller, RegisterSaleRequest{
		DocumentType: invoicing.DocumentTypeInvoice,
		Customer:     invoicing.Customer{DocumentType: "RUC", DocumentNumber: "20123456789", Name: "Ferreteria SAC", Address: "Av. San Martin 456"},
		Items:        []RegisterSaleItem{{ProductID: cable.ID, Quantity: qty(1)}},
	})
	assert.NoError(t, err)
}

func TestRegister_WalkInReceiptGetsDefaultIdentification(t *testing.T) {
	cable := stockedProduct(t, "CAB-1", "10.00", 3)
	repo := new(MockSaleRepository)
	repo.On("Register", mock.Anything, mock.MatchedBy(func(s *sales.Sale) bool {
		return s.Customer == invoicing.Customer{
			Name:           "Juan",
			DocumentType:   invoicing.WalkInDocumentType,
			DocumentNumber: invoicing.WalkInDocumentNumber,
			Address:        invoicing.WalkInAddress,
		}
	})).Return(nil)
	svc := NewSaleService(repo, &stubProducts{products: []catalog.Product{cable}}, nil)

	_, err := svc.Register(context.Background(), seller, RegisterSaleRequest{
		DocumentType: invoicing.DocumentTypeReceipt,
		Customer:     invoicing.Customer{Name: "Juan"},
		Items:        []RegisterSaleItem{{ProductID: cable.ID, Quantity: qty(1)}},
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRegister_ReceiptWithoutNameIsRejected(t *testing.T) {
	cable := stockedProduct(t, "CAB-1", "10.00", 3)
	repo := new(MockSaleRepository)
	svc := NewSaleService(repo, &stubProducts{products: []catalog.Product{cable}}, nil)

	_, err := svc.Register(context.Background(), seller, RegisterSaleRequest{
		DocumentType: invoicing.DocumentTypeReceipt,
		Items:        []RegisterSaleItem{{ProductID: cable.ID, Quantity: qty(1)}},
	})
	assert.ErrorIs(t, err, shared.ErrValidation)
	repo.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegister_StockRaceSurfacesFromRepository(t *testing.T) {
	cable := stockedProduct(t, "CAB-1", "10.00", 3)
	repo := new(MockSaleRepository)
	repo.On("Register", mock.Anything, mock.Anything).Return(shared.ErrInsufficientStock)
	svc := NewSaleService(repo, &stubProducts{products: []catalog.Product{cable}}, nil)

	_, err := svc.Register(context.Background(), seller, RegisterSaleRequest{
		Items: []RegisterSaleItem{{ProductID: cable.ID, Quantity: qty(3)}},
	})
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
}

func TestGet(t *testing.T) {
	sale := sales.NewSale(invoicing.Customer{Name: "Ana"}, "caja1")
	require.NoError(t, sale.AddItem(uuid.New(), "A", "Alicate", "Unidad", qty(1), valueobject.NewMoneyPEN(decimal.NewFromInt(15))))
	require.NoError(t, sale.AttachDocument(sales.Document{Type: invoicing.DocumentTypeReceipt, Series: "B001", Number: "00000007"}))

	repo := new(MockSaleRepository)
	repo.On("FindByID", mock.Anything, sale.ID).Return(sale, nil)
	repo.On("FindByID", mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)
	svc := NewSaleService(repo, &stubProducts{}, nil)

	resp, err := svc.Get(context.Background(), sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "B001-00000007", resp.DocumentNumber)
	assert.Equal(t, "receipt", resp.DocumentType)

	_, err = svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
