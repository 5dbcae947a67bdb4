// Package sales registers counter sales.
package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Alex240101/oxapampa/internal/domain/catalog"
	"github.com/Alex240101/oxapampa/internal/domain/invoicing"
	"github.com/Alex240101/oxapampa/internal/domain/sales"
	"github.com/Alex240101/oxapampa/internal/domain/session"
	"github.com/Alex240101/oxapampa/internal/domain/shared"
	"github.com/Alex240101/oxapampa/internal/domain/shared/valueobject"
	"github.com/Alex240101/oxapampa/internal/infrastructure/logger"
	"github.com/Alex240101/oxapampa/internal/infrastructure/telemetry"
)

// RegisterSaleItem is one requested line.
type RegisterSaleItem struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"` // nil sells at the catalog price
}

// RegisterSaleRequest is a sale as captured at the counter.
type RegisterSaleRequest struct {
	// DocumentType is the document the customer asked for. Invoices require
	// the customer's RUC and fiscal address up front.
	DocumentType invoicing.DocumentType `json:"document_type" binding:"omitempty,doctype"`
	Customer     invoicing.Customer     `json:"customer"`
	Items        []RegisterSaleItem     `json:"items" binding:"required,min=1,dive"`
}

// SaleItemResponse is a sale line in API responses.
type SaleItemResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// SaleResponse is a sale in API responses.
type SaleResponse struct {
	ID             uuid.UUID          `json:"id"`
	Customer       invoicing.Customer `json:"customer"`
	Items          []SaleItemResponse `json:"items"`
	Total          decimal.Decimal    `json:"total"`
	Status         string             `json:"status"`
	SoldAt         time.Time          `json:"sold_at"`
	SoldBy         string             `json:"sold_by"`
	DocumentType   string             `json:"document_type,omitempty"`
	DocumentNumber string             `json:"document_number,omitempty"`
}

// ToSaleResponse converts a domain Sale.
func ToSaleResponse(s *sales.Sale) SaleResponse {
	resp := SaleResponse{
		ID:       s.ID,
		Customer: s.Customer,
		Items:    make([]SaleItemResponse, len(s.Items)),
		Total:    s.Total,
		Status:   string(s.Status),
		SoldAt:   s.SoldAt,
		SoldBy:   s.SoldBy,
	}
	for i, item := range s.Items {
		resp.Items[i] = SaleItemResponse{
			ProductID:   item.ProductID,
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			Unit:        item.Unit,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		}
	}
	if s.HasDocument() {
		resp.DocumentType = string(s.Document.Type)
		resp.DocumentNumber = s.Document.Series + "-" + s.Document.Number
	}
	return resp
}

// SaleService handles sale registration
type SaleService struct {
	saleRepo    sales.SaleRepository
	productRepo catalog.ProductRepository
	logger      *zap.Logger
}

// NewSaleService creates a new SaleService
func NewSaleService(saleRepo sales.SaleRepository, productRepo catalog.ProductRepository, log *zap.Logger) *SaleService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SaleService{saleRepo: saleRepo, productRepo: productRepo, logger: log}
}

// Register validates the requested items against the catalog and stores the
// sale. Stock is decremented in the same transaction as the insert, so a
// concurrent sale that empties a product makes this one fail with
// shared.ErrInsufficientStock.
func (s *SaleService) Register(ctx context.Context, sess session.Session, req RegisterSaleRequest) (*SaleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "SaleService", "Register")
	defer span.End()

	sale, err := s.build(ctx, sess, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.saleRepo.Register(ctx, sale); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("register sale: %w", err)
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrSaleID, sale.ID.String())

	logger.For(ctx, s.logger).Info("Sale registered",
		zap.String("sale_id", sale.ID.String()),
		zap.Int("items", len(sale.Items)),
		zap.String("total", sale.Total.StringFixed(2)),
	)
	resp := ToSaleResponse(sale)
	return &resp, nil
}

func (s *SaleService) build(ctx context.Context, sess session.Session, req RegisterSaleRequest) (*sales.Sale, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewValidationError("a sale needs at least one item")
	}
	if req.DocumentType != "" && req.DocumentType != invoicing.DocumentTypeInvoice && req.DocumentType != invoicing.DocumentTypeReceipt {
		return nil, shared.NewValidationError("a sale is documented with an invoice or a receipt, not %q", req.DocumentType)
	}

	ids := make([]uuid.UUID, 0, len(req.Items))
	requested := make(map[uuid.UUID]decimal.Decimal, len(req.Items))
	for _, item := range req.Items {
		if _, seen := requested[item.ProductID]; !seen {
			ids = append(ids, item.ProductID)
		}
		requested[item.ProductID] = requested[item.ProductID].Add(item.Quantity)
	}

	found, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	products := make(map[uuid.UUID]*catalog.Product, len(found))
	for i := range found {
		products[found[i].ID] = &found[i]
	}

	for _, id := range ids {
		p, ok := products[id]
		if !ok {
			return nil, shared.NewValidationError("product %s does not exist", id)
		}
		if !p.Active {
			return nil, shared.NewValidationError("product %s is inactive", p.Code)
		}
		if p.Stock.LessThan(requested[id]) {
			return nil, shared.NewDomainError(shared.CodeInsufficientStock,
				fmt.Sprintf("Insufficient stock for %s: %s available, %s requested", p.Code, p.Stock.String(), requested[id].String()))
		}
	}

	customer := req.Customer
	if req.DocumentType == invoicing.DocumentTypeReceipt {
		customer = customer.WithReceiptDefaults()
	}
	sale := sales.NewSale(customer, sess.Actor())
	for _, item := range req.Items {
		p := products[item.ProductID]
		price := p.SellingPrice
		if item.UnitPrice != nil {
			price = *item.UnitPrice
		}
		if err := sale.AddItem(p.ID, p.Code, p.Name, p.Unit, item.Quantity, valueobject.NewMoneyPEN(price)); err != nil {
			return nil, err
		}
	}

	if req.DocumentType != "" {
		if err := sale.ValidateForDocument(req.DocumentType); err != nil {
			return nil, err
		}
	}
	return sale, nil
}

// Get returns a sale with its items.
func (s *SaleService) Get(ctx context.Context, id uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToSaleResponse(sale)
	return &resp, nil
}
