package sales

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alex240101/oxapampa/internal/domain/invoicing"
	"github.com/Alex240101/oxapampa/internal/domain/shared"
	"github.com/Alex240101/oxapampa/internal/domain/shared/valueobject"
)

// SaleStatus represents the status of a sale
type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusCancelled SaleStatus = "cancelled"
)

// SaleItem represents a line of a sale
type SaleItem struct {
	ID          uuid.UUID
	SaleID      uuid.UUID
	ProductID   uuid.UUID
	ProductCode string
	ProductName string
	Unit        string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal // tax inclusive
	Subtotal    decimal.Decimal
}

// Document is the fiscal document attached to a sale once issued.
type Document struct {
	Type             invoicing.DocumentType
	Series           string
	Number           string // zero padded
	Link             string
	PDFLink          string
	XMLLink          string
	CDRLink          string
	ProviderResponse json.RawMessage
}

// Sale is a completed counter sale.
type Sale struct {
	shared.BaseEntity
	Customer invoicing.Customer
	Items    []SaleItem
	Total    decimal.Decimal
	Status   SaleStatus
	SoldAt   time.Time
	SoldBy   string
	Document *Document
}

// NewSale creates an empty completed sale for customer.
func NewSale(customer invoicing.Customer, soldBy string) *Sale {
	base := shared.NewBaseEntity()
	return &Sale{
		BaseEntity: base,
		Customer:   customer,
		Total:      decimal.Zero,
		Status:     SaleStatusCompleted,
		SoldAt:     base.CreatedAt,
		SoldBy:     soldBy,
	}
}

// AddItem appends a line and recalculates the total.
func (s *Sale) AddItem(productID uuid.UUID, code, name, unit string, quantity decimal.Decimal, unitPrice valueobject.Money) error {
	if !quantity.IsPositive() {
		return shared.NewValidationError("quantity for %s must be positive", name)
	}
	if unitPrice.Amount().IsNegative() {
		return shared.NewValidationError("price for %s cannot be negative", name)
	}
	s.Items = append(s.Items, SaleItem{
		ID:          uuid.New(),
		SaleID:      s.ID,
		ProductID:   productID,
		ProductCode: code,
		ProductName: name,
		Unit:        unit,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount(),
		Subtotal:    valueobject.Round2(unitPrice.Amount().Mul(quantity)),
	})
	s.recalculateTotal()
	return nil
}

func (s *Sale) recalculateTotal() {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.Subtotal)
	}
	s.Total = valueobject.Round2(total)
	s.UpdatedAt = time.Now()
}

// Lines converts the items into composer input.
func (s *Sale) Lines() []invoicing.SaleLine {
	lines := make([]invoicing.SaleLine, 0, len(s.Items))
	for _, item := range s.Items {
		lines = append(lines, invoicing.SaleLine{
			ProductID:      item.ProductID,
			Code:           item.ProductCode,
			Name:           item.ProductName,
			UnitLabel:      item.Unit,
			Quantity:       item.Quantity,
			GrossUnitPrice: item.UnitPrice,
		})
	}
	return lines
}

// ValidateForDocument checks the requirements the counter enforces before a
// sale may carry the given document type.
func (s *Sale) ValidateForDocument(docType invoicing.DocumentType) error {
	if len(s.Items) == 0 {
		return shared.NewValidationError("sale has no items")
	}
	if strings.TrimSpace(s.Customer.Name) == "" {
		return shared.NewValidationError("a document requires the customer's name")
	}
	if docType == invoicing.DocumentTypeInvoice {
		if invoicing.DocumentCode(s.Customer.DocumentType) != invoicing.DocCodeRUC || s.Customer.DocumentNumber == "" {
			return shared.NewValidationError("an invoice requires the customer's RUC")
		}
		if s.Customer.Address == "" {
			return shared.NewValidationError("an invoice requires the customer's fiscal address")
		}
	}
	return nil
}

// HasDocument reports whether a fiscal document was already issued.
func (s *Sale) HasDocument() bool {
	return s.Document != nil && s.Document.Number != ""
}

// AttachDocument records an issued document on the sale.
func (s *Sale) AttachDocument(doc Document) error {
	if s.HasDocument() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("sale already has document %s-%s", s.Document.Series, s.Document.Number))
	}
	s.Document = &doc
	s.UpdatedAt = time.Now()
	return nil
}
