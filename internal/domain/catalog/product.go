package catalog

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alex240101/oxapampa/internal/domain/shared"
	"github.com/Alex240101/oxapampa/internal/domain/shared/valueobject"
)

const (
	// DefaultUnit is the unit given to products created without one.
	DefaultUnit = "Unidad"

	maxCodeLen = 100
	maxNameLen = 255
	maxUnitLen = 30
)

// Product represents an item sold by the store. Stock is tracked directly on
// the product; Store names the branch (tienda) that holds it.
type Product struct {
	shared.BaseEntity
	Code          string
	Name          string
	Description   string
	Store         string
	CategoryID    *uuid.UUID
	Unit          string          // free-text unit label, e.g. "Unidad", "Metro"
	PurchasePrice decimal.Decimal // cost
	SellingPrice  decimal.Decimal // tax inclusive
	Stock         decimal.Decimal
	MinStock      decimal.Decimal
	Active        bool
}

// NewProduct creates an active product with zero prices and stock.
func NewProduct(code, name, unit string) (*Product, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	unit = strings.TrimSpace(unit)
	if unit == "" {
		unit = DefaultUnit
	}
	if err := validateProductCode(code); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validateUnit(unit); err != nil {
		return nil, err
	}

	return &Product{
		BaseEntity:    shared.NewBaseEntity(),
		Code:          code,
		Name:          name,
		Unit:          unit,
		PurchasePrice: decimal.Zero,
		SellingPrice:  decimal.Zero,
		Stock:         decimal.Zero,
		MinStock:      decimal.Zero,
		Active:        true,
	}, nil
}

// ApplyImport overwrites the fields a spreadsheet import manages.
// Prices, unit and category are left alone.
func (p *Product) ApplyImport(name, store string, stock, minStock decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if err := validateProductName(name); err != nil {
		return err
	}
	if stock.IsNegative() || minStock.IsNegative() {
		return shared.NewDomainError("INVALID_STOCK", "Stock values cannot be negative")
	}
	p.Name = name
	p.Store = store
	p.Stock = stock
	p.MinStock = minStock
	p.UpdatedAt = time.Now()
	return nil
}

// SetCategory sets the product category
func (p *Product) SetCategory(categoryID *uuid.UUID) {
	p.CategoryID = categoryID
	p.UpdatedAt = time.Now()
}

// SetPrices sets both purchase and selling prices
func (p *Product) SetPrices(purchasePrice, sellingPrice valueobject.Money) error {
	if purchasePrice.Amount().IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Purchase price cannot be negative")
	}
	if sellingPrice.Amount().IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}
	p.PurchasePrice = purchasePrice.Amount()
	p.SellingPrice = sellingPrice.Amount()
	p.UpdatedAt = time.Now()
	return nil
}

// DecreaseStock removes qty units sold.
func (p *Product) DecreaseStock(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if p.Stock.LessThan(qty) {
		return shared.ErrInsufficientStock
	}
	p.Stock = p.Stock.Sub(qty)
	p.UpdatedAt = time.Now()
	return nil
}

// IsLowStock reports whether stock has reached the alert threshold.
func (p *Product) IsLowStock() bool {
	return p.Stock.LessThanOrEqual(p.MinStock)
}

// Deactivate hides the product from the point of sale.
func (p *Product) Deactivate() {
	p.Active = false
	p.UpdatedAt = time.Now()
}

// GetSellingPriceMoney returns the selling price as Money
func (p *Product) GetSellingPriceMoney() valueobject.Money {
	return valueobject.NewMoneyPEN(p.SellingPrice)
}

func validateProductCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Product code cannot be empty")
	}
	if utf8.RuneCountInString(code) > maxCodeLen {
		return shared.NewDomainError("INVALID_CODE", "Product code cannot exceed 100 characters")
	}
	return nil
}

func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 255 characters")
	}
	return nil
}

func validateUnit(unit string) error {
	if utf8.RuneCountInString(unit) > maxUnitLen {
		return shared.NewDomainError("INVALID_UNIT", "Unit cannot exceed 30 characters")
	}
	return nil
}
