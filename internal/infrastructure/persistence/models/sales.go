package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alex240101/oxapampa/internal/domain/invoicing"
	"github.com/Alex240101/oxapampa/internal/domain/sales"
	"github.com/Alex240101/oxapampa/internal/domain/shared"
)

// SaleModel is the persistence model for the Sale aggregate root.
// The issued document is stored inline; empty DocNumber means none yet.
type SaleModel struct {
	BaseModel
	CustomerDocType   string           `gorm:"type:varchar(20);not null;default:''"`
	CustomerDocNumber string           `gorm:"type:varchar(20);not null;default:''"`
	CustomerName      string           `gorm:"type:varchar(255);not null;default:''"`
	CustomerAddress   string           `gorm:"type:varchar(255);not null;default:''"`
	CustomerEmail     string           `gorm:"type:varchar(255);not null;default:''"`
	Total             decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	Status            sales.SaleStatus `gorm:"type:varchar(20);not null;default:'completed'"`
	SoldAt            time.Time        `gorm:"not null;index"`
	SoldBy            string           `gorm:"type:varchar(100);not null;default:''"`
	DocType           string           `gorm:"type:varchar(20);not null;default:''"`
	DocSeries         string           `gorm:"type:varchar(4);not null;default:''"`
	DocNumber         string           `gorm:"type:varchar(8);not null;default:''"`
	DocLink           string           `gorm:"type:text"`
	DocPDFLink        string           `gorm:"column:doc_pdf_link;type:text"`
	DocXMLLink        string           `gorm:"column:doc_xml_link;type:text"`
	DocCDRLink        string           `gorm:"column:doc_cdr_link;type:text"`
	ProviderResponse  string           `gorm:"type:text"`
	Items             []SaleItemModel  `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// SaleItemModel is the persistence model for a sale line.
type SaleItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductCode string          `gorm:"type:varchar(100);not null"`
	ProductName string          `gorm:"type:varchar(255);not null"`
	Unit        string          `gorm:"type:varchar(30);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (SaleItemModel) TableName() string {
	return "sale_items"
}

// ToDomain converts the persistence model to a domain Sale.
func (m *SaleModel) ToDomain() *sales.Sale {
	s := &sales.Sale{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Customer: invoicing.Customer{
			DocumentType:   m.CustomerDocType,
			DocumentNumber: m.CustomerDocNumber,
			Name:           m.CustomerName,
			Address:        m.CustomerAddress,
			Email:          m.CustomerEmail,
		},
		Total:  m.Total,
		Status: m.Status,
		SoldAt: m.SoldAt,
		SoldBy: m.SoldBy,
	}
	for _, item := range m.Items {
		s.Items = append(s.Items, sales.SaleItem{
			ID:          item.ID,
			SaleID:      item.SaleID,
			ProductID:   item.ProductID,
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			Unit:        item.Unit,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		})
	}
	if m.DocNumber != "" {
		doc := &sales.Document{
			Type:    invoicing.DocumentType(m.DocType),
			Series:  m.DocSeries,
			Number:  m.DocNumber,
			Link:    m.DocLink,
			PDFLink: m.DocPDFLink,
			XMLLink: m.DocXMLLink,
			CDRLink: m.DocCDRLink,
		}
		if m.ProviderResponse != "" {
			doc.ProviderResponse = json.RawMessage(m.ProviderResponse)
		}
		s.Document = doc
	}
	return s
}

// FromDomain populates the persistence model from a domain Sale.
func (m *SaleModel) FromDomain(s *sales.Sale) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.CustomerDocType = s.Customer.DocumentType
	m.CustomerDocNumber = s.Customer.DocumentNumber
	m.CustomerName = s.Customer.Name
	m.CustomerAddress = s.Customer.Address
	m.CustomerEmail = s.Customer.Email
	m.Total = s.Total
	m.Status = s.Status
	m.SoldAt = s.SoldAt
	m.SoldBy = s.SoldBy
	if s.Document != nil {
		m.applyDocument(*s.Document)
	}
	m.Items = make([]SaleItemModel, 0, len(s.Items))
	for _, item := range s.Items {
		m.Items = append(m.Items, SaleItemModel{
			ID:          item.ID,
			SaleID:      s.ID,
			ProductID:   item.ProductID,
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			Unit:        item.Unit,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		})
	}
}

func (m *SaleModel) applyDocument(doc sales.Document) {
	m.DocType = string(doc.Type)
	m.DocSeries = doc.Series
	m.DocNumber = doc.Number
	m.DocLink = doc.Link
	m.DocPDFLink = doc.PDFLink
	m.DocXMLLink = doc.XMLLink
	m.DocCDRLink = doc.CDRLink
	m.ProviderResponse = string(doc.ProviderResponse)
}

// DocumentColumns returns the column updates that attach doc to a sale row.
func DocumentColumns(doc sales.Document, now time.Time) map[string]any {
	var m SaleModel
	m.applyDocument(doc)
	return map[string]any{
		"doc_type":          m.DocType,
		"doc_series":        m.DocSeries,
		"doc_number":        m.DocNumber,
		"doc_link":          m.DocLink,
		"doc_pdf_link":      m.DocPDFLink,
		"doc_xml_link":      m.DocXMLLink,
		"doc_cdr_link":      m.DocCDRLink,
		"provider_response": m.ProviderResponse,
		"updated_at":        now,
	}
}

// SaleModelFromDomain creates a new persistence model from a domain Sale.
func SaleModelFromDomain(s *sales.Sale) *SaleModel {
	m := &SaleModel{}
	m.FromDomain(s)
	return m
}
