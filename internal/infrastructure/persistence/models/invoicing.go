package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alex240101/oxapampa/internal/domain/invoicing"
)

// FiscalDocumentModel is the persistence model for FiscalDocument.
// The (series, number) unique index is what makes numbering race-safe.
type FiscalDocumentModel struct {
	BaseModel
	SaleID            uuid.UUID                `gorm:"type:uuid;not null;index"`
	Type              invoicing.DocumentType   `gorm:"type:varchar(20);not null"`
	Series            string                   `gorm:"type:varchar(4);not null;uniqueIndex:idx_fiscal_documents_series_number,priority:1"`
	Number            int                      `gorm:"not null;uniqueIndex:idx_fiscal_documents_series_number,priority:2"`
	CustomerDocType   string                   `gorm:"type:varchar(20);not null;default:''"`
	CustomerDocNumber string                   `gorm:"type:varchar(20);not null;default:''"`
	CustomerName      string                   `gorm:"type:varchar(255);not null;default:''"`
	CustomerAddress   string                   `gorm:"type:varchar(255);not null;default:''"`
	CustomerEmail     string                   `gorm:"type:varchar(255);not null;default:''"`
	TaxableBase       decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	TaxAmount         decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	Total             decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	Status            invoicing.DocumentStatus `gorm:"type:varchar(20);not null;index"`
	ModifiesSeries    string                   `gorm:"type:varchar(4);not null;default:''"`
	ModifiesNumber    int                      `gorm:"not null;default:0"`
	Reason            string                   `gorm:"type:varchar(2);not null;default:''"`
	Link              string                   `gorm:"type:text"`
	PDFLink           string                   `gorm:"column:pdf_link;type:text"`
	XMLLink           string                   `gorm:"column:xml_link;type:text"`
	CDRLink           string                   `gorm:"column:cdr_link;type:text"`
	QRCode            string                   `gorm:"column:qr_code;type:text"`
	Hash              string                   `gorm:"type:varchar(100)"`
	AcceptedSunat     bool                     `gorm:"not null;default:false"`
	SunatMessage      string                   `gorm:"type:text"`
	RawResponse       string                   `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (FiscalDocumentModel) TableName() string {
	return "fiscal_documents"
}

// ToDomain converts the persistence model to a domain FiscalDocument.
func (m *FiscalDocumentModel) ToDomain() *invoicing.FiscalDocument {
	d := &invoicing.FiscalDocument{
		BaseEntity: m.BaseModel.ToDomain(),
		SaleID:     m.SaleID,
		Type:       m.Type,
		Series:     m.Series,
		Number:     m.Number,
		Customer: invoicing.Customer{
			DocumentType:   m.CustomerDocType,
			DocumentNumber: m.CustomerDocNumber,
			Name:           m.CustomerName,
			Address:        m.CustomerAddress,
			Email:          m.CustomerEmail,
		},
		TaxableBase:    m.TaxableBase,
		TaxAmount:      m.TaxAmount,
		Total:          m.Total,
		Status:         m.Status,
		ModifiesSeries: m.ModifiesSeries,
		ModifiesNumber: m.ModifiesNumber,
		Reason:         m.Reason,
		Links: invoicing.Links{
			Page:   m.Link,
			PDF:    m.PDFLink,
			XML:    m.XMLLink,
			CDR:    m.CDRLink,
			QRCode: m.QRCode,
			Hash:   m.Hash,
		},
		AcceptedSunat: m.AcceptedSunat,
		SunatMessage:  m.SunatMessage,
	}
	if m.RawResponse != "" {
		d.RawResponse = json.RawMessage(m.RawResponse)
	}
	return d
}

// FromDomain populates the persistence model from a domain FiscalDocument.
func (m *FiscalDocumentModel) FromDomain(d *invoicing.FiscalDocument) {
	m.FromDomainBaseEntity(d.BaseEntity)
	m.SaleID = d.SaleID
	m.Type = d.Type
	m.Series = d.Series
	m.Number = d.Number
	m.CustomerDocType = d.Customer.DocumentType
	m.CustomerDocNumber = d.Customer.DocumentNumber
	m.CustomerName = d.Customer.Name
	m.CustomerAddress = d.Customer.Address
	m.CustomerEmail = d.Customer.Email
	m.TaxableBase = d.TaxableBase
	m.TaxAmount = d.TaxAmount
	m.Total = d.Total
	m.Status = d.Status
	m.ModifiesSeries = d.ModifiesSeries
	m.ModifiesNumber = d.ModifiesNumber
	m.Reason = d.Reason
	m.Link = d.Links.Page
	m.PDFLink = d.Links.PDF
	m.XMLLink = d.Links.XML
	m.CDRLink = d.Links.CDR
	m.QRCode = d.Links.QRCode
	m.Hash = d.Links.Hash
	m.AcceptedSunat = d.AcceptedSunat
	m.SunatMessage = d.SunatMessage
	m.RawResponse = string(d.RawResponse)
}

// OutcomeColumns returns the columns written when the provider answers.
func (m *FiscalDocumentModel) OutcomeColumns(now time.Time) map[string]any {
	return map[string]any{
		"status":         m.Status,
		"link":           m.Link,
		"pdf_link":       m.PDFLink,
		"xml_link":       m.XMLLink,
		"cdr_link":       m.CDRLink,
		"qr_code":        m.QRCode,
		"hash":           m.Hash,
		"accepted_sunat": m.AcceptedSunat,
		"sunat_message":  m.SunatMessage,
		"raw_response":   m.RawResponse,
		"updated_at":     now,
	}
}

// FiscalDocumentModelFromDomain creates a new persistence model from a domain FiscalDocument.
func FiscalDocumentModelFromDomain(d *invoicing.FiscalDocument) *FiscalDocumentModel {
	m := &FiscalDocumentModel{}
	m.FromDomain(d)
	return m
}
