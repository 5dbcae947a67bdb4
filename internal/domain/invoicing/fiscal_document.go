package invoicing

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alex240101/oxapampa/internal/domain/shared"
)

// DocumentStatus tracks a reserved number through submission.
type DocumentStatus string

const (
	DocumentStatusReserved DocumentStatus = "reserved"
	DocumentStatusAccepted DocumentStatus = "accepted"
	DocumentStatusRejected DocumentStatus = "rejected"
)

// FiscalDocument is the persisted record of an issued (or attempted) document.
// Its (Series, Number) pair is unique and is never reused, even when the
// provider rejects the submission.
type FiscalDocument struct {
	shared.BaseEntity
	SaleID         uuid.UUID
	Type           DocumentType
	Series         string
	Number         int
	Customer       Customer
	TaxableBase    decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
	Status         DocumentStatus
	ModifiesSeries string
	ModifiesNumber int
	Reason         string
	Links          Links
	AcceptedSunat  bool
	SunatMessage   string
	RawResponse    json.RawMessage
}

// Links are the provider-hosted renditions of an accepted document.
type Links struct {
	Page   string
	PDF    string
	XML    string
	CDR    string
	QRCode string
	Hash   string
}

// NewFiscalDocument creates the reservation record for a composed document.
func NewFiscalDocument(saleID uuid.UUID, doc *ComposedDocument) *FiscalDocument {
	fd := &FiscalDocument{
		BaseEntity:  shared.NewBaseEntity(),
		SaleID:      saleID,
		Type:        doc.Type,
		Series:      doc.Series,
		Number:      doc.Number,
		Customer:    doc.Customer.Customer,
		TaxableBase: doc.TaxableBase,
		TaxAmount:   doc.TaxAmount,
		Total:       doc.Total,
		Status:      DocumentStatusReserved,
		Reason:      doc.CreditNoteReason,
	}
	if doc.Modifies != nil {
		fd.ModifiesSeries = doc.Modifies.Series
		fd.ModifiesNumber = doc.Modifies.Number
	}
	return fd
}

// FormattedNumber returns the zero-padded number.
func (d *FiscalDocument) FormattedNumber() string {
	return FormatNumber(d.Number)
}

// Accept records a successful provider response.
func (d *FiscalDocument) Accept(resp *ProviderResponse) {
	d.Status = DocumentStatusAccepted
	d.Links = Links{
		Page:   resp.Link,
		PDF:    resp.PDFLink,
		XML:    resp.XMLLink,
		CDR:    resp.CDRLink,
		QRCode: resp.QRCode,
		Hash:   resp.Hash,
	}
	d.AcceptedSunat = resp.AcceptedBySunat
	d.SunatMessage = resp.SunatDescription
	d.RawResponse = resp.Raw
	d.UpdatedAt = time.Now()
}

// Reject records a provider failure. The number stays consumed.
func (d *FiscalDocument) Reject(raw []byte, message string) {
	d.Status = DocumentStatusRejected
	d.SunatMessage = message
	if len(raw) > 0 && json.Valid(raw) {
		d.RawResponse = json.RawMessage(raw)
	} else if len(raw) > 0 {
		quoted, _ := json.Marshal(string(raw))
		d.RawResponse = quoted
	}
	d.UpdatedAt = time.Now()
}
