package invoicing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alex240101/oxapampa/internal/domain/shared/valueobject"
)

// DocumentType is the kind of fiscal document issued through the provider.
type DocumentType string

const (
	DocumentTypeInvoice    DocumentType = "invoice"     // factura
	DocumentTypeReceipt    DocumentType = "receipt"     // boleta
	DocumentTypeCreditNote DocumentType = "credit_note" // nota de crédito
)

// ProviderCode returns the numeric tipo_de_comprobante expected by the provider.
func (t DocumentType) ProviderCode() int {
	switch t {
	case DocumentTypeInvoice:
		return 1
	case DocumentTypeReceipt:
		return 2
	case DocumentTypeCreditNote:
		return 3
	default:
		return 0
	}
}

// IsValid reports whether t is a known document type.
func (t DocumentType) IsValid() bool {
	return t.ProviderCode() != 0
}

// ParseDocumentType accepts both the English names and the Spanish labels
// used by the point of sale ("factura", "boleta", "nota_credito").
func ParseDocumentType(s string) (DocumentType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "invoice", "factura":
		return DocumentTypeInvoice, true
	case "receipt", "boleta":
		return DocumentTypeReceipt, true
	case "credit_note", "nota_credito", "nota_de_credito":
		return DocumentTypeCreditNote, true
	}
	return "", false
}

// DefaultSeries returns the series used when the caller does not pick one.
func DefaultSeries(t DocumentType) string {
	switch t {
	case DocumentTypeInvoice:
		return "F001"
	case DocumentTypeReceipt:
		return "B001"
	default:
		return ""
	}
}

// SaleLine is one line of a registered sale as seen by the composer.
type SaleLine struct {
	ProductID      uuid.UUID
	Code           string // provider item code (product code, or a short id fallback)
	Name           string
	UnitLabel      string // free-text unit, mapped to a UN/ECE code
	Quantity       decimal.Decimal
	GrossUnitPrice decimal.Decimal // tax inclusive
}

// Customer is the buyer as captured at the counter.
type Customer struct {
	DocumentType   string `json:"tipo_documento"`
	DocumentNumber string `json:"numero_documento"`
	Name           string `json:"nombre"`
	Address        string `json:"direccion"`
	Email          string `json:"email"`
}

// Identification a receipt is issued with when the counter only captured the
// buyer's name.
const (
	WalkInDocumentType   = "DNI"
	WalkInDocumentNumber = "00000000"
	WalkInAddress        = "Lima, Perú"
)

// WithReceiptDefaults fills a blank document type, document number and
// address with the walk-in values. The name is never defaulted.
func (c Customer) WithReceiptDefaults() Customer {
	if strings.TrimSpace(c.DocumentType) == "" {
		c.DocumentType = WalkInDocumentType
	}
	if strings.TrimSpace(c.DocumentNumber) == "" {
		c.DocumentNumber = WalkInDocumentNumber
	}
	if strings.TrimSpace(c.Address) == "" {
		c.Address = WalkInAddress
	}
	return c
}

// ResolvedCustomer carries the provider document code next to the captured data.
type ResolvedCustomer struct {
	Customer
	DocumentCode string
}

// ComposedLine holds the derived amounts of a single line, each rounded to cents.
type ComposedLine struct {
	UnitCode    string
	Code        string
	Description string
	Quantity    decimal.Decimal
	NetUnit     decimal.Decimal // valor unitario
	GrossUnit   decimal.Decimal // precio unitario
	Base        decimal.Decimal // subtotal
	Tax         decimal.Decimal // igv
	Total       decimal.Decimal
}

// Reference identifies the document a credit note modifies.
type Reference struct {
	Type   DocumentType
	Series string
	Number int
}

// ComposedDocument is the complete, provider-ready fiscal document.
type ComposedDocument struct {
	Type            DocumentType
	Series          string
	Number          int
	FormattedNumber string
	Customer        ResolvedCustomer
	IssueDate       time.Time
	Currency        valueobject.Currency
	TaxRate         decimal.Decimal // percent, e.g. 18.00
	Lines           []ComposedLine
	TaxableBase     decimal.Decimal
	TaxAmount       decimal.Decimal
	Total           decimal.Decimal

	// Set on credit notes only.
	Modifies          *Reference
	CreditNoteReason  string
	CreditNoteSummary string
}

// FullNumber renders the document identifier as printed, e.g. "B001-00000001".
func (d *ComposedDocument) FullNumber() string {
	return d.Series + "-" + d.FormattedNumber
}
