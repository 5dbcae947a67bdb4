package invoicing

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alex240101/oxapampa/internal/domain/invoicing"
)

// GenerateDocumentInput asks for a sale document (invoice or receipt).
type GenerateDocumentInput struct {
	SaleID         uuid.UUID
	DocumentType   invoicing.DocumentType
	Series         string // empty selects the configured default
	// Customer replaces the customer captured with the sale when set.
	Customer       *invoicing.Customer
	IdempotencyKey string
}

// CreditNoteInput asks for a credit note against an issued document.
type CreditNoteInput struct {
	Series         string // modified document series
	Number         int    // modified document number
	Reason         string // catálogo 09 code, e.g. "01"
	Description    string
	NoteSeries     string // empty selects FC01 or BC01
	IdempotencyKey string
}

// DocumentResponse is the outcome of an issued document.
type DocumentResponse struct {
	ID               uuid.UUID       `json:"id"`
	SaleID           uuid.UUID       `json:"sale_id"`
	Type             string          `json:"type"`
	Series           string          `json:"series"`
	Number           string          `json:"number"`
	FullNumber       string          `json:"full_number"`
	Status           string          `json:"status"`
	TaxableBase      decimal.Decimal `json:"taxable_base"`
	TaxAmount        decimal.Decimal `json:"tax_amount"`
	Total            decimal.Decimal `json:"total"`
	AcceptedBySunat  bool            `json:"accepted_by_sunat"`
	SunatDescription string          `json:"sunat_description,omitempty"`
	Link             string          `json:"link,omitempty"`
	PDFLink          string          `json:"pdf_link,omitempty"`
	XMLLink          string          `json:"xml_link,omitempty"`
	CDRLink          string          `json:"cdr_link,omitempty"`
	QRCode           string          `json:"qr_code,omitempty"`
	ModifiesSeries   string          `json:"modifies_series,omitempty"`
	ModifiesNumber   string          `json:"modifies_number,omitempty"`
	ProviderResponse json.RawMessage `json:"provider_response,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ToDocumentResponse converts a stored document.
func ToDocumentResponse(d *invoicing.FiscalDocument) DocumentResponse {
	resp := DocumentResponse{
		ID:               d.ID,
		SaleID:           d.SaleID,
		Type:             string(d.Type),
		Series:           d.Series,
		Number:           d.FormattedNumber(),
		FullNumber:       d.Series + "-" + d.FormattedNumber(),
		Status:           string(d.Status),
		TaxableBase:      d.TaxableBase,
		TaxAmount:        d.TaxAmount,
		Total:            d.Total,
		AcceptedBySunat:  d.AcceptedSunat,
		SunatDescription: d.SunatMessage,
		Link:             d.Links.Page,
		PDFLink:          d.Links.PDF,
		XMLLink:          d.Links.XML,
		CDRLink:          d.Links.CDR,
		QRCode:           d.Links.QRCode,
		ProviderResponse: d.RawResponse,
		CreatedAt:        d.CreatedAt,
	}
	if d.ModifiesNumber > 0 {
		resp.ModifiesSeries = d.ModifiesSeries
		resp.ModifiesNumber = invoicing.FormatNumber(d.ModifiesNumber)
	}
	return resp
}

// ToDocumentResponses converts a slice of stored documents.
func ToDocumentResponses(docs []invoicing.FiscalDocument) []DocumentResponse {
	out := make([]DocumentResponse, len(docs))
	for i := range docs {
		out[i] = ToDocumentResponse(&docs[i])
	}
	return out
}
