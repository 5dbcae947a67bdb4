package invoicing

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/Alex240101/oxapampa/internal/domain/shared/valueobject"
)

const (
	operationGenerate = "generar_comprobante"
	currencySoles     = 1
	igvTaxable        = 1 // gravado - operación onerosa
	saleInternal      = 1
)

// Payload is the document as posted to the provider. Amounts are JSON numbers.
type Payload struct {
	Operation              string        `json:"operacion"`
	DocumentType           int           `json:"tipo_de_comprobante"`
	Series                 string        `json:"serie"`
	Number                 int           `json:"numero"`
	SunatTransaction       int           `json:"sunat_transaction"`
	CustomerDocumentType   string        `json:"cliente_tipo_de_documento"`
	CustomerDocumentNumber string        `json:"cliente_numero_de_documento"`
	CustomerName           string        `json:"cliente_denominacion"`
	CustomerAddress        string        `json:"cliente_direccion"`
	CustomerEmail          string        `json:"cliente_email"`
	IssueDate              string        `json:"fecha_de_emision"`
	Currency               int           `json:"moneda"`
	TaxPercent             json.Number   `json:"porcentaje_de_igv"`
	TotalTaxable           json.Number   `json:"total_gravada"`
	TotalUnaffected        json.Number   `json:"total_inafecta"`
	TotalExempt            json.Number   `json:"total_exonerada"`
	TotalTax               json.Number   `json:"total_igv"`
	TotalFree              json.Number   `json:"total_gratuita"`
	TotalOtherCharges      json.Number   `json:"total_otros_cargos"`
	Total                  json.Number   `json:"total"`
	SendToSunat            bool          `json:"enviar_automaticamente_a_la_sunat"`
	SendToCustomer         bool          `json:"enviar_automaticamente_al_cliente"`
	ModifiedDocumentType   int           `json:"documento_que_se_modifica_tipo,omitempty"`
	ModifiedDocumentSeries string        `json:"documento_que_se_modifica_serie,omitempty"`
	ModifiedDocumentNumber int           `json:"documento_que_se_modifica_numero,omitempty"`
	CreditNoteType         string        `json:"tipo_de_nota_de_credito,omitempty"`
	Observations           string        `json:"observaciones,omitempty"`
	Items                  []PayloadItem `json:"items"`
}

// PayloadItem is one line of Payload.
type PayloadItem struct {
	UnitCode       string      `json:"unidad_de_medida"`
	Code           string      `json:"codigo"`
	Description    string      `json:"descripcion"`
	Quantity       json.Number `json:"cantidad"`
	NetUnit        json.Number `json:"valor_unitario"`
	GrossUnit      json.Number `json:"precio_unitario"`
	Discount       json.Number `json:"descuento"`
	Subtotal       json.Number `json:"subtotal"`
	TaxType        int         `json:"tipo_de_igv"`
	Tax            json.Number `json:"igv"`
	Total          json.Number `json:"total"`
	AdvancePayment bool        `json:"anticipo_regularizacion"`
}

// BuildPayload converts a composed document into the provider wire format.
func BuildPayload(doc *ComposedDocument) *Payload {
	p := &Payload{
		Operation:              operationGenerate,
		DocumentType:           doc.Type.ProviderCode(),
		Series:                 doc.Series,
		Number:                 doc.Number,
		SunatTransaction:       saleInternal,
		CustomerDocumentType:   doc.Customer.DocumentCode,
		CustomerDocumentNumber: doc.Customer.DocumentNumber,
		CustomerName:           doc.Customer.Name,
		CustomerAddress:        doc.Customer.Address,
		CustomerEmail:          doc.Customer.Email,
		IssueDate:              doc.IssueDate.Format("2006-01-02"),
		Currency:               currencySoles,
		TaxPercent:             amount(doc.TaxRate),
		TotalTaxable:           amount(doc.TaxableBase),
		TotalUnaffected:        amount(decimal.Zero),
		TotalExempt:            amount(decimal.Zero),
		TotalTax:               amount(doc.TaxAmount),
		TotalFree:              amount(decimal.Zero),
		TotalOtherCharges:      amount(decimal.Zero),
		Total:                  amount(doc.Total),
		SendToSunat:            true,
		SendToCustomer:         doc.Customer.Email != "",
		Items:                  make([]PayloadItem, 0, len(doc.Lines)),
	}
	if doc.Modifies != nil {
		p.ModifiedDocumentType = doc.Modifies.Type.ProviderCode()
		p.ModifiedDocumentSeries = doc.Modifies.Series
		p.ModifiedDocumentNumber = doc.Modifies.Number
		p.CreditNoteType = doc.CreditNoteReason
		p.Observations = doc.CreditNoteSummary
	}
	for _, l := range doc.Lines {
		p.Items = append(p.Items, PayloadItem{
			UnitCode:    l.UnitCode,
			Code:        l.Code,
			Description: l.Description,
			Quantity:    json.Number(l.Quantity.String()),
			NetUnit:     amount(l.NetUnit),
			GrossUnit:   amount(l.GrossUnit),
			Discount:    amount(decimal.Zero),
			Subtotal:    amount(l.Base),
			TaxType:     igvTaxable,
			Tax:         amount(l.Tax),
			Total:       amount(l.Total),
		})
	}
	return p
}

func amount(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(valueobject.MoneyPlaces))
}

// ProviderResponse is the provider's answer to a generated document.
type ProviderResponse struct {
	Errors            string `json:"errors,omitempty"`
	Type              int    `json:"tipo_de_comprobante,omitempty"`
	Series            string `json:"serie,omitempty"`
	Number            int    `json:"numero,omitempty"`
	Link              string `json:"enlace"`
	PDFLink           string `json:"enlace_del_pdf"`
	XMLLink           string `json:"enlace_del_xml"`
	CDRLink           string `json:"enlace_del_cdr"`
	AcceptedBySunat   bool   `json:"aceptada_por_sunat"`
	SunatDescription  string `json:"sunat_description"`
	SunatNote         string `json:"sunat_note,omitempty"`
	SunatResponseCode string `json:"sunat_responsecode,omitempty"`
	QRCode            string `json:"cadena_para_codigo_qr"`
	Hash              string `json:"codigo_hash"`

	// Raw is the response body exactly as received.
	Raw json.RawMessage `json:"-"`
}
