package invoicing

import (
	"strings"

	"github.com/Alex240101/oxapampa/internal/domain/shared"
	"github.com/Alex240101/oxapampa/internal/domain/shared/valueobject"
)

// CreditNoteReasons lists the accepted tipo_de_nota_de_credito codes (catálogo 09).
var CreditNoteReasons = map[string]string{
	"01": "Anulación de la operación",
	"02": "Anulación por error en el RUC",
	"03": "Corrección por error en la descripción",
	"04": "Descuento global",
	"05": "Descuento por ítem",
	"06": "Devolución total",
	"07": "Devolución por ítem",
	"08": "Bonificación",
	"09": "Disminución en el valor",
	"13": "Ajustes de operaciones de exportación",
}

// DefaultCreditNoteSeries returns the credit note series for the modified document type.
func DefaultCreditNoteSeries(modified DocumentType) string {
	if modified == DocumentTypeInvoice {
		return "FC01"
	}
	return "BC01"
}

// CreditNoteRequest describes a credit note against an issued document.
type CreditNoteRequest struct {
	Lines    []SaleLine
	Customer Customer
	Modifies Reference
	Reason   string
	Summary  string
	Series   string
}

// ComposeCreditNote builds a credit note that mirrors the lines of the
// modified document.
func (c *Composer) ComposeCreditNote(req CreditNoteRequest, existingMax int) (*ComposedDocument, error) {
	reason := strings.TrimSpace(req.Reason)
	if _, ok := CreditNoteReasons[reason]; !ok {
		return nil, shared.NewValidationError("unknown credit note reason %q", req.Reason)
	}
	if req.Modifies.Type != DocumentTypeInvoice && req.Modifies.Type != DocumentTypeReceipt {
		return nil, shared.NewValidationError("credit notes can only modify invoices or receipts")
	}
	if req.Modifies.Series == "" || req.Modifies.Number <= 0 {
		return nil, shared.NewValidationError("modified document reference is incomplete")
	}
	if len(req.Lines) == 0 {
		return nil, shared.NewValidationError("credit note has no lines")
	}
	resolved, err := resolveCustomer(req.Customer)
	if err != nil {
		return nil, err
	}

	lines := make([]ComposedLine, 0, len(req.Lines))
	for i, l := range req.Lines {
		cl, err := c.ComposeLine(l)
		if err != nil {
			return nil, shared.NewValidationError("line %d: %s", i+1, err.Error())
		}
		lines = append(lines, cl)
	}

	series := strings.ToUpper(strings.TrimSpace(req.Series))
	if series == "" {
		series = DefaultCreditNoteSeries(req.Modifies.Type)
	}
	summary := strings.TrimSpace(req.Summary)
	if summary == "" {
		summary = CreditNoteReasons[reason]
	}

	ref := req.Modifies
	number := NextNumber(existingMax)
	doc := &ComposedDocument{
		Type:              DocumentTypeCreditNote,
		Series:            series,
		Number:            number,
		FormattedNumber:   FormatNumber(number),
		Customer:          resolved,
		IssueDate:         c.now(),
		Currency:          valueobject.PEN,
		TaxRate:           valueobject.Round2(c.taxRate.Mul(hundred)),
		Lines:             lines,
		Modifies:          &ref,
		CreditNoteReason:  reason,
		CreditNoteSummary: summary,
	}
	doc.TaxableBase, doc.TaxAmount, doc.Total = Totals(lines)
	return doc, nil
}
