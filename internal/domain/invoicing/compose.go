package invoicing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Alex240101/oxapampa/internal/domain/shared"
	"github.com/Alex240101/oxapampa/internal/domain/shared/valueobject"
)

// DefaultTaxRate is the IGV rate applied to every taxable line.
var DefaultTaxRate = decimal.RequireFromString("0.18")

var hundred = decimal.NewFromInt(100)

// Composer derives fiscal documents from sale lines. It holds no mutable state
// and is safe for concurrent use.
type Composer struct {
	taxRate decimal.Decimal
	now     func() time.Time
}

// ComposerOption configures a Composer.
type ComposerOption func(*Composer)

// WithTaxRate overrides the tax rate, expressed as a fraction (0.18).
func WithTaxRate(rate decimal.Decimal) ComposerOption {
	return func(c *Composer) {
		c.taxRate = rate
	}
}

// WithClock sets the source of the issue date.
func WithClock(now func() time.Time) ComposerOption {
	return func(c *Composer) {
		c.now = now
	}
}

// NewComposer creates a Composer using the default IGV rate and wall clock.
func NewComposer(opts ...ComposerOption) *Composer {
	c := &Composer{
		taxRate: DefaultTaxRate,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TaxRate returns the fractional tax rate in use.
func (c *Composer) TaxRate() decimal.Decimal {
	return c.taxRate
}

// Compose builds a sale document (invoice or receipt). existingMax is the
// highest number already issued in series, 0 when the series is empty.
// Reserving the returned number is left to the caller.
func (c *Composer) Compose(lines []SaleLine, docType DocumentType, series string, customer Customer, existingMax int) (*ComposedDocument, error) {
	if docType != DocumentTypeInvoice && docType != DocumentTypeReceipt {
		return nil, shared.NewValidationError("unsupported document type %q", docType)
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("sale has no lines")
	}
	resolved, err := resolveCustomer(customer)
	if err != nil {
		return nil, err
	}
	if docType == DocumentTypeInvoice && resolved.DocumentCode != DocCodeRUC {
		return nil, shared.NewValidationError("an invoice requires a customer with RUC, got %q", customer.DocumentType)
	}
	if strings.TrimSpace(series) == "" {
		series = DefaultSeries(docType)
	}

	composed := make([]ComposedLine, 0, len(lines))
	for i, line := range lines {
		cl, err := c.ComposeLine(line)
		if err != nil {
			return nil, shared.NewValidationError("line %d: %s", i+1, err.Error())
		}
		composed = append(composed, cl)
	}

	number := NextNumber(existingMax)
	doc := &ComposedDocument{
		Type:            docType,
		Series:          strings.ToUpper(strings.TrimSpace(series)),
		Number:          number,
		FormattedNumber: FormatNumber(number),
		Customer:        resolved,
		IssueDate:       c.now(),
		Currency:        valueobject.PEN,
		TaxRate:         valueobject.Round2(c.taxRate.Mul(hundred)),
		Lines:           composed,
	}
	doc.TaxableBase, doc.TaxAmount, doc.Total = Totals(composed)
	return doc, nil
}

// ComposeLine applies the per-line rounding chain:
// net = round(P/(1+r)), base = round(net*q), tax = round(base*r), total = round(base+tax).
func (c *Composer) ComposeLine(line SaleLine) (ComposedLine, error) {
	if line.Quantity.IsNegative() {
		return ComposedLine{}, shared.NewValidationError("quantity cannot be negative")
	}
	if line.GrossUnitPrice.IsNegative() {
		return ComposedLine{}, shared.NewValidationError("price cannot be negative")
	}

	net := valueobject.Round2(line.GrossUnitPrice.Div(decimal.NewFromInt(1).Add(c.taxRate)))
	base := valueobject.Round2(net.Mul(line.Quantity))
	tax := valueobject.Round2(base.Mul(c.taxRate))

	return ComposedLine{
		UnitCode:    UnitCode(line.UnitLabel),
		Code:        lineCode(line),
		Description: line.Name,
		Quantity:    line.Quantity,
		NetUnit:     net,
		GrossUnit:   valueobject.Round2(line.GrossUnitPrice),
		Base:        base,
		Tax:         tax,
		Total:       valueobject.Round2(base.Add(tax)),
	}, nil
}

// Totals sums per-line bases and taxes; the total is derived from the rounded sums.
func Totals(lines []ComposedLine) (base, tax, total decimal.Decimal) {
	base, tax = decimal.Zero, decimal.Zero
	for _, l := range lines {
		base = base.Add(l.Base)
		tax = tax.Add(l.Tax)
	}
	base = valueobject.Round2(base)
	tax = valueobject.Round2(tax)
	return base, tax, valueobject.Round2(base.Add(tax))
}

// Compose uses a default Composer.
func Compose(lines []SaleLine, docType DocumentType, series string, customer Customer, existingMax int) (*ComposedDocument, error) {
	return NewComposer().Compose(lines, docType, series, customer, existingMax)
}

func resolveCustomer(c Customer) (ResolvedCustomer, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.DocumentNumber = strings.TrimSpace(c.DocumentNumber)
	c.DocumentType = strings.TrimSpace(c.DocumentType)
	c.Address = strings.TrimSpace(c.Address)
	c.Email = strings.TrimSpace(c.Email)

	var missing []string
	if c.Name == "" {
		missing = append(missing, "name")
	}
	if c.DocumentNumber == "" {
		missing = append(missing, "document number")
	}
	if c.DocumentType == "" {
		missing = append(missing, "document type")
	}
	if len(missing) > 0 {
		return ResolvedCustomer{}, shared.NewValidationError("customer is missing %s", strings.Join(missing, ", "))
	}
	return ResolvedCustomer{Customer: c, DocumentCode: DocumentCode(c.DocumentType)}, nil
}

// lineCode falls back to the first ten characters of the product id when the
// product has no code of its own.
func lineCode(line SaleLine) string {
	if code := strings.TrimSpace(line.Code); code != "" {
		return code
	}
	id := line.ProductID.String()
	if len(id) > 10 {
		id = id[:10]
	}
	return id
}
