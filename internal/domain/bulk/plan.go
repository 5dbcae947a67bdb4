package bulk

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImportRow is one spreadsheet row as read, before any coercion.
type ImportRow struct {
	Store       string
	Code        string
	Description string
	Stock       string
	MinStock    string

	// Line is the spreadsheet row the values came from. Zero means the row
	// number is derived from its position.
	Line int
}

// ExistingProduct is the minimal view of a stored product needed for matching.
type ExistingProduct struct {
	Code string
	ID   uuid.UUID
}

// ProductFields are the normalized values an import writes.
type ProductFields struct {
	Store    string
	Code     string
	Name     string
	Stock    decimal.Decimal
	MinStock decimal.Decimal
}

// Action says whether a plan entry creates or updates a product.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// PlanEntry is a single write derived from a valid row.
type PlanEntry struct {
	Row       int // spreadsheet row number
	Action    Action
	ProductID uuid.UUID // set for updates
	Fields    ProductFields
}

// RowError reports a row that cannot be imported.
type RowError struct {
	Row    int    `json:"row"`
	Column string `json:"column,omitempty"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Reason)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// ReconciliationPlan is the ordered outcome of Reconcile.
type ReconciliationPlan struct {
	Entries []PlanEntry
	Errors  []RowError
}

// HasErrors reports whether any row was rejected.
func (p *ReconciliationPlan) HasErrors() bool {
	return len(p.Errors) > 0
}

// Counts returns how many entries create and update products.
func (p *ReconciliationPlan) Counts() (creates, updates int) {
	for _, e := range p.Entries {
		if e.Action == ActionUpdate {
			updates++
		} else {
			creates++
		}
	}
	return creates, updates
}

// ExportRow is one product as written to an export spreadsheet. Its columns
// mirror ImportRow so an export can be imported back unchanged.
type ExportRow struct {
	Store       string
	Code        string
	Description string
	Stock       decimal.Decimal
	MinStock    decimal.Decimal
}
