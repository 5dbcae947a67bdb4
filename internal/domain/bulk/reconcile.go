package bulk

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	// DefaultStore is assigned to rows without a store.
	DefaultStore = "Principal"

	// headerOffset converts a zero-based data index into the row number a
	// user sees in the spreadsheet (1-based, after the header row).
	headerOffset = 2

	prefixLen = 3
	stampLen  = 6
)

// DefaultMinStock replaces a zero or missing minimum stock.
var DefaultMinStock = decimal.NewFromInt(5)

// Options controls the non-deterministic parts of reconciliation.
type Options struct {
	// Now supplies the batch timestamp used in synthesized codes. It is read
	// once per Reconcile call.
	Now func() time.Time
}

// Reconcile validates rows, fills in missing codes, deduplicates codes within
// the batch and classifies each valid row as a create or an update against
// existing. Output entries keep input order; rejected rows are reported in
// Errors and skipped.
func Reconcile(rows []ImportRow, existing []ExistingProduct, opts Options) *ReconciliationPlan {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	stamp := batchStamp(now())

	index := make(map[string]ExistingProduct, len(existing))
	for _, p := range existing {
		index[strings.TrimSpace(p.Code)] = p
	}

	plan := &ReconciliationPlan{
		Entries: make([]PlanEntry, 0, len(rows)),
	}
	used := make(map[string]struct{}, len(rows))

	for i, row := range rows {
		rowNumber := row.Line
		if rowNumber <= 0 {
			rowNumber = i + headerOffset
		}

		description := strings.TrimSpace(row.Description)
		if description == "" {
			plan.Errors = append(plan.Errors, RowError{
				Row:    rowNumber,
				Column: "Descripcion",
				Reason: `the "Descripcion" field is required`,
			})
			continue
		}

		code := strings.TrimSpace(row.Code)
		if code == "" {
			code = SynthesizeCode(description, stamp, i)
		}
		code = uniqueCode(code, used)
		used[code] = struct{}{}

		store := strings.TrimSpace(row.Store)
		if store == "" {
			store = DefaultStore
		}
		minStock := CoerceQuantity(row.MinStock)
		if minStock.IsZero() {
			minStock = DefaultMinStock
		}

		entry := PlanEntry{
			Row:    rowNumber,
			Action: ActionCreate,
			Fields: ProductFields{
				Store:    store,
				Code:     code,
				Name:     description,
				Stock:    CoerceQuantity(row.Stock),
				MinStock: minStock,
			},
		}
		if match, ok := index[code]; ok {
			entry.Action = ActionUpdate
			entry.ProductID = match.ID
		}
		plan.Entries = append(plan.Entries, entry)
	}

	return plan
}

// SynthesizeCode builds PFX-<stamp>-<index+1> for a row without a code.
func SynthesizeCode(description, stamp string, index int) string {
	return codePrefix(description) + "-" + stamp + "-" + strconv.Itoa(index+1)
}

// codePrefix takes the first three characters of the description, upper-cased,
// replacing anything outside A-Z with X.
func codePrefix(description string) string {
	runes := []rune(description)
	if len(runes) > prefixLen {
		runes = runes[:prefixLen]
	}
	var b strings.Builder
	for _, r := range runes {
		r = unicode.ToUpper(r)
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		} else {
			b.WriteByte('X')
		}
	}
	return b.String()
}

// batchStamp is the last six digits of the millisecond Unix timestamp.
func batchStamp(t time.Time) string {
	ms := strconv.FormatInt(t.UnixMilli(), 10)
	if len(ms) > stampLen {
		ms = ms[len(ms)-stampLen:]
	}
	return ms
}

func uniqueCode(code string, used map[string]struct{}) string {
	if _, taken := used[code]; !taken {
		return code
	}
	for suffix := 1; ; suffix++ {
		candidate := code + "-" + strconv.Itoa(suffix)
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}

// CoerceQuantity parses a spreadsheet cell leniently: thousands separators and
// whitespace are ignored, and anything unparseable or negative becomes zero.
func CoerceQuantity(raw string) decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}
