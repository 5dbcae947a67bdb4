// Package spreadsheet reads and writes the product workbook used for bulk
// import and export.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Alex240101/oxapampa/internal/domain/bulk"
)

// ProductsSheet is the sheet name used for exports.
const ProductsSheet = "Productos"

// Column headers, in export order.
const (
	HeaderStore       = "Tienda"
	HeaderCode        = "Codigo"
	HeaderDescription = "Descripcion"
	HeaderStock       = "Stock"
	HeaderMinStock    = "Limite Stock"
)

var (
	ErrEmptyWorkbook = errors.New("spreadsheet: workbook has no rows")
	ErrMissingHeader = errors.New("spreadsheet: required column missing")
)

type column struct {
	header string
	width  float64
}

var productColumns = []column{
	{HeaderStore, 15},
	{HeaderCode, 20},
	{HeaderDescription, 40},
	{HeaderStock, 12},
	{HeaderMinStock, 15},
}

// headerAliases maps a folded header to its canonical column.
var headerAliases = map[string]string{
	"TIENDA":       HeaderStore,
	"CODIGO":       HeaderCode,
	"DESCRIPCION":  HeaderDescription,
	"STOCK":        HeaderStock,
	"LIMITE STOCK": HeaderMinStock,
	"STOCK MINIMO": HeaderMinStock,
}

// ReadProductRows reads the first sheet of an xlsx workbook. The first row is
// the header; columns are matched by name ignoring case and accents. Blank
// rows are skipped and every row keeps its line number in the sheet.
func ReadProductRows(r io.Reader) ([]bulk.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: failed to read sheet %q: %w", sheets[0], err)
	}
	return importRows(rows, nil)
}

// importRows maps a header row and its data rows to import rows. lines holds
// the source line of each row; when nil a row's line is its index plus one.
func importRows(rows [][]string, lines []int) ([]bulk.ImportRow, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyWorkbook
	}
	index := mapHeader(rows[0])
	if _, ok := index[HeaderDescription]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingHeader, HeaderDescription)
	}

	out := make([]bulk.ImportRow, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		cells := rows[i]
		if isBlank(cells) {
			continue
		}
		cell := func(header string) string {
			pos, ok := index[header]
			if !ok || pos >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[pos])
		}
		out = append(out, bulk.ImportRow{
			Store:       cell(HeaderStore),
			Code:        cell(HeaderCode),
			Description: cell(HeaderDescription),
			Stock:       cell(HeaderStock),
			MinStock:    cell(HeaderMinStock),
			Line:        lineOf(lines, i),
		})
	}
	return out, nil
}

// WriteProducts writes rows to a single "Productos" sheet with the import
// column layout.
func WriteProducts(w io.Writer, rows []bulk.ExportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ProductsSheet); err != nil {
		return fmt.Errorf("spreadsheet: failed to name sheet: %w", err)
	}

	header := make([]any, len(productColumns))
	for i, col := range productColumns {
		header[i] = col.header
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(ProductsSheet, name, name, col.width); err != nil {
			return fmt.Errorf("spreadsheet: failed to set width: %w", err)
		}
	}
	if err := f.SetSheetRow(ProductsSheet, "A1", &header); err != nil {
		return fmt.Errorf("spreadsheet: failed to write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(ProductsSheet, "A1", "E1", bold); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{
			row.Store,
			row.Code,
			row.Description,
			row.Stock.InexactFloat64(),
			row.MinStock.InexactFloat64(),
		}
		if err := f.SetSheetRow(ProductsSheet, cell, &values); err != nil {
			return fmt.Errorf("spreadsheet: failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("spreadsheet: failed to write workbook: %w", err)
	}
	return nil
}

func lineOf(lines []int, i int) int {
	if i < len(lines) {
		return lines[i]
	}
	return i + 1
}

func mapHeader(cells []string) map[string]int {
	index := make(map[string]int, len(cells))
	for i, c := range cells {
		canonical, ok := headerAliases[foldHeader(c)]
		if !ok {
			continue
		}
		if _, seen := index[canonical]; !seen {
			index[canonical] = i
		}
	}
	return index
}

func foldHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToUpper(folded)), " ")
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
