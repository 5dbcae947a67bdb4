package spreadsheet

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Alex240101/oxapampa/internal/domain/bulk"
)

// workbook builds an xlsx in memory with rows written to the first sheet.
func workbook(t *testing.T, rows ...[]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := r
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestReadProductRows(t *testing.T) {
	buf := workbook(t,
		[]any{"DESCRIPCIÓN", "código", "Tienda", "Límite Stock", "stock"},
		[]any{"Cable 2.5mm", "CAB-001", "Centro", "3", "10"},
		[]any{"", "", "", "", ""},
		[]any{"  Tubo PVC  ", "", "", "", "1,200"},
	)

	rows, err := ReadProductRows(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, bulk.ImportRow{
		Store:       "Centro",
		Code:        "CAB-001",
		Description: "Cable 2.5mm",
		Stock:       "10",
		MinStock:    "3",
		Line:        2,
	}, rows[0])

	assert.Equal(t, "Tubo PVC", rows[1].Description)
	assert.Equal(t, "1,200", rows[1].Stock)
	assert.Empty(t, rows[1].Code)
	assert.Equal(t, 4, rows[1].Line)
}

func TestReadProductRows_ShortRowsAndMissingColumns(t *testing.T) {
	buf := workbook(t,
		[]any{"Codigo", "Descripcion"},
		[]any{"X1"},
		[]any{"X2", "Codo"},
	)

	rows, err := ReadProductRows(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Empty(t, rows[0].Description)
	assert.Empty(t, rows[0].Stock)
	assert.Equal(t, "Codo", rows[1].Description)
}

func TestReadProductRows_Errors(t *testing.T) {
	t.Run("not a workbook", func(t *testing.T) {
		_, err := ReadProductRows(bytes.NewBufferString("codigo,descripcion"))
		assert.Error(t, err)
	})

	t.Run("empty sheet", func(t *testing.T) {
		_, err := ReadProductRows(workbook(t))
		assert.ErrorIs(t, err, ErrEmptyWorkbook)
	})

	t.Run("no description column", func(t *testing.T) {
		_, err := ReadProductRows(workbook(t, []any{"Codigo", "Stock"}, []any{"A", "1"}))
		assert.ErrorIs(t, err, ErrMissingHeader)
	})
}

func TestWriteProducts(t *testing.T) {
	rows := []bulk.ExportRow{
		{Store: "Principal", Code: "CAB-001", Description: "Cable 2.5mm", Stock: decimal.NewFromInt(10), MinStock: decimal.NewFromInt(5)},
		{Store: "Centro", Code: "TUB-002", Description: "Tubo PVC", Stock: decimal.RequireFromString("2.5"), MinStock: decimal.NewFromInt(1)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteProducts(&buf, rows))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ProductsSheet}, f.GetSheetList())

	got, err := f.GetRows(ProductsSheet)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Tienda", "Codigo", "Descripcion", "Stock", "Limite Stock"}, got[0])
	assert.Equal(t, []string{"Principal", "CAB-001", "Cable 2.5mm", "10", "5"}, got[1])
	assert.Equal(t, "2.5", got[2][3])

	for col, want := range map[string]float64{"A": 15, "B": 20, "C": 40, "D": 12, "E": 15} {
		width, err := f.GetColWidth(ProductsSheet, col)
		require.NoError(t, err)
		assert.Equal(t, want, width, "column %s", col)
	}
}

func TestExportReimportsAsUpdates(t *testing.T) {
	existing := []bulk.ExistingProduct{
		{Code: "CAB-001", ID: uuid.New()},
		{Code: "TUB-002", ID: uuid.New()},
	}
	export := []bulk.ExportRow{
		{Store: "Principal", Code: "CAB-001", Description: "Cable 2.5mm", Stock: decimal.NewFromInt(10), MinStock: decimal.NewFromInt(5)},
		{Store: "Centro", Code: "TUB-002", Description: "Tubo PVC", Stock: decimal.NewFromInt(0), MinStock: decimal.NewFromInt(1)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteProducts(&buf, export))

	rows, err := ReadProductRows(&buf)
	require.NoError(t, err)

	plan := bulk.Reconcile(rows, existing, bulk.Options{Now: func() time.Time { return time.Unix(0, 0) }})
	require.False(t, plan.HasErrors())
	creates, updates := plan.Counts()
	assert.Zero(t, creates)
	assert.Equal(t, 2, updates)
	assert.Equal(t, existing[1].ID, plan.Entries[1].ProductID)
}
