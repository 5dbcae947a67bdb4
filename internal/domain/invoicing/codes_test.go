package invoicing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentCode(t *testing.T) {
	tests := map[string]string{
		"DNI":                   "1",
		"dni":                   "1",
		"RUC":                   "6",
		" ruc ":                 "6",
		"CE":                    "4",
		"Carnet de Extranjería": "4",
		"CARNET DE EXTRANJERIA": "4",
		"PASAPORTE":             "7",
		"Pasaporte":             "7",
		"OTROS":                 "0",
		"LIBRETA MILITAR":       "1",
		"":                      "1",
	}
	for label, want := range tests {
		t.Run(label, func(t *testing.T) {
			assert.Equal(t, want, DocumentCode(label))
		})
	}
}

func TestUnitCode(t *testing.T) {
	tests := map[string]string{
		"UNIDAD":    "NIU",
		"Unidades":  "NIU",
		"und":       "NIU",
		"Metro":     "MTR",
		"m":         "MTR",
		"KILOGRAMO": "KGM",
		"kg":        "KGM",
		"Litros":    "LTR",
		"l":         "LTR",
		"CAJA":      "BX",
		"Paquetes":  "PK",
		"rollo":     "RO",
		"galón":     "NIU",
		"":          "NIU",
	}
	for label, want := range tests {
		t.Run(label, func(t *testing.T) {
			assert.Equal(t, want, UnitCode(label))
		})
	}
}

func TestNumbering(t *testing.T) {
	assert.Equal(t, 1, NextNumber(0))
	assert.Equal(t, 1, NextNumber(-3))
	assert.Equal(t, 128, NextNumber(127))
	assert.Equal(t, "00000001", FormatNumber(1))
	assert.Equal(t, "00012345", FormatNumber(12345))
	assert.Equal(t, "123456789", FormatNumber(123456789))

	n, err := ParseNumber("00000042")
	assert.NoError(t, err)
	assert.Equal(t, 42, n)

	n, err = ParseNumber("")
	assert.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = ParseNumber("B001")
	assert.Error(t, err)
}

func TestNumbering_StrictlyIncreasing(t *testing.T) {
	max := 0
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		next := NextNumber(max)
		assert.Equal(t, max+1, next)
		formatted := FormatNumber(next)
		assert.Len(t, formatted, NumberWidth)
		assert.False(t, seen[formatted])
		seen[formatted] = true
		max = next
	}
}

func TestParseDocumentType(t *testing.T) {
	dt, ok := ParseDocumentType("factura")
	assert.True(t, ok)
	assert.Equal(t, DocumentTypeInvoice, dt)

	dt, ok = ParseDocumentType("Boleta")
	assert.True(t, ok)
	assert.Equal(t, DocumentTypeReceipt, dt)

	_, ok = ParseDocumentType("guia")
	assert.False(t, ok)

	assert.Equal(t, 1, DocumentTypeInvoice.ProviderCode())
	assert.Equal(t, 2, DocumentTypeReceipt.ProviderCode())
	assert.Equal(t, 3, DocumentTypeCreditNote.ProviderCode())
	assert.Equal(t, "F001", DefaultSeries(DocumentTypeInvoice))
	assert.Equal(t, "B001", DefaultSeries(DocumentTypeReceipt))
}
