package invoicing

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alex240101/oxapampa/internal/domain/shared"
)

func TestBuildPayload(t *testing.T) {
	c := NewComposer(WithClock(fixedClock))
	cust := dniCustomer()
	cust.Email = "rosa@example.pe"
	doc, err := c.Compose([]SaleLine{
		{Code: "MART-01", Name: "Martillo", UnitLabel: "UNIDAD", Quantity: dec("2"), GrossUnitPrice: dec("10")},
	}, DocumentTypeReceipt, "B001", cust, 0)
	require.NoError(t, err)

	data, err := json.Marshal(BuildPayload(doc))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "generar_comprobante", got["operacion"])
	assert.Equal(t, float64(2), got["tipo_de_comprobante"])
	assert.Equal(t, "B001", got["serie"])
	assert.Equal(t, float64(1), got["numero"])
	assert.Equal(t, "1", got["cliente_tipo_de_documento"])
	assert.Equal(t, "2026-03-14", got["fecha_de_emision"])
	assert.Equal(t, float64(1), got["moneda"])
	assert.Equal(t, 18.0, got["porcentaje_de_igv"])
	assert.Equal(t, 16.94, got["total_gravada"])
	assert.Equal(t, 3.05, got["total_igv"])
	assert.Equal(t, 19.99, got["total"])
	assert.Equal(t, 0.0, got["total_inafecta"])
	assert.Equal(t, true, got["enviar_automaticamente_a_la_sunat"])
	assert.Equal(t, true, got["enviar_automaticamente_al_cliente"])
	assert.NotContains(t, got, "documento_que_se_modifica_serie")

	items, ok := got["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "NIU", item["unidad_de_medida"])
	assert.Equal(t, "MART-01", item["codigo"])
	assert.Equal(t, 8.47, item["valor_unitario"])
	assert.Equal(t, 10.0, item["precio_unitario"])
	assert.Equal(t, 16.94, item["subtotal"])
	assert.Equal(t, 3.05, item["igv"])
	assert.Equal(t, 19.99, item["total"])
	assert.Equal(t, float64(1), item["tipo_de_igv"])
	assert.Equal(t, false, item["anticipo_regularizacion"])
}

func TestBuildPayload_NoEmailDoesNotNotifyCustomer(t *testing.T) {
	doc, err := NewComposer().Compose([]SaleLine{{Code: "A", Name: "a", Quantity: dec("1"), GrossUnitPrice: dec("1")}}, DocumentTypeReceipt, "B001", dniCustomer(), 0)
	require.NoError(t, err)
	assert.False(t, BuildPayload(doc).SendToCustomer)
}

func TestComposeCreditNote(t *testing.T) {
	c := NewComposer(WithClock(fixedClock))
	lines := []SaleLine{{Code: "MART-01", Name: "Martillo", Quantity: dec("2"), GrossUnitPrice: dec("10")}}

	t.Run("mirrors the modified document", func(t *testing.T) {
		doc, err := c.ComposeCreditNote(CreditNoteRequest{
			Lines:    lines,
			Customer: rucCustomer(),
			Modifies: Reference{Type: DocumentTypeInvoice, Series: "F001", Number: 15},
			Reason:   "06",
		}, 2)
		require.NoError(t, err)

		assert.Equal(t, DocumentTypeCreditNote, doc.Type)
		assert.Equal(t, "FC01", doc.Series)
		assert.Equal(t, 3, doc.Number)
		assert.Equal(t, "19.99", doc.Total.StringFixed(2))
		assert.Equal(t, "Devolución total", doc.CreditNoteSummary)

		p := BuildPayload(doc)
		assert.Equal(t, 3, p.DocumentType)
		assert.Equal(t, 1, p.ModifiedDocumentType)
		assert.Equal(t, "F001", p.ModifiedDocumentSeries)
		assert.Equal(t, 15, p.ModifiedDocumentNumber)
		assert.Equal(t, "06", p.CreditNoteType)
	})

	t.Run("receipt notes default to the BC series", func(t *testing.T) {
		doc, err := c.ComposeCreditNote(CreditNoteRequest{
			Lines:    lines,
			Customer: dniCustomer(),
			Modifies: Reference{Type: DocumentTypeReceipt, Series: "B001", Number: 1},
			Reason:   "01",
			Summary:  "Cliente desistió",
		}, 0)
		require.NoError(t, err)
		assert.Equal(t, "BC01", doc.Series)
		assert.Equal(t, "Cliente desistió", doc.CreditNoteSummary)
	})

	t.Run("rejects unknown reasons", func(t *testing.T) {
		_, err := c.ComposeCreditNote(CreditNoteRequest{
			Lines:    lines,
			Customer: dniCustomer(),
			Modifies: Reference{Type: DocumentTypeReceipt, Series: "B001", Number: 1},
			Reason:   "10",
		}, 0)
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("rejects an incomplete reference", func(t *testing.T) {
		_, err := c.ComposeCreditNote(CreditNoteRequest{
			Lines:    lines,
			Customer: dniCustomer(),
			Modifies: Reference{Type: DocumentTypeReceipt},
			Reason:   "01",
		}, 0)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestErrors(t *testing.T) {
	conflict := &NumberingConflictError{Series: "B001", Number: 7}
	assert.ErrorIs(t, conflict, ErrNumberingConflict)
	assert.Contains(t, conflict.Error(), "B001-00000007")

	cause := errors.New("connection reset")
	provider := &ExternalProviderError{StatusCode: 502, Raw: []byte(`{"errors":"x"}`), Err: cause}
	assert.ErrorIs(t, provider, ErrExternalProvider)
	assert.ErrorIs(t, provider, cause)
	assert.Contains(t, provider.Error(), "502")
	assert.False(t, errors.Is(provider, ErrNumberingConflict))
}
