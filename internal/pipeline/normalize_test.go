package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCoercesScalars(t *testing.T) {
	rec, ev := Normalize(map[string]any{
		"invoice_number":       "  INV-1\x07\x00  ",
		"gross_invoice_amount": 120.5,
		"invoice_tax":          nil,
		"invoice_freight":      true,
		"unknown_key":          "dropped",
	})

	assert.Equal(t, "INV-1", rec.InvoiceNumber)
	assert.Equal(t, "120.5", rec.GrossInvoiceAmount)
	assert.Equal(t, "", rec.InvoiceTax)
	assert.Equal(t, "true", rec.InvoiceFreight)
	assert.Nil(t, ev)
}

func TestNormalizeKeepsNewlineAndTab(t *testing.T) {
	rec, _ := Normalize(map[string]any{
		"invoice_description": "line one\nline\ttwo\rdone",
	})
	assert.Equal(t, "line one\nline\ttwodone", rec.InvoiceDescription)
}

func TestNormalizeForcesDeprecatedFields(t *testing.T) {
	rec, _ := Normalize(map[string]any{
		"po_line_number": "7",
		"po_line_amount": "99.00",
		"invoice_items": []any{
			map[string]any{"item_number": "SKU-1", "item_description": "Widget", "item_total": "10.00"},
		},
	})

	assert.Equal(t, "", rec.POLineNumber)
	assert.Equal(t, "", rec.POLineAmount)
	require.Len(t, rec.InvoiceItems, 1)
	assert.Equal(t, "", rec.InvoiceItems[0].ItemNumber)
}

func TestNormalizeDropsZeroTotalItems(t *testing.T) {
	rec, _ := Normalize(map[string]any{
		"invoice_items": []any{
			map[string]any{"item_description": "Credit", "item_total": "$0.00"},
			map[string]any{"item_description": "Zeroish", "item_total": "0.0"},
			map[string]any{"item_description": "Missing", "item_total": ""},
			map[string]any{"item_description": "Service", "item_total": "120.00"},
			"not an object",
		},
	})

	require.Len(t, rec.InvoiceItems, 1)
	assert.Equal(t, "Service", rec.InvoiceItems[0].ItemDescription)
}

func TestNormalizePassesEvidenceThrough(t *testing.T) {
	sidecar := map[string]any{
		"invoice_number": map[string]any{"page": "1", "evidence": "Invoice # A1"},
	}
	rec, ev := Normalize(map[string]any{
		"invoice_number": "A1",
		"_evidence":      sidecar,
	})

	assert.Equal(t, "A1", rec.InvoiceNumber)
	require.NotNil(t, ev)
	assert.Equal(t, sidecar["invoice_number"], ev["invoice_number"])
}

func TestNormalizeNilInput(t *testing.T) {
	rec, ev := Normalize(nil)
	assert.Equal(t, "", rec.InvoiceNumber)
	assert.Empty(t, rec.InvoiceItems)
	assert.Nil(t, ev)
}

func TestNormalizeIdempotent(t *testing.T) {
	in := map[string]any{
		"invoice_date":   "04/10/2026",
		"invoice_number": "INV-00077",
		"invoice_items": []any{
			map[string]any{"item_description": "Monthly Service", "item_quantity": "1", "item_unit_price": "120.00", "item_total": "120.00"},
		},
	}

	first, _ := Normalize(in)

	again := map[string]any{
		"invoice_date":   first.InvoiceDate,
		"invoice_number": first.InvoiceNumber,
		"invoice_items": []any{
			map[string]any{
				"item_description": first.InvoiceItems[0].ItemDescription,
				"item_quantity":    first.InvoiceItems[0].ItemQuantity,
				"item_unit_price":  first.InvoiceItems[0].ItemUnitPrice,
				"item_total":       first.InvoiceItems[0].ItemTotal,
			},
		},
	}
	second, _ := Normalize(again)

	assert.Equal(t, first, second)
}
