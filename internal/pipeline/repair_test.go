package pipeline

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/invoice-cli/internal/model"
)

func TestRepairInvoiceNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"inv-00077", "INV00077"},
		{"INV 2026 / 00123", "INV202600123"},
		{"", ""},
		{"#A-1.b", "A1B"},
	}

	for _, tt := range tests {
		rec := model.BlankRecord()
		rec.InvoiceNumber = tt.in
		require.NoError(t, Repair(rec))
		assert.Equal(t, tt.want, rec.InvoiceNumber, tt.in)
	}
}

func TestRepairPONumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Reference 8509999999 as discussed", "8509999999"},
		{"8100123456", "8100123456"},
		// No canonical PO inside: field is left alone.
		{"PO-4455", "PO-4455"},
		{"", ""},
	}

	for _, tt := range tests {
		rec := model.BlankRecord()
		rec.PONumber = tt.in
		require.NoError(t, Repair(rec))
		assert.Equal(t, tt.want, rec.PONumber, tt.in)
	}
}

func TestRepairInvoiceDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"01/15/2026", "2026-01-15"},
		{"2026-01-15", "2026-01-15"},
		{"January 15, 2026", "2026-01-15"},
		{"15 Jan 2026", "2026-01-15"},
		{"", ""},
	}

	for _, tt := range tests {
		rec := model.BlankRecord()
		rec.InvoiceDate = tt.in
		require.NoError(t, Repair(rec))
		assert.Equal(t, tt.want, rec.InvoiceDate, tt.in)
	}
}

func TestRepairUnparseableDateIsHardError(t *testing.T) {
	rec := model.BlankRecord()
	rec.InvoiceDate = "sometime last spring"

	err := Repair(rec)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnparseableDate))
}

func TestRepairMoneyFields(t *testing.T) {
	rec := model.BlankRecord()
	rec.GrossInvoiceAmount = "$1,234.56"
	rec.InvoiceTax = "$12.00"
	rec.InvoiceFreight = "$5.00"
	rec.InvoiceItems = []model.LineItem{
		{ItemDescription: "Widget", ItemUnitPrice: "$1,000.00", ItemTotal: "$1,000.00"},
	}

	require.NoError(t, Repair(rec))
	assert.Equal(t, "1234.56", rec.GrossInvoiceAmount)
	assert.Equal(t, "12.00", rec.InvoiceTax)
	assert.Equal(t, "5.00", rec.InvoiceFreight)
	assert.Equal(t, "1000.00", rec.InvoiceItems[0].ItemUnitPrice)
	assert.Equal(t, "1000.00", rec.InvoiceItems[0].ItemTotal)
}

func TestRepairPercentTaxDropped(t *testing.T) {
	rec := model.BlankRecord()
	rec.InvoiceTax = "8.25%"
	require.NoError(t, Repair(rec))
	assert.Equal(t, "", rec.InvoiceTax)
}

func TestRepairRecomputesItemTotals(t *testing.T) {
	rec := model.BlankRecord()
	rec.InvoiceItems = []model.LineItem{
		{ItemDescription: "Service", ItemQuantity: "3", ItemUnitPrice: "9.99", ItemTotal: "31.00"},
		{ItemDescription: "Lot", ItemQuantity: "one", ItemUnitPrice: "50.00", ItemTotal: "50.00"},
	}

	require.NoError(t, Repair(rec))
	assert.Equal(t, "29.97", rec.InvoiceItems[0].ItemTotal)
	// Non-numeric quantity: total untouched.
	assert.Equal(t, "50.00", rec.InvoiceItems[1].ItemTotal)
}

func TestRepairPrunesAllItemsWhenAnyTotalMissing(t *testing.T) {
	rec := model.BlankRecord()
	rec.InvoiceItems = []model.LineItem{
		{ItemDescription: "Complete", ItemTotal: "10.00"},
		{ItemDescription: "Incomplete", ItemTotal: ""},
	}

	require.NoError(t, Repair(rec))
	assert.Empty(t, rec.InvoiceItems)
}

func TestRepairKeepsCompleteItems(t *testing.T) {
	rec := model.BlankRecord()
	rec.InvoiceItems = []model.LineItem{
		{ItemDescription: "A", ItemTotal: "10.00"},
		{ItemDescription: "B", ItemTotal: "20.00"},
	}

	require.NoError(t, Repair(rec))
	assert.Len(t, rec.InvoiceItems, 2)
}
