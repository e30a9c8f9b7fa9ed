package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/rotisserie/eris"

	"github.com/sells-group/invoice-cli/internal/model"
)

// ErrUnparseableDate is returned when a non-empty invoice date resists
// every known format. The record is unusable downstream without a
// canonical date, so this is a hard failure.
var ErrUnparseableDate = eris.New("invoice date is not parseable")

var (
	invoiceNumberJunkRe = regexp.MustCompile(`[^0-9A-Z]`)

	// Purchase order numbers are a known transaction-set prefix followed
	// by exactly seven digits. Anything matching inside a noisy field
	// replaces the whole field; anything else is left alone.
	poNumberRe = regexp.MustCompile(`(?:810|850|816|858|812|817|818|828|830|856)\d{7}`)

	currencyStripper = strings.NewReplacer("$", "", ",", "")
)

// Repair applies the deterministic cleanup passes to a normalized
// record, in fixed order. It mutates rec in place. The only error is
// an unparseable non-empty invoice date.
func Repair(rec *model.Record) error {
	// 1. Invoice number: uppercase, then digits and letters only.
	rec.InvoiceNumber = invoiceNumberJunkRe.ReplaceAllString(strings.ToUpper(rec.InvoiceNumber), "")

	// 2. PO number: replace the field with an embedded canonical PO if
	// one is present.
	if m := poNumberRe.FindString(rec.PONumber); m != "" {
		rec.PONumber = m
	}

	// 3. Invoice date: canonicalize to YYYY-MM-DD. Empty stays empty.
	if rec.InvoiceDate != "" {
		t, err := dateparse.ParseAny(rec.InvoiceDate)
		if err != nil {
			return eris.Wrapf(ErrUnparseableDate, "pipeline: repair invoice_date %q", rec.InvoiceDate)
		}
		rec.InvoiceDate = t.Format("2006-01-02")
	}

	// 4. Money fields: strip currency symbols and thousands separators.
	rec.GrossInvoiceAmount = currencyStripper.Replace(rec.GrossInvoiceAmount)
	rec.InvoiceTax = currencyStripper.Replace(rec.InvoiceTax)
	rec.InvoiceFreight = currencyStripper.Replace(rec.InvoiceFreight)
	for i := range rec.InvoiceItems {
		rec.InvoiceItems[i].ItemUnitPrice = currencyStripper.Replace(rec.InvoiceItems[i].ItemUnitPrice)
		rec.InvoiceItems[i].ItemTotal = currencyStripper.Replace(rec.InvoiceItems[i].ItemTotal)
	}

	// 5. A percent in the tax field means a rate was extracted, not an
	// amount. Drop it.
	if strings.Contains(rec.InvoiceTax, "%") {
		rec.InvoiceTax = ""
	}

	// 6. Recompute item totals where quantity and unit price are both
	// numeric.
	for i := range rec.InvoiceItems {
		item := &rec.InvoiceItems[i]
		if item.ItemQuantity == "" || item.ItemUnitPrice == "" {
			continue
		}
		qty, errQ := strconv.ParseFloat(item.ItemQuantity, 64)
		unit, errU := strconv.ParseFloat(item.ItemUnitPrice, 64)
		if errQ != nil || errU != nil {
			continue
		}
		item.ItemTotal = fmt.Sprintf("%.2f", qty*unit)
	}

	// 7. All-or-nothing item pruning: one item without a total makes the
	// whole list untrustworthy.
	for _, item := range rec.InvoiceItems {
		if strings.TrimSpace(item.ItemTotal) == "" {
			rec.InvoiceItems = []model.LineItem{}
			break
		}
	}

	return nil
}
