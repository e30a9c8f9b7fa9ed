package model

import (
	"encoding/json"
	"strings"
)

// Record is the fixed invoice schema. Every leaf value is a string;
// missing/unknown values are "". POLineNumber and POLineAmount are
// deprecated fields retained for schema stability and are always "".
type Record struct {
	InvoiceDate        string     `json:"invoice_date"`
	InvoiceNumber      string     `json:"invoice_number"`
	GrossInvoiceAmount string     `json:"gross_invoice_amount"`
	InvoiceTax         string     `json:"invoice_tax"`
	InvoiceFreight     string     `json:"invoice_freight"`
	PONumber           string     `json:"po_number"`
	POLineNumber       string     `json:"po_line_number"`
	POLineAmount       string     `json:"po_line_amount"`
	InvoiceDescription string     `json:"invoice_description"`
	InvoiceItems       []LineItem `json:"invoice_items"`
}

// LineItem is one invoice line. ItemNumber is always "" (deprecated).
type LineItem struct {
	ItemNumber      string `json:"item_number"`
	ItemDescription string `json:"item_description"`
	ItemQuantity    string `json:"item_quantity"`
	ItemUnitPrice   string `json:"item_unit_price"`
	ItemTotal       string `json:"item_total"`
}

// Evidence is the optional verification sidecar: field name (plus
// "invoice_items") to {page, evidence} entries. It accompanies a Record
// but is never part of the canonical schema.
type Evidence map[string]any

// RecordKeys is the canonical top-level key set, in output order.
var RecordKeys = []string{
	"invoice_date",
	"invoice_number",
	"gross_invoice_amount",
	"invoice_tax",
	"invoice_freight",
	"po_number",
	"po_line_number",
	"po_line_amount",
	"invoice_description",
	"invoice_items",
}

// ItemKeys is the canonical line-item key set.
var ItemKeys = []string{
	"item_number",
	"item_description",
	"item_quantity",
	"item_unit_price",
	"item_total",
}

// BlankRecord returns a record with every scalar "" and an empty,
// non-nil items slice.
func BlankRecord() *Record {
	return &Record{InvoiceItems: []LineItem{}}
}

// Fenced serializes the record as the canonical output artifact: a
// ```json fenced block containing exactly the ten top-level keys.
func (r *Record) Fenced() string {
	if r.InvoiceItems == nil {
		r.InvoiceItems = []LineItem{}
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		// The record is a closed struct of strings; marshal cannot fail.
		return "```json\n{}\n```"
	}
	var sb strings.Builder
	sb.WriteString("```json\n")
	sb.Write(b)
	sb.WriteString("\n```")
	return sb.String()
}

// Scalar returns the named scalar field value. Unknown names and
// "invoice_items" return "".
func (r *Record) Scalar(key string) string {
	switch key {
	case "invoice_date":
		return r.InvoiceDate
	case "invoice_number":
		return r.InvoiceNumber
	case "gross_invoice_amount":
		return r.GrossInvoiceAmount
	case "invoice_tax":
		return r.InvoiceTax
	case "invoice_freight":
		return r.InvoiceFreight
	case "po_number":
		return r.PONumber
	case "po_line_number":
		return r.POLineNumber
	case "po_line_amount":
		return r.POLineAmount
	case "invoice_description":
		return r.InvoiceDescription
	}
	return ""
}

// SetScalar assigns the named scalar field. Unknown names and
// "invoice_items" are ignored.
func (r *Record) SetScalar(key, value string) {
	switch key {
	case "invoice_date":
		r.InvoiceDate = value
	case "invoice_number":
		r.InvoiceNumber = value
	case "gross_invoice_amount":
		r.GrossInvoiceAmount = value
	case "invoice_tax":
		r.InvoiceTax = value
	case "invoice_freight":
		r.InvoiceFreight = value
	case "po_number":
		r.PONumber = value
	case "po_line_number":
		r.POLineNumber = value
	case "po_line_amount":
		r.POLineAmount = value
	case "invoice_description":
		r.InvoiceDescription = value
	}
}
