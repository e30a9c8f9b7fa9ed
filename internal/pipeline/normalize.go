package pipeline

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sells-group/invoice-cli/internal/model"
)

// Normalize coerces a recovered JSON object into the fixed invoice
// schema: every leaf a cleaned string, deprecated fields forced "",
// zero-total items dropped, unknown keys ignored. The "_evidence"
// sidecar is passed through untouched. Normalize is idempotent.
func Normalize(raw map[string]any) (*model.Record, model.Evidence) {
	rec := model.BlankRecord()
	if raw == nil {
		return rec, nil
	}

	for _, key := range model.RecordKeys {
		if key == "invoice_items" {
			continue
		}
		rec.SetScalar(key, cleanString(raw[key]))
	}
	rec.POLineNumber = ""
	rec.POLineAmount = ""

	if items, ok := raw["invoice_items"].([]any); ok {
		for _, entry := range items {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			item := model.LineItem{
				ItemDescription: cleanString(m["item_description"]),
				ItemQuantity:    cleanString(m["item_quantity"]),
				ItemUnitPrice:   cleanString(m["item_unit_price"]),
				ItemTotal:       cleanString(m["item_total"]),
			}
			if zeroTotal(item.ItemTotal) {
				continue
			}
			rec.InvoiceItems = append(rec.InvoiceItems, item)
		}
	}

	if ev, ok := raw["_evidence"].(map[string]any); ok {
		return rec, model.Evidence(ev)
	}
	return rec, nil
}

// zeroTotal reports whether a raw item total is empty or zero once
// currency formatting is removed.
func zeroTotal(total string) bool {
	t := strings.TrimSpace(strings.NewReplacer("$", "", ",", "").Replace(total))
	switch t {
	case "", "0", "0.0", "0.00":
		return true
	}
	return false
}

// cleanString coerces any JSON leaf to a string, strips control
// characters (keeping newline and tab), and trims surrounding space.
func cleanString(v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		s = ""
	case string:
		s = t
	case json.Number:
		s = t.String()
	case bool:
		s = strconv.FormatBool(t)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		s = fmt.Sprintf("%v", t)
	}
	return strings.TrimSpace(stripControl(s))
}

func stripControl(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' || r >= 0x20 {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
