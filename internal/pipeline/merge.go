package pipeline

import (
	"sort"
	"strings"

	"github.com/sells-group/invoice-cli/internal/model"
)

// PageRecord pairs a per-page extraction with its source page index so
// merging stays deterministic regardless of completion order.
type PageRecord struct {
	Index    int
	Record   *model.Record
	Evidence model.Evidence
}

// Merge folds per-page records into one document record. Scalars take
// the first non-empty value in page order. Items are concatenated in
// page order and deduplicated on normalized description plus
// currency-stripped total. Evidence follows the same first-wins rule,
// with item evidence re-aligned to the merged item list.
func Merge(pages []PageRecord) (*model.Record, model.Evidence) {
	sorted := make([]PageRecord, len(pages))
	copy(sorted, pages)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	merged := model.BlankRecord()
	mergedEv := model.Evidence{}
	itemEvidence := map[string]any{}
	seen := map[string]bool{}

	for _, pr := range sorted {
		if pr.Record == nil {
			continue
		}

		for _, key := range model.RecordKeys {
			if key == "invoice_items" {
				continue
			}
			if merged.Scalar(key) == "" {
				merged.SetScalar(key, pr.Record.Scalar(key))
			}
		}

		pageItemEv, _ := pr.Evidence["invoice_items"].([]any)
		for i, item := range pr.Record.InvoiceItems {
			key := itemKey(item)
			if !seen[key] {
				seen[key] = true
				merged.InvoiceItems = append(merged.InvoiceItems, item)
			}
			desc := normalizeDescription(item.ItemDescription)
			if _, ok := itemEvidence[desc]; !ok && i < len(pageItemEv) {
				itemEvidence[desc] = pageItemEv[i]
			}
		}

		for _, key := range model.RecordKeys {
			if key == "invoice_items" {
				continue
			}
			if _, taken := mergedEv[key]; !taken && evidenceNonEmpty(pr.Evidence[key]) {
				mergedEv[key] = pr.Evidence[key]
			}
		}
	}

	merged.POLineNumber = ""
	merged.POLineAmount = ""

	if aligned, ok := alignItemEvidence(merged.InvoiceItems, itemEvidence); ok {
		mergedEv["invoice_items"] = aligned
	}

	if len(mergedEv) == 0 {
		return merged, nil
	}
	return merged, mergedEv
}

// alignItemEvidence orders collected item evidence to match the merged
// item list. ok is false when no item has evidence at all.
func alignItemEvidence(items []model.LineItem, byDesc map[string]any) ([]any, bool) {
	aligned := make([]any, 0, len(items))
	found := false
	for _, item := range items {
		if ev, ok := byDesc[normalizeDescription(item.ItemDescription)]; ok {
			aligned = append(aligned, ev)
			found = true
		} else {
			aligned = append(aligned, map[string]any{})
		}
	}
	return aligned, found
}

// itemKey is the dedup identity of a line item: case- and
// whitespace-insensitive description plus the currency-stripped total.
func itemKey(item model.LineItem) string {
	return normalizeDescription(item.ItemDescription) + "\x00" + stripCurrency(item.ItemTotal)
}

func normalizeDescription(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

func stripCurrency(s string) string {
	return strings.TrimSpace(strings.NewReplacer("$", "", ",", "").Replace(s))
}

// evidenceNonEmpty reports whether an evidence entry carries an actual
// citation.
func evidenceNonEmpty(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	text, _ := m["evidence"].(string)
	return strings.TrimSpace(text) != ""
}
