package pipeline

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/invoice-cli/internal/model"
	"github.com/sells-group/invoice-cli/internal/understand"
)

// Strategy selects how pages are presented to the model.
type Strategy string

const (
	// StrategyBatch sends every page in a single extraction request.
	StrategyBatch Strategy = "batch"

	// StrategyPerPage extracts each page independently and merges the
	// per-page records afterwards.
	StrategyPerPage Strategy = "per_page"
)

// ParseStrategy validates a strategy name from config or flags.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyBatch, StrategyPerPage:
		return Strategy(s), nil
	}
	return "", eris.Errorf("pipeline: unknown strategy %q", s)
}

// extraction is the outcome of one extraction request. A nil Record
// with StatusExtracted means the reply carried no recoverable JSON.
type extraction struct {
	status   Status
	record   *model.Record
	evidence model.Evidence
}

// extractBatch runs one extraction request over all pages.
func (p *Pipeline) extractBatch(ctx context.Context, pages []model.Page) (extraction, error) {
	msgs := []understand.Message{
		{Role: "system", Parts: []understand.Part{understand.Text(extractPrompt)}},
		{Role: "user", Parts: pageParts(pages)},
	}
	return p.extractOnce(ctx, msgs)
}

// extractPage runs one extraction request over a single page of a
// larger document.
func (p *Pipeline) extractPage(ctx context.Context, page model.Page, total int) (extraction, error) {
	parts := []understand.Part{
		understand.Text(fmt.Sprintf(
			"Extract invoice fields from page %d of %d of a document. "+
				"Use only what you can see on this page. "+
				"Follow the system rules exactly.", page.Index, total)),
	}
	parts = appendPage(parts, page)

	msgs := []understand.Message{
		{Role: "system", Parts: []understand.Part{understand.Text(extractPrompt)}},
		{Role: "user", Parts: parts},
	}
	return p.extractOnce(ctx, msgs)
}

func (p *Pipeline) extractOnce(ctx context.Context, msgs []understand.Message) (extraction, error) {
	reply, err := p.und.Understand(ctx, msgs)
	if err != nil {
		return extraction{}, eris.Wrap(err, "pipeline: extract")
	}

	switch {
	case understand.IsOverCapacity(reply):
		return extraction{status: StatusNeedsSmallerInput}, nil
	case understand.IsNotInvoice(reply):
		return extraction{status: StatusNotInvoice}, nil
	}

	raw, ok := recoverObject(reply)
	if !ok {
		return extraction{status: StatusExtracted}, nil
	}

	rec, ev := Normalize(raw)
	return extraction{status: StatusExtracted, record: rec, evidence: ev}, nil
}

// pageParts renders the ordered page sequence as model content with
// 1-based page markers.
func pageParts(pages []model.Page) []understand.Part {
	parts := []understand.Part{
		understand.Text("Extract invoice fields from the following document pages. " +
			"Pages are in order. Use only what you can see. " +
			"Follow the system rules exactly."),
	}
	for _, pg := range pages {
		parts = append(parts, understand.Text(fmt.Sprintf("PAGE %d:", pg.Index)))
		parts = appendPage(parts, pg)
	}
	return parts
}

func appendPage(parts []understand.Part, pg model.Page) []understand.Part {
	if pg.HasText() {
		return append(parts, understand.Text(pg.Text))
	}
	return append(parts, understand.ImagePNG(pg.ImagePNG))
}
