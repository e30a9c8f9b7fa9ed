// Package pipeline runs the invoice extraction flow: segment a document
// into pages, extract a candidate record via the document-understanding
// model, optionally verify it against the pages, and repair the result
// deterministically.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/invoice-cli/internal/model"
	"github.com/sells-group/invoice-cli/internal/understand"
)

// Status is the terminal outcome class of a pipeline run.
type Status string

const (
	// StatusExtracted means a repaired record was produced. The record
	// may be blank when the model reply carried no recoverable JSON.
	StatusExtracted Status = "extracted"

	// StatusNotInvoice means the model determined the document is not
	// an invoice.
	StatusNotInvoice Status = "not_invoice"

	// StatusNeedsSmallerInput means the model hit its processing limits
	// and the caller should retry with a smaller input.
	StatusNeedsSmallerInput Status = "needs_smaller_input"
)

// Result is the outcome of one pipeline run. Record and Evidence are
// populated only for StatusExtracted; Evidence may still be nil.
type Result struct {
	Status   Status
	Record   *model.Record
	Evidence model.Evidence
}

// Segmenter produces the ordered page sequence for a document.
type Segmenter interface {
	Segment(ctx context.Context, doc model.Document) ([]model.Page, error)
}

// Options configures a pipeline instance.
type Options struct {
	Strategy    Strategy
	Verify      bool
	Concurrency int
}

// Pipeline wires a segmenter and an understander into the full
// extraction flow.
type Pipeline struct {
	seg  Segmenter
	und  understand.Understander
	opts Options
}

// New creates a Pipeline, filling option defaults.
func New(seg Segmenter, und understand.Understander, opts Options) *Pipeline {
	if opts.Strategy == "" {
		opts.Strategy = StrategyBatch
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 4
	}
	return &Pipeline{seg: seg, und: und, opts: opts}
}

// Run extracts an invoice record from a document.
func (p *Pipeline) Run(ctx context.Context, doc model.Document) (*Result, error) {
	pages, err := p.seg.Segment(ctx, doc)
	if err != nil {
		return nil, err
	}

	zap.L().Info("document segmented",
		zap.String("name", doc.Name),
		zap.Int("pages", len(pages)),
		zap.String("strategy", string(p.opts.Strategy)),
	)

	if p.opts.Strategy == StrategyPerPage {
		return p.runPerPage(ctx, pages)
	}
	return p.runBatch(ctx, pages)
}

func (p *Pipeline) runBatch(ctx context.Context, pages []model.Page) (*Result, error) {
	ext, err := p.extractBatch(ctx, pages)
	if err != nil {
		return nil, err
	}
	if ext.status != StatusExtracted {
		return &Result{Status: ext.status}, nil
	}

	rec, ev := ext.record, ext.evidence
	if rec == nil {
		// No recoverable JSON: emit a blank record rather than failing.
		return p.finish(model.BlankRecord(), nil)
	}

	if p.opts.Verify {
		ver, err := p.verify(ctx, pages, rec)
		if err != nil {
			return nil, err
		}
		if ver.status != StatusExtracted {
			return &Result{Status: ver.status}, nil
		}
		rec, ev = ver.record, ver.evidence
	}

	return p.finish(rec, ev)
}

// errOverCapacity aborts the per-page group as soon as any page hits
// the model's limits.
var errOverCapacity = eris.New("pipeline: page over capacity")

// pageOutcome is the per-page result slot, indexed by page position so
// merge order never depends on goroutine completion order.
type pageOutcome struct {
	record     *model.Record
	evidence   model.Evidence
	notInvoice bool
}

func (p *Pipeline) runPerPage(ctx context.Context, pages []model.Page) (*Result, error) {
	outcomes := make([]pageOutcome, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for i, pg := range pages {
		g.Go(func() error {
			ext, err := p.extractPage(gctx, pg, len(pages))
			if err != nil {
				return err
			}
			switch ext.status {
			case StatusNeedsSmallerInput:
				return errOverCapacity
			case StatusNotInvoice:
				outcomes[i] = pageOutcome{notInvoice: true}
				return nil
			}

			if ext.record != nil && p.opts.Verify {
				ver, err := p.verify(gctx, []model.Page{pg}, ext.record)
				if err != nil {
					return err
				}
				switch ver.status {
				case StatusNeedsSmallerInput:
					return errOverCapacity
				case StatusNotInvoice:
					outcomes[i] = pageOutcome{notInvoice: true}
					return nil
				}
				ext = ver
			}

			outcomes[i] = pageOutcome{record: ext.record, evidence: ext.evidence}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if eris.Is(err, errOverCapacity) {
			return &Result{Status: StatusNeedsSmallerInput}, nil
		}
		return nil, err
	}

	var records []PageRecord
	anyNotInvoice := false
	for i, out := range outcomes {
		if out.notInvoice {
			anyNotInvoice = true
			continue
		}
		if out.record != nil {
			records = append(records, PageRecord{
				Index:    pages[i].Index,
				Record:   out.record,
				Evidence: out.evidence,
			})
		}
	}

	if len(records) == 0 {
		if anyNotInvoice {
			return &Result{Status: StatusNotInvoice}, nil
		}
		return p.finish(model.BlankRecord(), nil)
	}

	rec, ev := Merge(records)
	return p.finish(rec, ev)
}

// finish applies the repair passes and wraps the record in a Result.
func (p *Pipeline) finish(rec *model.Record, ev model.Evidence) (*Result, error) {
	if err := Repair(rec); err != nil {
		return nil, err
	}
	return &Result{Status: StatusExtracted, Record: rec, Evidence: ev}, nil
}
