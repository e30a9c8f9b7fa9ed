package pipeline

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/invoice-cli/internal/model"
	"github.com/sells-group/invoice-cli/internal/understand"
)

// verify shows the pages again together with the candidate record and
// asks the model to correct unsupported fields and attach evidence.
// A reply with no recoverable JSON degrades gracefully: the candidate
// survives unchanged, without evidence.
func (p *Pipeline) verify(ctx context.Context, pages []model.Page, candidate *model.Record) (extraction, error) {
	encoded, err := json.MarshalIndent(candidate, "", "  ")
	if err != nil {
		return extraction{}, eris.Wrap(err, "pipeline: encode candidate")
	}

	parts := pageParts(pages)
	parts = append(parts,
		understand.Text("CANDIDATE JSON (to verify and correct):"),
		understand.Text(string(encoded)),
	)

	msgs := []understand.Message{
		{Role: "system", Parts: []understand.Part{understand.Text(verifyPrompt)}},
		{Role: "user", Parts: parts},
	}

	reply, err := p.und.Understand(ctx, msgs)
	if err != nil {
		return extraction{}, eris.Wrap(err, "pipeline: verify")
	}

	switch {
	case understand.IsOverCapacity(reply):
		return extraction{status: StatusNeedsSmallerInput}, nil
	case understand.IsNotInvoice(reply):
		return extraction{status: StatusNotInvoice}, nil
	}

	raw, ok := recoverObject(reply)
	if !ok {
		zap.L().Warn("verifier reply had no recoverable JSON, keeping candidate")
		return extraction{status: StatusExtracted, record: candidate}, nil
	}

	rec, ev := Normalize(raw)
	return extraction{status: StatusExtracted, record: rec, evidence: ev}, nil
}
