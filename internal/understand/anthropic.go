package understand

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/invoice-cli/pkg/anthropic"
)

// Claude is an Understander backed by the Anthropic Messages API.
type Claude struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewClaude creates a Claude understander.
func NewClaude(client anthropic.Client, model string, maxTokens int64) *Claude {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Claude{client: client, model: model, maxTokens: maxTokens}
}

// Understand sends the conversation and returns the model's text reply.
// System-role messages become system blocks. A response truncated at the
// token limit is reported as the capacity sentinel, not as text.
func (c *Claude) Understand(ctx context.Context, msgs []Message) (string, error) {
	req := anthropic.MessageRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
	}

	for _, m := range msgs {
		if m.Role == "system" {
			for _, p := range m.Parts {
				req.System = append(req.System, anthropic.SystemBlock{Text: p.Text})
			}
			continue
		}
		out := anthropic.Message{Role: m.Role}
		for _, p := range m.Parts {
			if len(p.Image) > 0 {
				out.Parts = append(out.Parts, anthropic.ImagePart(p.Image, p.MediaType))
			} else {
				out.Parts = append(out.Parts, anthropic.TextPart(p.Text))
			}
		}
		req.Messages = append(req.Messages, out)
	}

	resp, err := c.client.CreateMessage(ctx, req)
	if err != nil {
		return "", eris.Wrap(err, "understand: create message")
	}

	resp.Usage.LogCost(c.model, "understand")

	if resp.StopReason == "max_tokens" {
		return SentinelOverCapacity, nil
	}

	return resp.Text(), nil
}
