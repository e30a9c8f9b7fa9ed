// Package understand defines the document-understanding capability the
// pipeline consumes: an ordered sequence of role-tagged messages in, a
// single free-text reply out. Nothing else is assumed about the model
// behind it.
package understand

import (
	"context"
	"strings"
)

// Sentinel replies recognized from the capability.
const (
	// SentinelNotInvoice is the literal reply meaning the shown
	// page/document is not an invoice.
	SentinelNotInvoice = "The image is not an invoice"

	// SentinelOverCapacity is the literal reply meaning the request
	// exceeded the model's processing limits and should be retried by
	// the caller with a smaller input.
	SentinelOverCapacity = "max_new_token_error"
)

// IsNotInvoice reports whether a reply is the not-an-invoice sentinel.
// Prefix match after trimming: trailing model chatter does not defeat
// the sentinel.
func IsNotInvoice(reply string) bool {
	return strings.HasPrefix(strings.TrimSpace(reply), SentinelNotInvoice)
}

// IsOverCapacity reports whether a reply is the capacity sentinel.
func IsOverCapacity(reply string) bool {
	return strings.TrimSpace(reply) == SentinelOverCapacity
}

// Part is one content block of a message: either Text or an encoded
// bitmap with its media type.
type Part struct {
	Text      string
	Image     []byte
	MediaType string
}

// Message is one role-tagged entry of a model conversation.
type Message struct {
	Role  string // "system", "user" or "assistant"
	Parts []Part
}

// Text builds a text part.
func Text(s string) Part {
	return Part{Text: s}
}

// ImagePNG builds an image part from PNG bytes.
func ImagePNG(data []byte) Part {
	return Part{Image: data, MediaType: "image/png"}
}

// Understander is the opaque document-understanding capability. A call
// blocks until the model replies or fails; the pipeline attempts each
// call exactly once and owns no retry policy.
type Understander interface {
	Understand(ctx context.Context, msgs []Message) (string, error)
}

// Func adapts a plain function to the Understander interface.
type Func func(ctx context.Context, msgs []Message) (string, error)

// Understand implements Understander.
func (f Func) Understand(ctx context.Context, msgs []Message) (string, error) {
	return f(ctx, msgs)
}
