package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]any
		ok   bool
	}{
		{
			name: "json fence",
			in:   "```json\n{\"invoice_number\": \"A1\"}\n```",
			want: map[string]any{"invoice_number": "A1"},
			ok:   true,
		},
		{
			name: "json fence with chatter",
			in:   "Here is the extraction:\n```json\n{\"a\": \"b\"}\n```\nLet me know!",
			want: map[string]any{"a": "b"},
			ok:   true,
		},
		{
			name: "uppercase fence tag",
			in:   "```JSON\n{\"a\": \"b\"}\n```",
			want: map[string]any{"a": "b"},
			ok:   true,
		},
		{
			name: "anonymous fence",
			in:   "```\n{\"a\": \"b\"}\n```",
			want: map[string]any{"a": "b"},
			ok:   true,
		},
		{
			name: "bare braces",
			in:   "sure, here you go {\"a\": \"b\"} hope that helps",
			want: map[string]any{"a": "b"},
			ok:   true,
		},
		{
			name: "broken fence with trailing object yields nothing",
			in:   "```json\n{\"a\": }\n``` but also {\"a\": \"b\"}",
			ok:   false,
		},
		{
			name: "no json",
			in:   "I could not find any invoice data.",
			ok:   false,
		},
		{
			name: "empty",
			in:   "",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := recoverObject(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.want != nil {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestRecoverObjectKeepsNumberForm(t *testing.T) {
	got, ok := recoverObject("```json\n{\"gross_invoice_amount\": 120.00}\n```")
	require.True(t, ok)
	// json.Number preserves the written form instead of float64 rounding.
	assert.Equal(t, "120.00", cleanString(got["gross_invoice_amount"]))
}
