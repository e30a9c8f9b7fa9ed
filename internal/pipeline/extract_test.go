package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/invoice-cli/internal/model"
)

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("batch")
	require.NoError(t, err)
	assert.Equal(t, StrategyBatch, s)

	s, err = ParseStrategy("per_page")
	require.NoError(t, err)
	assert.Equal(t, StrategyPerPage, s)

	_, err = ParseStrategy("page-by-page")
	assert.Error(t, err)
}

func TestPagePartsOrderAndMarkers(t *testing.T) {
	pages := []model.Page{
		{Index: 1, ImagePNG: []byte{1, 2, 3}},
		{Index: 2, Text: "Total: $120.00"},
	}

	parts := pageParts(pages)
	require.Len(t, parts, 5)

	assert.Contains(t, parts[0].Text, "Pages are in order")
	assert.Equal(t, "PAGE 1:", parts[1].Text)
	assert.NotEmpty(t, parts[2].Image)
	assert.Equal(t, "image/png", parts[2].MediaType)
	assert.Equal(t, "PAGE 2:", parts[3].Text)
	assert.Equal(t, "Total: $120.00", parts[4].Text)
}

func TestPromptsCarryRealFences(t *testing.T) {
	assert.Contains(t, extractPrompt, "```json")
	assert.NotContains(t, extractPrompt, "~~~")
	assert.Contains(t, verifyPrompt, "```json")
	assert.NotContains(t, verifyPrompt, "~~~")
	assert.Contains(t, verifyPrompt, `"_evidence"`)
}
