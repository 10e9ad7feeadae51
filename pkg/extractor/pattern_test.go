package extractor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taforge/taforge/internal/models"
	"github.com/taforge/taforge/pkg/extractor"
	"github.com/taforge/taforge/pkg/registry"
)

func chunkOf(text string) models.Chunk {
	return models.Chunk{DocumentFingerprint: "fp", Start: 0, End: len(text), Text: text}
}

func TestPattern_ComparatorAndTrailingStop(t *testing.T) {
	p := extractor.NewPattern(registry.Default())

	candidates, err := p.Extract(context.Background(), chunkOf(sampleText), []string{"RSI", "ATR"})
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	rsi := candidates[0]
	assert.Equal(t, "RSI", rsi.Indicator)
	assert.Equal(t, "cross_below", rsi.Comparator)
	require.NotNil(t, rsi.Threshold)
	assert.Equal(t, 30.0, *rsi.Threshold)
	assert.Equal(t, 14.0, rsi.Params["period"])
	assert.Equal(t, models.DirectionEntry, rsi.Direction)
	require.Len(t, rsi.Spans, 1)
	assert.Equal(t, "RSI(14) crosses below 30", rsi.Spans[0].Quote)

	atr := candidates[1]
	assert.Equal(t, "ATR", atr.Indicator)
	assert.Equal(t, "trailing_stop", atr.Directive)
	assert.Equal(t, 2.0, atr.Params["multiple"])
	assert.Equal(t, models.DirectionExit, atr.Direction)
}

func TestPattern_SynonymsMatch(t *testing.T) {
	p := extractor.NewPattern(registry.Default())

	text := "Sell when the Relative Strength Index rises above 70."
	candidates, err := p.Extract(context.Background(), chunkOf(text), []string{"RSI"})
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, "Relative Strength Index", c.Indicator)
	assert.Equal(t, "gt", c.Comparator)
	assert.Equal(t, 70.0, *c.Threshold)
	assert.Equal(t, models.DirectionExit, c.Direction)
}

func TestPattern_AltTrailingStopPhrasing(t *testing.T) {
	p := extractor.NewPattern(registry.Default())

	text := "Use an ATR-based trailing stop of 2.5."
	candidates, err := p.Extract(context.Background(), chunkOf(text), []string{"ATR"})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "trailing_stop", candidates[0].Directive)
	assert.Equal(t, 2.5, candidates[0].Params["multiple"])
}

func TestPattern_DirectionFromClause(t *testing.T) {
	p := extractor.NewPattern(registry.Default())

	text := "Open a position if MFI < 20. Close the trade once MFI > 80."
	candidates, err := p.Extract(context.Background(), chunkOf(text), []string{"MFI"})
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, models.DirectionEntry, candidates[0].Direction)
	assert.Equal(t, models.DirectionExit, candidates[1].Direction)
}

func TestPattern_NoIndicatorsNoMatches(t *testing.T) {
	p := extractor.NewPattern(nil)

	candidates, err := p.Extract(context.Background(), chunkOf(sampleText), nil)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestPattern_SpansAreAbsolute(t *testing.T) {
	p := extractor.NewPattern(registry.Default())

	chunk := models.Chunk{
		DocumentFingerprint: "fp",
		Start:               500,
		End:                 500 + len(sampleText),
		Text:                sampleText,
	}
	candidates, err := p.Extract(context.Background(), chunk, []string{"RSI"})
	require.NoError(t, err)
	require.NotEmpty(t, candidates)

	span := candidates[0].Spans[0]
	assert.GreaterOrEqual(t, span.Start, 500)
	assert.Equal(t, sampleText[span.Start-500:span.End-500], span.Quote)
}
