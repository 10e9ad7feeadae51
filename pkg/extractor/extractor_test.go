package extractor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taforge/taforge/internal/models"
	"github.com/taforge/taforge/internal/types"
	"github.com/taforge/taforge/pkg/extractor"
	"github.com/taforge/taforge/pkg/registry"
)

type fakeGenerator struct {
	output string
	err    error
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.output, g.err
}

const sampleText = "Buy when RSI(14) crosses below 30; exit with a trailing stop at 2x ATR."

func sampleChunk() models.Chunk {
	return models.Chunk{
		DocumentFingerprint: "fp",
		Index:               0,
		Start:               100,
		End:                 100 + len(sampleText),
		Text:                sampleText,
	}
}

func newExtractor(gen types.Generator) *extractor.Extractor {
	return extractor.NewWithConfig(types.ExtractorConfig{}, gen, registry.Default(), zerolog.Nop())
}

func TestExtract_ModelPath(t *testing.T) {
	gen := &fakeGenerator{output: `Here you go:
[
  {"indicator": "RSI", "comparator": "crosses_below", "threshold": 30,
   "params": {"period": 14}, "direction": "entry",
   "quote": "RSI(14) crosses below 30"},
  {"indicator": "ATR", "directive": "trailing_stop",
   "params": {"multiple": 2}, "direction": "exit",
   "quote": "trailing stop at 2x ATR"}
]`}

	e := newExtractor(gen)
	candidates, err := e.Extract(context.Background(), sampleChunk(), []string{"RSI", "ATR"})
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	rsi := candidates[0]
	assert.Equal(t, "RSI", rsi.Indicator)
	assert.Equal(t, "cross_below", rsi.Comparator)
	require.NotNil(t, rsi.Threshold)
	assert.Equal(t, 30.0, *rsi.Threshold)
	assert.Equal(t, models.DirectionEntry, rsi.Direction)
	assert.Equal(t, models.CandidateFromModel, rsi.Origin)

	// Spans are absolute document offsets, verified against the chunk.
	require.Len(t, rsi.Spans, 1)
	span := rsi.Spans[0]
	assert.Equal(t, "fp", span.DocumentFingerprint)
	assert.Equal(t, "RSI(14) crosses below 30", span.Quote)
	assert.Equal(t, sampleText[span.Start-100:span.End-100], span.Quote)

	atr := candidates[1]
	assert.Equal(t, "trailing_stop", atr.Directive)
	assert.Equal(t, models.DirectionExit, atr.Direction)
	assert.Equal(t, 2.0, atr.Params["multiple"])
}

func TestExtract_UnverifiableQuoteDropped(t *testing.T) {
	gen := &fakeGenerator{output: `[
  {"indicator": "RSI", "comparator": "cross_below", "threshold": 30,
   "quote": "this text does not appear in the chunk"},
  {"indicator": "RSI", "comparator": "cross_below", "threshold": 30,
   "quote": "RSI(14) crosses below 30"}
]`}

	e := newExtractor(gen)
	candidates, err := e.Extract(context.Background(), sampleChunk(), []string{"RSI"})
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
	assert.Equal(t, int64(1), e.DroppedSpanCount())
}

func TestExtract_BadOffsetsFallBackToSearch(t *testing.T) {
	gen := &fakeGenerator{output: `[
  {"indicator": "RSI", "comparator": "cross_below", "threshold": 30,
   "quote": "RSI(14) crosses below 30", "start": 9000, "end": 9024}
]`}

	e := newExtractor(gen)
	candidates, err := e.Extract(context.Background(), sampleChunk(), []string{"RSI"})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Contains(t, candidates[0].Flags, "span_offsets_rejected")
	assert.Equal(t, "RSI(14) crosses below 30", candidates[0].Spans[0].Quote)
}

func TestExtract_ModelFailureFallsBackToPattern(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection refused")}

	e := newExtractor(gen)
	candidates, err := e.Extract(context.Background(), sampleChunk(), []string{"RSI", "ATR"})
	require.NoError(t, err)
	require.NotEmpty(t, candidates)
	for _, c := range candidates {
		assert.Equal(t, models.CandidateFromPattern, c.Origin)
	}
}

func TestExtract_GarbageOutputFallsBackToPattern(t *testing.T) {
	gen := &fakeGenerator{output: "I could not find any rules, sorry!"}

	e := newExtractor(gen)
	candidates, err := e.Extract(context.Background(), sampleChunk(), []string{"RSI", "ATR"})
	require.NoError(t, err)
	assert.NotEmpty(t, candidates)
}

func TestExtract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newExtractor(nil)
	_, err := e.Extract(ctx, sampleChunk(), []string{"RSI"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtract_CandidateCap(t *testing.T) {
	e := extractor.NewWithConfig(types.ExtractorConfig{MaxCandidates: 1}, nil, registry.Default(), zerolog.Nop())

	candidates, err := e.Extract(context.Background(), sampleChunk(), []string{"RSI", "ATR"})
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}
