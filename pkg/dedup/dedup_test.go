package dedup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taforge/taforge/internal/models"
	"github.com/taforge/taforge/internal/types"
	"github.com/taforge/taforge/pkg/dedup"
	"github.com/taforge/taforge/pkg/registry"
)

func threshold(v float64) *float64 { return &v }

func newDedup() dedup.Deduplicator {
	return dedup.NewWithConfig(types.DedupConfig{}, registry.Default())
}

func TestDedupe_SynonymCollapse(t *testing.T) {
	d := newDedup()

	candidates := []models.RuleCandidate{
		{
			Indicator: "RSI", Comparator: "cross_below", Threshold: threshold(30),
			Direction: models.DirectionEntry,
			Spans:     []models.EvidenceSpan{{DocumentFingerprint: "a", Start: 0, End: 10, Quote: "q1"}},
			Raw:       "RSI(14) crosses below 30",
		},
		{
			Indicator: "Relative Strength Index", Comparator: "cross_below", Threshold: threshold(30),
			Direction: models.DirectionEntry,
			Spans:     []models.EvidenceSpan{{DocumentFingerprint: "a", Start: 50, End: 60, Quote: "q2"}},
			Raw:       "Relative Strength Index below 30",
		},
	}

	out := d.Dedupe(candidates)
	require.Len(t, out, 1)

	// The span union keeps grounding from both forms.
	assert.Len(t, out[0].Spans, 2)
	// First-seen order: the survivor is the first candidate.
	assert.Equal(t, "RSI", out[0].Indicator)
}

func TestDedupe_DifferentThresholdsStaySeparate(t *testing.T) {
	d := newDedup()

	candidates := []models.RuleCandidate{
		{Indicator: "RSI", Comparator: "cross_below", Threshold: threshold(30), Direction: models.DirectionEntry},
		{Indicator: "RSI", Comparator: "cross_below", Threshold: threshold(70), Direction: models.DirectionEntry},
	}

	assert.Len(t, d.Dedupe(candidates), 2)
}

func TestDedupe_DirectionsStaySeparate(t *testing.T) {
	d := newDedup()

	candidates := []models.RuleCandidate{
		{Indicator: "RSI", Comparator: "gt", Threshold: threshold(70), Direction: models.DirectionEntry},
		{Indicator: "RSI", Comparator: "gt", Threshold: threshold(70), Direction: models.DirectionExit},
	}

	assert.Len(t, d.Dedupe(candidates), 2)
}

func TestDedupe_MergeFillsMissingFields(t *testing.T) {
	d := newDedup()

	candidates := []models.RuleCandidate{
		{
			Indicator: "ATR", Directive: "trailing_stop",
			Params: map[string]float64{"multiple": 2}, Direction: models.DirectionExit,
			Raw: "short raw", Flags: []string{"assumed_direction"},
		},
		{
			Indicator: "ATR", Directive: "trailing_stop",
			Params: map[string]float64{"multiple": 2}, Direction: models.DirectionExit,
			Raw: "exit with a trailing stop at 2x ATR", Timeframe: "1h",
		},
	}

	out := d.Dedupe(candidates)
	require.Len(t, out, 1)
	// The flag-free duplicate wins the audit text, and its timeframe fills in.
	assert.Equal(t, "exit with a trailing stop at 2x ATR", out[0].Raw)
	assert.Empty(t, out[0].Flags)
	assert.Equal(t, "1h", out[0].Timeframe)
}

func TestDedupe_InputNotMutated(t *testing.T) {
	d := newDedup()

	candidates := []models.RuleCandidate{
		{
			Indicator: "RSI", Comparator: "lt", Threshold: threshold(30), Direction: models.DirectionEntry,
			Spans: []models.EvidenceSpan{{DocumentFingerprint: "a", Start: 0, End: 5}},
		},
		{
			Indicator: "rsi", Comparator: "lt", Threshold: threshold(30), Direction: models.DirectionEntry,
			Spans: []models.EvidenceSpan{{DocumentFingerprint: "a", Start: 9, End: 14}},
		},
	}

	_ = d.Dedupe(candidates)
	assert.Len(t, candidates[0].Spans, 1, "input candidate must not grow spans")
}

func TestKey_Canonicalization(t *testing.T) {
	d := newDedup()

	a := d.Key(models.RuleCandidate{Indicator: "Relative Strength Index", Comparator: "lt", Threshold: threshold(30), Direction: "entry"})
	b := d.Key(models.RuleCandidate{Indicator: "rsi", Comparator: "lt", Threshold: threshold(30), Direction: "entry"})
	assert.Equal(t, a, b)

	c := d.Key(models.RuleCandidate{Indicator: "ATR", Directive: "trailing_stop", Params: map[string]float64{"multiple": 2}, Direction: "exit"})
	assert.Equal(t, "ATR|trailing_stop(multiple=2)|exit", c)
}
