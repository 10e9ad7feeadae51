package confidence_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/taforge/taforge/internal/models"
	"github.com/taforge/taforge/internal/types"
	"github.com/taforge/taforge/pkg/confidence"
)

func grounded() models.RuleCandidate {
	return models.RuleCandidate{
		Indicator: "RSI",
		Spans:     []models.EvidenceSpan{{DocumentFingerprint: "fp", Start: 0, End: 10, Quote: "some quote"}},
	}
}

func ungrounded() models.RuleCandidate {
	return models.RuleCandidate{Indicator: "RSI"}
}

func TestCoverage(t *testing.T) {
	assert.Equal(t, 0.0, confidence.Coverage(nil))
	assert.Equal(t, 1.0, confidence.Coverage([]models.RuleCandidate{grounded()}))
	assert.Equal(t, 0.5, confidence.Coverage([]models.RuleCandidate{grounded(), ungrounded()}))
}

func TestHostReputation(t *testing.T) {
	assert.Equal(t, 0.8, confidence.HostReputation("https://arxiv.org/abs/2101.00001"))
	// Subdomains inherit their parent's tier.
	assert.Equal(t, 0.8, confidence.HostReputation("https://papers.ssrn.com/sol3/papers.cfm"))
	assert.Equal(t, 1.0, confidence.HostReputation("https://www.sciencedirect.com/science/article/1"))
	assert.Equal(t, 0.5, confidence.HostReputation("https://someone.medium.com/rsi-guide"))
	assert.Equal(t, 0.4, confidence.HostReputation("https://random-trading-site.io/post"))
	assert.Equal(t, 0.0, confidence.HostReputation(""))
}

func TestScore_WithinBounds(t *testing.T) {
	s := confidence.NewWithWeights(types.ConfidenceWeights{Grounding: 0.5, Reputation: 0.3, Clarity: 0.2})

	score := s.Score(models.Strategy{}, []models.RuleCandidate{grounded()}, "https://arxiv.org/abs/1")
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}

func TestScore_MonotonicInGrounding(t *testing.T) {
	s := confidence.NewWithWeights(types.ConfidenceWeights{Grounding: 0.5, Reputation: 0.3, Clarity: 0.2})
	source := "https://example.com/doc"

	low := s.Score(models.Strategy{}, []models.RuleCandidate{grounded(), ungrounded(), ungrounded()}, source)
	mid := s.Score(models.Strategy{}, []models.RuleCandidate{grounded(), grounded(), ungrounded()}, source)
	high := s.Score(models.Strategy{}, []models.RuleCandidate{grounded(), grounded(), grounded()}, source)

	assert.Less(t, low, mid)
	assert.Less(t, mid, high)
}

func TestScore_MonotonicInReputation(t *testing.T) {
	s := confidence.NewWithWeights(types.ConfidenceWeights{Grounding: 0.5, Reputation: 0.3, Clarity: 0.2})
	candidates := []models.RuleCandidate{grounded()}

	blog := s.Score(models.Strategy{}, candidates, "https://someone.medium.com/post")
	preprint := s.Score(models.Strategy{}, candidates, "https://arxiv.org/abs/1")
	journal := s.Score(models.Strategy{}, candidates, "https://www.sciencedirect.com/article")

	assert.Less(t, blog, preprint)
	assert.Less(t, preprint, journal)
}

func TestScore_ClarityPenalizesFlagsAndUnknowns(t *testing.T) {
	s := confidence.NewWithWeights(types.ConfidenceWeights{Grounding: 0.5, Reputation: 0.3, Clarity: 0.2})
	source := "https://example.com/doc"

	clean := s.Score(models.Strategy{}, []models.RuleCandidate{grounded()}, source)

	flagged := grounded()
	flagged.Flags = []string{"coerced_threshold", "assumed_direction"}
	dirty := s.Score(models.Strategy{}, []models.RuleCandidate{flagged}, source)
	assert.Less(t, dirty, clean)

	unknown := s.Score(models.Strategy{
		Indicators: []models.IndicatorRef{{Name: "Mystery", Unknown: true}},
	}, []models.RuleCandidate{grounded()}, source)
	assert.Less(t, unknown, clean)
}

func TestNewWithWeights_Renormalizes(t *testing.T) {
	// Weights 5/3/2 behave identically to 0.5/0.3/0.2.
	a := confidence.NewWithWeights(types.ConfidenceWeights{Grounding: 5, Reputation: 3, Clarity: 2})
	b := confidence.NewWithWeights(types.ConfidenceWeights{Grounding: 0.5, Reputation: 0.3, Clarity: 0.2})

	candidates := []models.RuleCandidate{grounded(), ungrounded()}
	source := "https://arxiv.org/abs/1"
	assert.InDelta(t, b.Score(models.Strategy{}, candidates, source), a.Score(models.Strategy{}, candidates, source), 1e-9)
}
