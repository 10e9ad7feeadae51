// Package confidence scores extracted strategies on three signals:
// grounding coverage (how many rules carry verified evidence), source
// reputation, and extraction clarity. The combination is a weighted sum
// with configured weights, monotonic in each input: raising any signal
// while holding the others fixed never lowers the score.
package confidence

import (
	"net/url"
	"strings"

	"github.com/taforge/taforge/internal/models"
	"github.com/taforge/taforge/internal/types"
	"github.com/taforge/taforge/pkg/normalizer"
)

// Reputation tiers per source type. Peer-reviewed outranks preprints,
// preprints outrank blogs; unrecognized hosts get a conservative floor.
const (
	reputationPeerReviewed = 1.0
	reputationPreprint     = 0.8
	reputationBlog         = 0.5
	reputationUnknown      = 0.4
)

var hostReputation = map[string]float64{
	"arxiv.org":             reputationPreprint,
	"ssrn.com":              reputationPreprint,
	"papers.ssrn.com":       reputationPreprint,
	"ideas.repec.org":       reputationPreprint,
	"sciencedirect.com":     reputationPeerReviewed,
	"link.springer.com":     reputationPeerReviewed,
	"onlinelibrary.wiley.com": reputationPeerReviewed,
	"ieeexplore.ieee.org":   reputationPeerReviewed,
	"tandfonline.com":       reputationPeerReviewed,
	"medium.com":            reputationBlog,
	"substack.com":          reputationBlog,
	"wordpress.com":         reputationBlog,
	"blogspot.com":          reputationBlog,
}

type Scorer struct {
	weights types.ConfidenceWeights
}

func NewWithWeights(weights types.ConfidenceWeights) Scorer {
	if weights.Grounding <= 0 && weights.Reputation <= 0 && weights.Clarity <= 0 {
		weights = types.ConfidenceWeights{Grounding: 0.5, Reputation: 0.3, Clarity: 0.2}
	}
	// Re-normalize so the score stays in [0,1] whatever the config says.
	total := weights.Grounding + weights.Reputation + weights.Clarity
	weights.Grounding /= total
	weights.Reputation /= total
	weights.Clarity /= total
	return Scorer{weights: weights}
}

// Score combines grounding coverage, source reputation and extraction
// clarity into a scalar in [0,1].
func (s Scorer) Score(strategy models.Strategy, candidates []models.RuleCandidate, sourceURL string) float64 {
	score := s.weights.Grounding*Coverage(candidates) +
		s.weights.Reputation*s.reputation(strategy, sourceURL) +
		s.weights.Clarity*clarity(strategy, candidates)

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Coverage is the fraction of rules carrying at least one verified
// evidence span.
func Coverage(candidates []models.RuleCandidate) float64 {
	if len(candidates) == 0 {
		return 0
	}
	grounded := 0
	for _, c := range candidates {
		if len(c.Spans) > 0 {
			grounded++
		}
	}
	return float64(grounded) / float64(len(candidates))
}

func (s Scorer) reputation(strategy models.Strategy, sourceURL string) float64 {
	best := 0.0
	consider := func(raw string) {
		if r := HostReputation(raw); r > best {
			best = r
		}
	}
	consider(sourceURL)
	for _, src := range strategy.Sources {
		consider(src.URL)
	}
	if best == 0 {
		return reputationUnknown
	}
	return best
}

// HostReputation looks up the reputation weight for a URL's host, matching
// registered suffixes so subdomains inherit their parent's tier.
func HostReputation(raw string) float64 {
	if raw == "" {
		return 0
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return 0
	}
	host := strings.ToLower(u.Host)
	for suffix, rep := range hostReputation {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return rep
		}
	}
	return reputationUnknown
}

// clarity is the inverse of the unknown-indicator and parse-ambiguity
// count: a perfectly clean extraction scores 1, each problem discounts it.
func clarity(strategy models.Strategy, candidates []models.RuleCandidate) float64 {
	problems := normalizer.UnknownIndicatorCount(strategy)
	for _, c := range candidates {
		problems += len(c.Flags)
	}
	return 1.0 / (1.0 + float64(problems))
}
