// Package extractor turns document chunks into unvalidated rule candidates.
// The primary path asks a language model and parses its output through a
// permissive intermediate representation; the deterministic pattern path
// takes over when the model is unavailable or its output unusable. Both
// paths produce the same candidate shape, so nothing downstream branches on
// which one ran.
package extractor

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/taforge/taforge/internal/models"
	"github.com/taforge/taforge/internal/types"
)

type Extractor struct {
	config    types.ExtractorConfig
	generator types.Generator
	registry  types.Registry
	pattern   *Pattern
	log       zerolog.Logger

	droppedSpans atomic.Int64
}

func NewWithConfig(config types.ExtractorConfig, generator types.Generator, registry types.Registry, log zerolog.Logger) *Extractor {
	if config.MaxCandidates == 0 {
		config.MaxCandidates = 50
	}
	return &Extractor{
		config:    config,
		generator: generator,
		registry:  registry,
		pattern:   NewPattern(registry),
		log:       log,
	}
}

// DroppedSpanCount reports how many model candidates were discarded for
// citing spans outside their chunk. Never silently swallowed: callers can
// surface it in run reports.
func (e *Extractor) DroppedSpanCount() int64 {
	return e.droppedSpans.Load()
}

// Extract produces rule candidates for one chunk. Model failures degrade to
// the pattern path; the pattern path degrades to an empty list. Extract
// itself only fails on context cancellation.
func (e *Extractor) Extract(ctx context.Context, chunk models.Chunk, indicatorHint []string) ([]models.RuleCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if e.generator != nil {
		candidates, ok := e.modelPath(ctx, chunk, indicatorHint)
		if ok {
			return e.cap(candidates), nil
		}
	}

	candidates, err := e.pattern.Extract(ctx, chunk, indicatorHint)
	if err != nil {
		return nil, err
	}
	return e.cap(candidates), nil
}

func (e *Extractor) modelPath(ctx context.Context, chunk models.Chunk, hint []string) ([]models.RuleCandidate, bool) {
	synonyms := make(map[string][]string)
	if e.registry != nil {
		for _, name := range hint {
			if canon, ok := e.registry.CanonicalName(name); ok {
				synonyms[canon] = e.registry.Synonyms(canon)
			}
		}
	}

	out, err := e.generator.Generate(ctx, buildPrompt(chunk.Text, hint, synonyms))
	if err != nil {
		e.log.Warn().Err(err).Int("chunk", chunk.Index).Msg("model unavailable, using pattern fallback")
		return nil, false
	}

	items, ok := jsonArray(out)
	if !ok {
		e.log.Warn().Int("chunk", chunk.Index).Msg("unparseable model output, using pattern fallback")
		return nil, false
	}

	var candidates []models.RuleCandidate
	for _, item := range items {
		if c, ok := e.bindCandidate(item, chunk); ok {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	return candidates, true
}

// bindCandidate coerces one permissive IR object into a RuleCandidate and
// verifies its cited span against the chunk's offset range. Candidates
// citing text the chunk does not contain are dropped, not trusted.
func (e *Extractor) bindCandidate(item map[string]any, chunk models.Chunk) (models.RuleCandidate, bool) {
	var flags []string

	indicator := fieldString(item, "indicator", &flags)
	if indicator == "" {
		return models.RuleCandidate{}, false
	}

	c := models.RuleCandidate{
		Indicator:  indicator,
		Comparator: normalizeComparator(fieldString(item, "comparator", &flags)),
		Threshold:  fieldNumber(item, "threshold", &flags),
		Directive:  strings.ToLower(fieldString(item, "directive", &flags)),
		Params:     fieldParams(item, "params", &flags),
		Direction:  normalizeDirection(fieldString(item, "direction", &flags)),
		Timeframe:  fieldString(item, "timeframe", &flags),
		Origin:     models.CandidateFromModel,
	}

	// A rule is either a comparator rule or a directive; neither means the
	// model produced something we cannot ground in the condition grammar.
	if c.Comparator == "" && c.Directive == "" {
		return models.RuleCandidate{}, false
	}
	if c.Direction == "" {
		c.Direction = models.DirectionEntry
		flags = append(flags, "assumed_direction")
	}

	quote := fieldString(item, "quote", &flags)
	sp, ok := e.resolveSpan(item, chunk, quote, &flags)
	if !ok {
		e.droppedSpans.Add(1)
		return models.RuleCandidate{}, false
	}
	c.Spans = []models.EvidenceSpan{sp}
	c.Raw = sp.Quote
	c.Flags = flags
	return c, true
}

// resolveSpan locates the cited quote inside the chunk. When the model
// supplies explicit offsets they must agree with the quote and fall inside
// the chunk; otherwise the quote is searched for verbatim.
func (e *Extractor) resolveSpan(item map[string]any, chunk models.Chunk, quote string, flags *[]string) (models.EvidenceSpan, bool) {
	if quote == "" {
		return models.EvidenceSpan{}, false
	}

	if start := fieldNumber(item, "start", flags); start != nil {
		if end := fieldNumber(item, "end", flags); end != nil {
			s, t := int(*start), int(*end)
			if s >= 0 && t > s && t <= len(chunk.Text) && chunk.Text[s:t] == quote {
				return span(chunk, s, t), true
			}
			// Offsets disagree with the chunk; fall through to searching.
			*flags = append(*flags, "span_offsets_rejected")
		}
	}

	idx := strings.Index(chunk.Text, quote)
	if idx < 0 {
		return models.EvidenceSpan{}, false
	}
	return span(chunk, idx, idx+len(quote)), true
}

func (e *Extractor) cap(candidates []models.RuleCandidate) []models.RuleCandidate {
	if len(candidates) > e.config.MaxCandidates {
		return candidates[:e.config.MaxCandidates]
	}
	return candidates
}
