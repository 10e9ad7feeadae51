// Package normalizer turns deduplicated rule candidates into validated,
// schema-versioned Strategy records. Each step -- synonym resolution, rule
// stringification, source coercion, signing, schema validation -- is
// independently testable, and persistence happens only after the full
// record validates (write-after-validate, never the other way around).
package normalizer

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/taforge/taforge/internal/models"
	"github.com/taforge/taforge/internal/types"
)

// FlagUnknownIndicator marks indicator references the registry could not
// resolve. They are retained on the record, never dropped.
const FlagUnknownIndicator = "unknown_indicator"

// StrategyWriter persists a validated strategy under its signature.
// Re-writing identical content must be idempotent.
type StrategyWriter interface {
	WriteStrategy(s models.Strategy) (uri string, err error)
}

// Scorer computes the confidence score attached to the record before it is
// persisted.
type Scorer interface {
	Score(s models.Strategy, candidates []models.RuleCandidate, sourceURL string) float64
}

// Input is the raw material for one Strategy: the deduplicated candidate
// set plus whatever source metadata the upstream stages collected.
type Input struct {
	Name        string
	Description string
	Universe    []string
	Timeframe   string
	Candidates  []models.RuleCandidate
	SourceURL   string
	RawSources  any // heterogeneous upstream shapes, coerced here

	PositionSizing map[string]any
	Defaults       map[string]any
	BacktestHints  map[string]any
}

type Normalizer struct {
	registry types.Registry
	writer   StrategyWriter
	scorer   Scorer
}

func New(registry types.Registry, writer StrategyWriter, scorer Scorer) *Normalizer {
	return &Normalizer{registry: registry, writer: writer, scorer: scorer}
}

// Normalize canonicalizes, signs and validates one strategy. On success the
// record is persisted under its signature (when a writer is configured) and
// the storage URI is returned. Validation failures return a
// *SchemaValidationError naming the first failing field; nothing is
// persisted in that case.
func (n *Normalizer) Normalize(in Input) (models.Strategy, string, error) {
	indicators, canonByRaw := n.resolveIndicators(in.Candidates)

	var entryRules, exitRules []string
	var evidence []models.EvidenceSpan
	seenSpans := make(map[string]bool)

	for _, c := range in.Candidates {
		rule := canonicalRule(c, canonByRaw[strings.ToLower(strings.TrimSpace(c.Indicator))])
		if c.Direction == models.DirectionExit {
			exitRules = append(exitRules, rule)
		} else {
			entryRules = append(entryRules, rule)
		}
		for _, sp := range c.Spans {
			key := spanKey(sp)
			if !seenSpans[key] {
				seenSpans[key] = true
				evidence = append(evidence, sp)
			}
		}
	}
	sort.Strings(entryRules)
	sort.Strings(exitRules)
	if exitRules == nil {
		// Exit rules are optional but must serialize as an array.
		exitRules = []string{}
	}

	s := models.Strategy{
		SchemaVersion:  models.SchemaVersion,
		Name:           in.Name,
		Description:    in.Description,
		Universe:       in.Universe,
		Timeframe:      in.Timeframe,
		Indicators:     indicators,
		EntryRules:     entryRules,
		ExitRules:      exitRules,
		PositionSizing: in.PositionSizing,
		Defaults:       in.Defaults,
		BacktestHints:  in.BacktestHints,
		Sources:        coerceSources(in.RawSources, in.SourceURL),
		Evidence:       evidence,
	}
	fillDefaults(&s, in.Candidates)

	names := make([]string, len(s.Indicators))
	for i, ind := range s.Indicators {
		names[i] = ind.Name
	}
	s.Signature = Signature(names, s.EntryRules, s.ExitRules, s.Universe)

	if n.scorer != nil {
		s.Confidence = n.scorer.Score(s, in.Candidates, in.SourceURL)
	}

	if err := n.Validate(s); err != nil {
		return models.Strategy{}, "", err
	}

	uri := ""
	if n.writer != nil {
		var err error
		uri, err = n.writer.WriteStrategy(s)
		if err != nil {
			return models.Strategy{}, "", err
		}
	}
	return s, uri, nil
}

// Validate checks a record against its declared schema version without
// persisting anything.
func (n *Normalizer) Validate(s models.Strategy) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return &SchemaValidationError{Field: "(root)", Message: err.Error()}
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return &SchemaValidationError{Field: "(root)", Message: err.Error()}
	}
	return validateAgainstSchema(v)
}

// UnknownIndicatorCount reports how many indicator references on a strategy
// were retained unresolved. The confidence scorer uses it as a clarity
// signal.
func UnknownIndicatorCount(s models.Strategy) int {
	count := 0
	for _, ind := range s.Indicators {
		if ind.Unknown {
			count++
		}
	}
	return count
}

// resolveIndicators maps every candidate's indicator reference through the
// registry. Unresolved references are retained with Unknown set rather than
// dropped. The returned map resolves each raw spelling to the name used on
// the record, for rule stringification.
func (n *Normalizer) resolveIndicators(candidates []models.RuleCandidate) ([]models.IndicatorRef, map[string]string) {
	canonByRaw := make(map[string]string)
	refs := make(map[string]*models.IndicatorRef)
	var order []string

	for _, c := range candidates {
		raw := strings.TrimSpace(c.Indicator)
		lower := strings.ToLower(raw)
		if _, done := canonByRaw[lower]; done {
			mergeParams(refs[canonByRaw[lower]], c)
			continue
		}

		name := raw
		unknown := true
		if n.registry != nil {
			if canon, ok := n.registry.CanonicalName(raw); ok {
				name = canon
				unknown = false
			}
		}
		canonByRaw[lower] = name

		if ref, exists := refs[name]; exists {
			mergeParams(ref, c)
			continue
		}
		ref := &models.IndicatorRef{Name: name, Params: map[string]float64{}, Unknown: unknown}
		mergeParams(ref, c)
		refs[name] = ref
		order = append(order, name)
	}

	sort.Strings(order)
	out := make([]models.IndicatorRef, len(order))
	for i, name := range order {
		out[i] = *refs[name]
	}
	return out, canonByRaw
}

func mergeParams(ref *models.IndicatorRef, c models.RuleCandidate) {
	if ref == nil {
		return
	}
	for k, v := range c.Params {
		if _, exists := ref.Params[k]; !exists {
			ref.Params[k] = v
		}
	}
}

func fillDefaults(s *models.Strategy, candidates []models.RuleCandidate) {
	if s.Name == "" && len(s.Indicators) > 0 {
		names := make([]string, len(s.Indicators))
		for i, ind := range s.Indicators {
			names[i] = ind.Name
		}
		s.Name = strings.Join(names, " + ") + " rules"
	}
	if s.Name == "" {
		s.Name = "untitled strategy"
	}
	if len(s.Universe) == 0 {
		s.Universe = []string{"BTCUSDT"}
	}
	if s.Timeframe == "" {
		for _, c := range candidates {
			if c.Timeframe != "" {
				s.Timeframe = c.Timeframe
				break
			}
		}
	}
	if s.Timeframe == "" {
		s.Timeframe = "1h"
	}
	if s.PositionSizing == nil {
		s.PositionSizing = map[string]any{"type": "fixed_risk", "risk_pct": 1.0}
	}
	if s.Defaults == nil {
		s.Defaults = map[string]any{"stop": map[string]any{"atr_mult": 2.0}}
	}
	if s.BacktestHints == nil {
		s.BacktestHints = map[string]any{"warmup_bars": 200}
	}
}

func spanKey(s models.EvidenceSpan) string {
	return s.DocumentFingerprint + ":" + strconv.Itoa(s.Start) + ":" + strconv.Itoa(s.End)
}
