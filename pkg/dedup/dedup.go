// Package dedup merges near-duplicate rule candidates arising from chunk
// overlap or multiple documents covering the same strategy. Duplicates are
// detected on the canonicalized indicator+condition+direction tuple after
// synonym resolution; a normalized Levenshtein similarity over the tuple
// strings catches near-misses. Merging unions evidence spans -- grounding
// is never discarded -- and keeps the clearest raw form for audit.
package dedup

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/taforge/taforge/internal/models"
	"github.com/taforge/taforge/internal/types"
)

// DefaultThreshold is the normalized similarity above which two canonical
// tuples are treated as the same rule. Tunable via config; 0.85 keeps
// "RSI cross_below 30" and "RSI crosses back below 30.0" together while
// separating different thresholds.
const DefaultThreshold = 0.85

type Deduplicator struct {
	config   types.DedupConfig
	registry types.Registry
}

func NewWithConfig(config types.DedupConfig, registry types.Registry) Deduplicator {
	if config.Threshold <= 0 || config.Threshold > 1 {
		config.Threshold = DefaultThreshold
	}
	return Deduplicator{config: config, registry: registry}
}

// Dedupe collapses candidates into a canonical set, preserving first-seen
// order. The merged span set of each survivor is a superset union of all
// inputs merged into it.
func (d Deduplicator) Dedupe(candidates []models.RuleCandidate) []models.RuleCandidate {
	var out []models.RuleCandidate
	var keys []string

	for _, c := range candidates {
		key := d.Key(c)
		matched := -1
		for i, existing := range keys {
			if existing == key || d.similar(existing, key) {
				matched = i
				break
			}
		}
		if matched < 0 {
			keys = append(keys, key)
			out = append(out, cloneCandidate(c))
			continue
		}
		out[matched] = merge(out[matched], c)
	}
	return out
}

// Key builds the canonicalized comparison tuple for a candidate.
func (d Deduplicator) Key(c models.RuleCandidate) string {
	name := strings.TrimSpace(c.Indicator)
	if d.registry != nil {
		if canon, ok := d.registry.CanonicalName(name); ok {
			name = canon
		}
	}

	var condition string
	if c.Directive != "" {
		condition = c.Directive + "(" + paramString(c.Params) + ")"
	} else {
		condition = c.Comparator
		if c.Threshold != nil {
			condition += fmt.Sprintf(" %g", *c.Threshold)
		}
	}
	return strings.ToUpper(name) + "|" + condition + "|" + c.Direction
}

func (d Deduplicator) similar(a, b string) bool {
	if a == b {
		return true
	}
	// Numeric content is semantic: RSI below 30 and RSI below 70 are one
	// edit apart but entirely different rules. Fuzzy matching only applies
	// when the numbers agree.
	if !sameNumbers(a, b) {
		return false
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return true
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0-float64(dist)/float64(longest) >= d.config.Threshold
}

var numberRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

func sameNumbers(a, b string) bool {
	na := numberRe.FindAllString(a, -1)
	nb := numberRe.FindAllString(b, -1)
	if len(na) != len(nb) {
		return false
	}
	for i := range na {
		x, errA := strconv.ParseFloat(na[i], 64)
		y, errB := strconv.ParseFloat(nb[i], 64)
		if errA != nil || errB != nil || x != y {
			return false
		}
	}
	return true
}

// merge folds dup into base: spans are unioned, and the raw form with the
// fewest parse flags (longest on ties) wins as the audit text.
func merge(base, dup models.RuleCandidate) models.RuleCandidate {
	seen := make(map[string]bool, len(base.Spans))
	for _, s := range base.Spans {
		seen[spanKey(s)] = true
	}
	for _, s := range dup.Spans {
		if !seen[spanKey(s)] {
			seen[spanKey(s)] = true
			base.Spans = append(base.Spans, s)
		}
	}

	if clarity(dup) > clarity(base) {
		base.Raw = dup.Raw
		base.Flags = dup.Flags
		base.Origin = dup.Origin
	}

	if base.Threshold == nil && dup.Threshold != nil {
		base.Threshold = dup.Threshold
	}
	if base.Timeframe == "" {
		base.Timeframe = dup.Timeframe
	}
	return base
}

func clarity(c models.RuleCandidate) int {
	// Fewer flags is clearer; longer raw text breaks ties.
	return -len(c.Flags)*10000 + len(c.Raw)
}

func spanKey(s models.EvidenceSpan) string {
	return fmt.Sprintf("%s:%d:%d", s.DocumentFingerprint, s.Start, s.End)
}

func paramString(params map[string]float64) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, params[k])
	}
	return strings.Join(parts, ",")
}

func cloneCandidate(c models.RuleCandidate) models.RuleCandidate {
	c.Spans = append([]models.EvidenceSpan(nil), c.Spans...)
	c.Flags = append([]string(nil), c.Flags...)
	return c
}
