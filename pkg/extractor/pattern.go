package extractor

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/taforge/taforge/internal/models"
	"github.com/taforge/taforge/internal/types"
)

// Pattern is the deterministic extraction path: regex matching for common
// TA phrasings. It produces a smaller, lower-confidence candidate set than
// the model path under the same contract, and never fails outright; when no
// pattern matches it degrades to an empty list.
type Pattern struct {
	registry types.Registry
}

func NewPattern(registry types.Registry) *Pattern {
	return &Pattern{registry: registry}
}

var (
	trailingStopRe = regexp.MustCompile(
		`(?i)trailing[ _]stop\s*(?:at|of|equal to|=)?\s*(\d+(?:\.\d+)?)\s*(?:x|×)\s*([A-Za-z]{2,10})`)
	trailingStopAltRe = regexp.MustCompile(
		`(?i)([A-Za-z]{2,10})[- ]based trailing[ _]stop\s*(?:at|of|equal to|=)?\s*(\d+(?:\.\d+)?)`)

	exitKeywordRe  = regexp.MustCompile(`(?i)\b(exit|sell|close|stop)\b`)
	entryKeywordRe = regexp.MustCompile(`(?i)\b(buy|enter|entry|open)\b`)
	shortKeywordRe = regexp.MustCompile(`(?i)\bgo short|short\b`)
	longKeywordRe  = regexp.MustCompile(`(?i)\bgo long\b`)
)

func (p *Pattern) Extract(_ context.Context, chunk models.Chunk, hint []string) ([]models.RuleCandidate, error) {
	names := p.matchableNames(hint)
	if len(names) == 0 {
		return nil, nil
	}

	var out []models.RuleCandidate
	out = append(out, p.comparatorRules(chunk, names)...)
	out = append(out, p.trailingStops(chunk, names)...)
	return out, nil
}

// comparatorRules matches "INDICATOR(period)? comparator threshold".
func (p *Pattern) comparatorRules(chunk models.Chunk, names []string) []models.RuleCandidate {
	re := comparatorRegexp(names)
	var out []models.RuleCandidate
	for _, m := range re.FindAllStringSubmatchIndex(chunk.Text, -1) {
		full := chunk.Text[m[0]:m[1]]
		indicator := chunk.Text[m[2]:m[3]]
		comparator := normalizeComparator(chunk.Text[m[6]:m[7]])
		threshold, err := strconv.ParseFloat(chunk.Text[m[8]:m[9]], 64)
		if comparator == "" || err != nil {
			continue
		}

		var params map[string]float64
		if m[4] >= 0 {
			if period, err := strconv.ParseFloat(chunk.Text[m[4]:m[5]], 64); err == nil {
				params = map[string]float64{"period": period}
			}
		}

		out = append(out, models.RuleCandidate{
			Indicator:  indicator,
			Comparator: comparator,
			Threshold:  &threshold,
			Params:     params,
			Direction:  classifyDirection(chunk.Text, m[0], models.DirectionEntry),
			Spans:      []models.EvidenceSpan{span(chunk, m[0], m[1])},
			Raw:        full,
			Origin:     models.CandidateFromPattern,
		})
	}
	return out
}

// trailingStops matches "trailing stop at 2x ATR" style directives.
func (p *Pattern) trailingStops(chunk models.Chunk, names []string) []models.RuleCandidate {
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[strings.ToLower(n)] = true
	}

	var out []models.RuleCandidate
	add := func(start, end int, indicator string, multiple float64) {
		if !known[strings.ToLower(indicator)] {
			return
		}
		out = append(out, models.RuleCandidate{
			Indicator: indicator,
			Directive: "trailing_stop",
			Params:    map[string]float64{"multiple": multiple},
			Direction: classifyDirection(chunk.Text, start, models.DirectionExit),
			Spans:     []models.EvidenceSpan{span(chunk, start, end)},
			Raw:       chunk.Text[start:end],
			Origin:    models.CandidateFromPattern,
		})
	}

	for _, m := range trailingStopRe.FindAllStringSubmatchIndex(chunk.Text, -1) {
		multiple, err := strconv.ParseFloat(chunk.Text[m[2]:m[3]], 64)
		if err != nil {
			continue
		}
		add(m[0], m[1], chunk.Text[m[4]:m[5]], multiple)
	}
	for _, m := range trailingStopAltRe.FindAllStringSubmatchIndex(chunk.Text, -1) {
		multiple, err := strconv.ParseFloat(chunk.Text[m[4]:m[5]], 64)
		if err != nil {
			continue
		}
		add(m[0], m[1], chunk.Text[m[2]:m[3]], multiple)
	}
	return out
}

// matchableNames merges the caller's hint with registry names and synonyms,
// longest first so multi-word synonyms win over their abbreviations.
func (p *Pattern) matchableNames(hint []string) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(n string) {
		n = strings.TrimSpace(n)
		if n == "" || seen[strings.ToLower(n)] {
			return
		}
		seen[strings.ToLower(n)] = true
		names = append(names, n)
	}
	for _, n := range hint {
		add(n)
		if p.registry != nil {
			if canon, ok := p.registry.CanonicalName(n); ok {
				add(canon)
				for _, s := range p.registry.Synonyms(canon) {
					add(s)
				}
			}
		}
	}
	if len(hint) == 0 && p.registry != nil {
		for _, n := range p.registry.Names() {
			add(n)
			for _, s := range p.registry.Synonyms(n) {
				add(s)
			}
		}
	}
	// Longest-first alternation.
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if len(names[j]) > len(names[i]) {
				names[i], names[j] = names[j], names[i]
			}
		}
	}
	return names
}

func comparatorRegexp(names []string) *regexp.Regexp {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	alternation := strings.Join(quoted, "|")
	return regexp.MustCompile(
		`(?i)\b(` + alternation + `)\b` +
			`\s*(?:\(\s*(\d+)\s*\))?` +
			`\s*(?:value\s+)?` +
			`(crosses?\s+(?:back\s+)?(?:above|below)|dips?\s+below|rises?\s+above|falls?\s+below|exceeds|>=|<=|>|<|above|below)` +
			`\s*(\d+(?:\.\d+)?)`)
}

// classifyDirection inspects the clause leading up to the match for
// entry/exit keywords; def applies when the text is silent.
func classifyDirection(text string, matchStart int, def string) string {
	clauseStart := 0
	for i := matchStart - 1; i >= 0; i-- {
		c := text[i]
		if c == '.' || c == ';' || c == '\n' {
			clauseStart = i + 1
			break
		}
	}
	lead := text[clauseStart:matchStart]
	switch {
	case shortKeywordRe.MatchString(lead):
		return models.DirectionShort
	case longKeywordRe.MatchString(lead):
		return models.DirectionLong
	case exitKeywordRe.MatchString(lead):
		return models.DirectionExit
	case entryKeywordRe.MatchString(lead):
		return models.DirectionEntry
	default:
		return def
	}
}

func span(chunk models.Chunk, start, end int) models.EvidenceSpan {
	return models.EvidenceSpan{
		DocumentFingerprint: chunk.DocumentFingerprint,
		Start:               chunk.Start + start,
		End:                 chunk.Start + end,
		Quote:               chunk.Text[start:end],
	}
}
