package extractor

import (
	"fmt"
	"sort"
	"strings"
)

// buildPrompt composes the extraction instruction: canonical indicator set,
// synonym hints and the chunk text. The model is asked for a strict JSON
// array of single-rule objects, each citing the exact source quote it was
// derived from.
func buildPrompt(text string, indicators []string, synonyms map[string][]string) string {
	inds := strings.Join(indicators, ", ")
	if inds == "" {
		inds = "RSI, MACD, SMA, EMA, ATR, BBANDS"
	}

	var b strings.Builder
	b.WriteString("You are a trading-rule extraction assistant.\n\n")
	b.WriteString("GOAL\n")
	b.WriteString("- From the provided text, extract every explicit technical-analysis trading rule.\n\n")
	b.WriteString("CONSTRAINTS\n")
	fmt.Fprintf(&b, "- Prefer these indicators (canonical names): %s.\n", inds)
	b.WriteString("- Indicator synonyms (map to canonical names when found):\n")
	b.WriteString(formatSynonyms(synonyms))
	b.WriteString("\n- Each rule object MUST include:\n")
	b.WriteString("  indicator: indicator name as written or canonical\n")
	b.WriteString("  comparator: one of gt, lt, gte, lte, cross_above, cross_below (omit for directives)\n")
	b.WriteString("  threshold: numeric threshold (omit for directives)\n")
	b.WriteString("  directive: structured directive name such as trailing_stop (omit for comparator rules)\n")
	b.WriteString("  params: object of numeric named parameters, e.g. {\"multiple\": 2.0}\n")
	b.WriteString("  direction: one of entry, exit, long, short\n")
	b.WriteString("  quote: the EXACT contiguous substring of the text the rule was derived from\n")
	b.WriteString("  timeframe: e.g. 1h, 4h, 1d, if stated\n")
	b.WriteString("- Return a STRICT JSON array of rule objects. No prose, no markdown.\n")
	b.WriteString("- Prefer clear numeric params and cross semantics (from-below vs from-above).\n")
	b.WriteString("- Avoid vague \"buy the dip\" advice without explicit TA rules.\n\n")
	b.WriteString("TEXT\n")
	b.WriteString(text)
	return b.String()
}

func formatSynonyms(synonyms map[string][]string) string {
	if len(synonyms) == 0 {
		return "- (no extra synonyms provided)"
	}
	names := make([]string, 0, len(synonyms))
	for name := range synonyms {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})

	var lines []string
	for _, name := range names {
		seen := make(map[string]bool)
		var clean []string
		for _, s := range synonyms[name] {
			s = strings.TrimSpace(s)
			if s == "" || seen[strings.ToLower(s)] {
				continue
			}
			seen[strings.ToLower(s)] = true
			clean = append(clean, s)
		}
		if len(clean) > 0 {
			lines = append(lines, fmt.Sprintf("- %s: %s", name, strings.Join(clean, ", ")))
		} else {
			lines = append(lines, fmt.Sprintf("- %s: (none)", name))
		}
	}
	return strings.Join(lines, "\n")
}
