// Package planner turns a research topic and an indicator list into a
// bounded, deterministic set of search queries. No network and no model
// calls: identical inputs always produce the identical ordered list.
package planner

import (
	"fmt"
	"strings"

	"github.com/taforge/taforge/internal/types"
)

var templates = []string{
	"%s strategy %s",
	"%s crossover %s",
	"%s backtest %s",
	"%s trading rules %s",
}

// Plan emits up to maxPerIndicator templated queries per indicator (and per
// relevant synonym when the registry knows one), optionally scoped to a
// source with a site: clause.
func Plan(topic string, indicators []string, maxPerIndicator int, sourceHint string, reg types.Registry) []string {
	if maxPerIndicator <= 0 || maxPerIndicator > len(templates) {
		maxPerIndicator = len(templates)
	}

	site := ""
	if sourceHint != "" {
		site = " site:" + sourceHint
	}

	var out []string
	seen := make(map[string]bool)
	emit := func(ind string) {
		for _, tpl := range templates[:maxPerIndicator] {
			q := fmt.Sprintf(tpl, ind, topic) + site
			if !seen[q] {
				seen[q] = true
				out = append(out, q)
			}
		}
	}

	for _, ind := range indicators {
		ind = strings.TrimSpace(ind)
		if ind == "" {
			continue
		}
		emit(ind)
		if reg != nil {
			if canon, ok := reg.CanonicalName(ind); ok {
				for _, syn := range reg.Synonyms(canon) {
					emit(syn)
				}
			}
		}
	}
	return out
}
