// Package registry provides the indicator name/synonym oracle consumed by
// the extractor and normalizer. In production the mapping comes from the
// indicator-metadata service; the static registry here mirrors its canonical
// set so the pipeline keeps working offline.
package registry

import (
	"sort"
	"strings"
)

// Static is an immutable in-memory registry. Lookups are case-insensitive.
type Static struct {
	canonical []string
	aliases   map[string]string   // lowercased alias -> canonical
	synonyms  map[string][]string // canonical -> display synonyms
}

// NewStatic builds a registry from a canonical-name -> synonyms mapping.
// Every canonical name resolves to itself.
func NewStatic(synonyms map[string][]string) *Static {
	r := &Static{
		aliases:  make(map[string]string),
		synonyms: make(map[string][]string),
	}
	names := make([]string, 0, len(synonyms))
	for name := range synonyms {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.canonical = append(r.canonical, name)
		r.aliases[strings.ToLower(name)] = name
		seen := map[string]bool{strings.ToLower(name): true}
		for _, syn := range synonyms[name] {
			syn = strings.TrimSpace(syn)
			if syn == "" {
				continue
			}
			key := strings.ToLower(syn)
			if seen[key] {
				continue
			}
			seen[key] = true
			r.aliases[key] = name
			r.synonyms[name] = append(r.synonyms[name], syn)
		}
	}
	return r
}

// Default returns the built-in TA indicator registry.
func Default() *Static {
	return NewStatic(map[string][]string{
		"RSI":    {"Relative Strength Index"},
		"MACD":   {"Moving Average Convergence Divergence"},
		"SMA":    {"Simple Moving Average", "Moving Average"},
		"EMA":    {"Exponential Moving Average"},
		"ATR":    {"Average True Range"},
		"BBANDS": {"Bollinger Bands", "BB"},
		"PPO":    {"Percentage Price Oscillator"},
		"MFI":    {"Money Flow Index"},
		"CCI":    {"Commodity Channel Index"},
	})
}

func (r *Static) CanonicalName(query string) (string, bool) {
	name, ok := r.aliases[strings.ToLower(strings.TrimSpace(query))]
	return name, ok
}

func (r *Static) Synonyms(name string) []string {
	if canon, ok := r.CanonicalName(name); ok {
		name = canon
	}
	out := make([]string, len(r.synonyms[name]))
	copy(out, r.synonyms[name])
	return out
}

func (r *Static) Names() []string {
	out := make([]string, len(r.canonical))
	copy(out, r.canonical)
	return out
}
