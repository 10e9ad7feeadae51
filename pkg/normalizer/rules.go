package normalizer

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/taforge/taforge/internal/models"
)

// Canonical rule grammar: a function-call-like form with the indicator as
// first argument and named parameters sorted alphabetically, e.g.
//
//	cross_below(RSI, period=14.0, threshold=30.0)
//	trailing_stop(ATR, multiple=2.0)
//
// The serialization is deterministic so identical semantics always produce
// byte-identical strings and therefore identical signatures.

func canonicalRule(c models.RuleCandidate, indicator string) string {
	op := c.Directive
	if op == "" {
		op = c.Comparator
	}

	params := make(map[string]float64, len(c.Params)+1)
	for k, v := range c.Params {
		params[k] = v
	}
	if c.Directive == "" && c.Threshold != nil {
		params["threshold"] = *c.Threshold
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(keys)+1)
	args = append(args, indicator)
	for _, k := range keys {
		args = append(args, fmt.Sprintf("%s=%s", k, formatParam(params[k])))
	}
	return op + "(" + strings.Join(args, ", ") + ")"
}

// formatParam renders numeric parameters deterministically: integral values
// keep one decimal place (2 -> "2.0") so the grammar never depends on how
// the value happened to be parsed.
func formatParam(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
