package planner_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/taforge/taforge/pkg/planner"
	"github.com/taforge/taforge/pkg/registry"
)

func TestPlan_Deterministic(t *testing.T) {
	reg := registry.Default()
	first := planner.Plan("mean reversion", []string{"RSI", "MACD"}, 2, "", reg)
	second := planner.Plan("mean reversion", []string{"RSI", "MACD"}, 2, "", reg)
	assert.Equal(t, first, second)
}

func TestPlan_TemplatesAndSynonyms(t *testing.T) {
	queries := planner.Plan("mean reversion", []string{"RSI"}, 2, "", registry.Default())

	assert.Contains(t, queries, "RSI strategy mean reversion")
	assert.Contains(t, queries, "RSI crossover mean reversion")
	assert.Contains(t, queries, "Relative Strength Index strategy mean reversion")
	// Capped at two templates per indicator.
	assert.NotContains(t, queries, "RSI backtest mean reversion")
}

func TestPlan_SourceHint(t *testing.T) {
	queries := planner.Plan("momentum", []string{"MACD"}, 1, "arxiv.org", registry.Default())
	for _, q := range queries {
		assert.True(t, strings.HasSuffix(q, " site:arxiv.org"), "query %q should carry the site clause", q)
	}
}

func TestPlan_SkipsBlankAndDedupes(t *testing.T) {
	queries := planner.Plan("momentum", []string{" ", "SMA", "SMA"}, 1, "", registry.Default())

	seen := make(map[string]int)
	for _, q := range queries {
		seen[q]++
		assert.Equal(t, 1, seen[q], "duplicate query %q", q)
	}
	assert.Contains(t, queries, "SMA strategy momentum")
}

func TestPlan_NoIndicators(t *testing.T) {
	assert.Empty(t, planner.Plan("momentum", nil, 2, "", registry.Default()))
}
