package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/taforge/taforge/pkg/registry"
)

func TestRegistry_CanonicalName(t *testing.T) {
	r := registry.Default()

	name, ok := r.CanonicalName("rsi")
	assert.True(t, ok)
	assert.Equal(t, "RSI", name)

	name, ok = r.CanonicalName("relative strength index")
	assert.True(t, ok)
	assert.Equal(t, "RSI", name)

	name, ok = r.CanonicalName("  Bollinger Bands  ")
	assert.True(t, ok)
	assert.Equal(t, "BBANDS", name)

	_, ok = r.CanonicalName("VWAP")
	assert.False(t, ok)
}

func TestRegistry_Synonyms(t *testing.T) {
	r := registry.Default()

	assert.Equal(t, []string{"Relative Strength Index"}, r.Synonyms("RSI"))
	// Synonym lookup resolves through aliases too.
	assert.Equal(t, []string{"Relative Strength Index"}, r.Synonyms("relative strength index"))
	assert.Empty(t, r.Synonyms("VWAP"))
}

func TestRegistry_NamesSortedAndStable(t *testing.T) {
	r := registry.NewStatic(map[string][]string{
		"SMA": {"Simple Moving Average"},
		"ATR": {"Average True Range"},
		"RSI": nil,
	})

	assert.Equal(t, []string{"ATR", "RSI", "SMA"}, r.Names())

	// Mutating the returned slice must not affect the registry.
	names := r.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"ATR", "RSI", "SMA"}, r.Names())
}
