package chunker_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taforge/taforge/internal/models"
	"github.com/taforge/taforge/internal/types"
	"github.com/taforge/taforge/pkg/chunker"
)

func TestSplit_Empty(t *testing.T) {
	c := chunker.NewWithConfig(types.ChunkerConfig{Size: 100, Overlap: 10, MaxChunks: 5})
	set := c.Split(models.Document{Text: ""})
	assert.Empty(t, set.Chunks)
	assert.False(t, set.Truncated)
}

func TestSplit_SingleChunk(t *testing.T) {
	c := chunker.NewWithConfig(types.ChunkerConfig{Size: 100, Overlap: 10, MaxChunks: 5})
	doc := models.Document{Text: "short text", Fingerprint: "abc"}

	set := c.Split(doc)
	require.Len(t, set.Chunks, 1)
	assert.Equal(t, doc.Text, set.Chunks[0].Text)
	assert.Equal(t, 0, set.Chunks[0].Start)
	assert.Equal(t, len(doc.Text), set.Chunks[0].End)
	assert.Equal(t, "abc", set.Chunks[0].DocumentFingerprint)
}

func TestSplit_Invariants(t *testing.T) {
	const size, overlap = 80, 15
	c := chunker.NewWithConfig(types.ChunkerConfig{Size: size, Overlap: overlap, MaxChunks: 100})

	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 20)
	doc := models.Document{Text: text, Fingerprint: "fp"}

	set := c.Split(doc)
	require.NotEmpty(t, set.Chunks)
	assert.False(t, set.Truncated)

	for i, ch := range set.Chunks {
		assert.Equal(t, i, ch.Index)
		assert.LessOrEqual(t, ch.End-ch.Start, size, "chunk %d exceeds size", i)
		assert.Equal(t, text[ch.Start:ch.End], ch.Text, "chunk %d text does not match its offsets", i)
		if i > 0 {
			prev := set.Chunks[i-1]
			assert.Equal(t, overlap, prev.End-ch.Start, "chunks %d/%d overlap", i-1, i)
		}
	}

	// Coverage: the last chunk must end at the document's end.
	assert.Equal(t, len(text), set.Chunks[len(set.Chunks)-1].End)
}

func TestSplit_SoftBreakOnWhitespace(t *testing.T) {
	c := chunker.NewWithConfig(types.ChunkerConfig{Size: 50, Overlap: 5, MaxChunks: 100})
	text := strings.Repeat("alpha beta gamma delta ", 10)

	set := c.Split(models.Document{Text: text})
	require.Greater(t, len(set.Chunks), 1)
	for i, ch := range set.Chunks[:len(set.Chunks)-1] {
		last := ch.Text[len(ch.Text)-1]
		assert.NotEqual(t, byte(' '), last, "chunk %d should break before the whitespace", i)
	}
}

func TestSplit_Truncation(t *testing.T) {
	c := chunker.NewWithConfig(types.ChunkerConfig{Size: 50, Overlap: 5, MaxChunks: 3})
	text := strings.Repeat("x", 1000)

	set := c.Split(models.Document{Text: text})
	assert.Len(t, set.Chunks, 3)
	assert.True(t, set.Truncated)
}
