package llm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taforge/taforge/internal/types"
	"github.com/taforge/taforge/pkg/llm"
)

func TestNewWithConfig(t *testing.T) {
	client, err := llm.NewWithConfig(types.LLMConfig{
		Model:       "testmodel",
		Temperature: 0.5,
		MaxTokens:   1000,
		BaseURL:     "http://localhost:1234",
	})
	assert.NoError(t, err)
	assert.NotNil(t, client)
}

func TestGenerate_UnreachableServerWrapsSentinel(t *testing.T) {
	// Port 1 is never listening; both models fail and the sentinel surfaces
	// so the extractor can switch to the pattern path.
	client, err := llm.NewWithConfig(types.LLMConfig{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "say hello")
	assert.ErrorIs(t, err, llm.ErrModelUnavailable)
}

func TestNewEmbedderWithConfig(t *testing.T) {
	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   "nomic-embed-text:latest",
		BaseURL: "http://localhost:11434",
	})
	assert.NoError(t, err)
	assert.NotNil(t, emb)
}

func TestFlattenEmbeddings(t *testing.T) {
	flat := llm.FlattenEmbeddings([][]float32{{1, 2}, {3}, {}})
	assert.Equal(t, []float32{1, 2, 3}, flat)
}
