package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/ollama"
)

type EmbedderConfig struct {
	Model   string
	BaseURL string
}

// Embedder produces text embeddings for the strategy index.
type Embedder struct {
	config EmbedderConfig
	model  *ollama.LLM
}

func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	if config.Model == "" {
		config.Model = "nomic-embed-text:latest"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}

	model, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return &Embedder{config: config, model: model}, nil
}

func (e *Embedder) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	return e.model.CreateEmbedding(ctx, texts)
}

// FlattenEmbeddings concatenates per-text vectors into one slice.
func FlattenEmbeddings(embeddings [][]float32) []float32 {
	var flattened []float32
	for _, emb := range embeddings {
		flattened = append(flattened, emb...)
	}
	return flattened
}
