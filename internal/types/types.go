package types

import (
	"context"
	"time"

	"github.com/taforge/taforge/internal/models"
)

// Registry is the indicator-metadata collaborator. Canonicalization and
// extraction take it as an explicit dependency so tests can inject a fixed
// fake instead of reaching for ambient state.
type Registry interface {
	// CanonicalName resolves a raw indicator reference (name or synonym) to
	// its canonical registry name. ok is false when unresolved.
	CanonicalName(query string) (name string, ok bool)
	Synonyms(name string) []string
	Names() []string
}

// Generator is the language-model backend contract.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder turns texts into vectors for the strategy index.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Searcher is one discovery backend.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int, siteHint string) ([]models.SearchResult, error)
}

// Extractor produces rule candidates from one chunk. Both the model-backed
// and the deterministic pattern implementation satisfy it; downstream code
// never branches on which one ran.
type Extractor interface {
	Extract(ctx context.Context, chunk models.Chunk, indicatorHint []string) ([]models.RuleCandidate, error)
}

type LLMConfig struct {
	BaseURL       string
	Model         string
	FallbackModel string
	MaxTokens     int
	Temperature   float64
}

type DatabaseConfig struct {
	URL         string
	TableName   string
	VectorDim   int
	BatchSize   int
	SearchLimit int
}

type FetcherConfig struct {
	UserAgent    string
	MinInterval  time.Duration
	Timeout      time.Duration
	MaxBodyBytes int64
}

type ChunkerConfig struct {
	Size      int
	Overlap   int
	MaxChunks int
}

type ExtractorConfig struct {
	MaxCandidates int
}

type DedupConfig struct {
	Threshold float64
}

type ConfidenceWeights struct {
	Grounding  float64
	Reputation float64
	Clarity    float64
}

type PipelineConfig struct {
	FetchConcurrency   int
	ExtractConcurrency int
}

type SearchConfig struct {
	BraveAPIKey string
	MaxResults  int
}

type StorageConfig struct {
	Root string
}
