package config

import "github.com/taforge/taforge/internal/types"

// Section accessors convert the YAML-facing config into the plain structs
// the components take, so packages do not import the config loader.

func (c *Config) LLMConfig() types.LLMConfig {
	return types.LLMConfig{
		BaseURL:       c.LLM.BaseURL,
		Model:         c.LLM.Model,
		FallbackModel: c.LLM.FallbackModel,
		MaxTokens:     c.LLM.MaxTokens,
		Temperature:   c.LLM.Temperature,
	}
}

func (c *Config) DatabaseConfig() types.DatabaseConfig {
	return types.DatabaseConfig{
		URL:         c.Database.URL,
		TableName:   c.Database.TableName,
		VectorDim:   c.Database.VectorDim,
		BatchSize:   c.Database.BatchSize,
		SearchLimit: c.Database.SearchLimit,
	}
}

func (c *Config) FetcherConfig() types.FetcherConfig {
	return types.FetcherConfig{
		UserAgent:    c.Fetcher.UserAgent,
		MinInterval:  c.Fetcher.MinInterval,
		Timeout:      c.Fetcher.Timeout,
		MaxBodyBytes: c.Fetcher.MaxBodyBytes,
	}
}

func (c *Config) ChunkerConfig() types.ChunkerConfig {
	return types.ChunkerConfig{
		Size:      c.Chunker.Size,
		Overlap:   c.Chunker.Overlap,
		MaxChunks: c.Chunker.MaxChunks,
	}
}

func (c *Config) ExtractorConfig() types.ExtractorConfig {
	return types.ExtractorConfig{MaxCandidates: c.Extractor.MaxCandidates}
}

func (c *Config) DedupConfig() types.DedupConfig {
	return types.DedupConfig{Threshold: c.Dedup.Threshold}
}

func (c *Config) ConfidenceWeights() types.ConfidenceWeights {
	return types.ConfidenceWeights{
		Grounding:  c.Confidence.Weights.Grounding,
		Reputation: c.Confidence.Weights.Reputation,
		Clarity:    c.Confidence.Weights.Clarity,
	}
}

func (c *Config) PipelineConfig() types.PipelineConfig {
	return types.PipelineConfig{
		FetchConcurrency:   c.Pipeline.FetchConcurrency,
		ExtractConcurrency: c.Pipeline.ExtractConcurrency,
	}
}

func (c *Config) SearchConfig() types.SearchConfig {
	return types.SearchConfig{
		BraveAPIKey: c.Search.BraveAPIKey,
		MaxResults:  c.Search.MaxResults,
	}
}

func (c *Config) StorageConfig() types.StorageConfig {
	return types.StorageConfig{Root: c.Storage.Root}
}
