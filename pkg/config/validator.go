package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.LLM.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "Ollama base URL is required",
		})
	} else if _, err := url.Parse(c.LLM.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid Ollama base URL",
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 8192 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 8192",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Database.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	if c.Database.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.batch_size",
			Message: "batch_size must be positive",
		})
	}

	if c.Fetcher.MinInterval <= 0 {
		errors = append(errors, ValidationError{
			Field:   "fetcher.min_interval",
			Message: "min_interval must be positive",
		})
	}

	if c.Fetcher.UserAgent == "" {
		errors = append(errors, ValidationError{
			Field:   "fetcher.user_agent",
			Message: "user_agent is required for polite crawling",
		})
	}

	if c.Chunker.Size < 1 {
		errors = append(errors, ValidationError{
			Field:   "chunker.size",
			Message: "size must be positive",
		})
	}

	if c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.Size {
		errors = append(errors, ValidationError{
			Field:   "chunker.overlap",
			Message: "overlap must be non-negative and less than size",
		})
	}

	if c.Chunker.MaxChunks < 1 {
		errors = append(errors, ValidationError{
			Field:   "chunker.max_chunks",
			Message: "max_chunks must be positive",
		})
	}

	if c.Extractor.MaxCandidates < 1 {
		errors = append(errors, ValidationError{
			Field:   "extractor.max_candidates",
			Message: "max_candidates must be positive",
		})
	}

	if c.Dedup.Threshold <= 0 || c.Dedup.Threshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "dedup.threshold",
			Message: "threshold must be in (0, 1]",
		})
	}

	w := c.Confidence.Weights
	if w.Grounding < 0 || w.Reputation < 0 || w.Clarity < 0 {
		errors = append(errors, ValidationError{
			Field:   "confidence.weights",
			Message: "weights must be non-negative",
		})
	}
	if w.Grounding+w.Reputation+w.Clarity == 0 {
		errors = append(errors, ValidationError{
			Field:   "confidence.weights",
			Message: "at least one weight must be positive",
		})
	}

	if c.Pipeline.FetchConcurrency < 1 {
		errors = append(errors, ValidationError{
			Field:   "pipeline.fetch_concurrency",
			Message: "fetch_concurrency must be positive",
		})
	}

	if c.Pipeline.ExtractConcurrency < 1 {
		errors = append(errors, ValidationError{
			Field:   "pipeline.extract_concurrency",
			Message: "extract_concurrency must be positive",
		})
	}

	if c.Storage.Root == "" {
		errors = append(errors, ValidationError{
			Field:   "storage.root",
			Message: "storage root is required",
		})
	}

	return errors
}
