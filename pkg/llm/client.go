// Package llm wraps the langchaingo Ollama backend behind the small
// Generator contract the extractor consumes. A configured primary model is
// tried first, then the fallback model; when both are unavailable the error
// wraps ErrModelUnavailable so the caller can switch to the deterministic
// extraction path instead of aborting.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/taforge/taforge/internal/types"
)

// ErrModelUnavailable marks generation failures on every configured model.
var ErrModelUnavailable = errors.New("language model unavailable")

type Client struct {
	config   types.LLMConfig
	primary  llms.Model
	fallback llms.Model
}

func NewWithConfig(config types.LLMConfig) (*Client, error) {
	if config.Model == "" {
		config.Model = "qwen2.5:14b-instruct"
	}
	if config.FallbackModel == "" {
		config.FallbackModel = "llama3.1:8b-instruct"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.Temperature == 0 {
		config.Temperature = 0.15
	}

	primary, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize primary model: %w", err)
	}

	fallback, err := ollama.New(
		ollama.WithModel(config.FallbackModel),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize fallback model: %w", err)
	}

	return &Client{
		config:   config,
		primary:  primary,
		fallback: fallback,
	}, nil
}

// Generate runs the prompt against the primary model, then the fallback.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	opts := []llms.CallOption{
		llms.WithTemperature(c.config.Temperature),
		llms.WithMaxTokens(c.config.MaxTokens),
	}

	out, primaryErr := llms.GenerateFromSinglePrompt(ctx, c.primary, prompt, opts...)
	if primaryErr == nil && out != "" {
		return out, nil
	}

	out, fallbackErr := llms.GenerateFromSinglePrompt(ctx, c.fallback, prompt, opts...)
	if fallbackErr == nil && out != "" {
		return out, nil
	}

	return "", fmt.Errorf("%w: primary %v, fallback %v", ErrModelUnavailable, primaryErr, fallbackErr)
}
