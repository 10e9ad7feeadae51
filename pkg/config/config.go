package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		BaseURL       string  `yaml:"base_url"`
		Model         string  `yaml:"model"`
		FallbackModel string  `yaml:"fallback_model"`
		MaxTokens     int     `yaml:"max_tokens"`
		Temperature   float64 `yaml:"temperature"`
	} `yaml:"llm"`

	Database struct {
		URL         string `yaml:"url"`
		TableName   string `yaml:"table_name"`
		VectorDim   int    `yaml:"vector_dim"`
		BatchSize   int    `yaml:"batch_size"`
		SearchLimit int    `yaml:"search_limit"`
	} `yaml:"database"`

	Fetcher struct {
		UserAgent    string        `yaml:"user_agent"`
		MinInterval  time.Duration `yaml:"min_interval"`
		Timeout      time.Duration `yaml:"timeout"`
		MaxBodyBytes int64         `yaml:"max_body_bytes"`
	} `yaml:"fetcher"`

	Chunker struct {
		Size      int `yaml:"size"`
		Overlap   int `yaml:"overlap"`
		MaxChunks int `yaml:"max_chunks"`
	} `yaml:"chunker"`

	Extractor struct {
		MaxCandidates int `yaml:"max_candidates"`
	} `yaml:"extractor"`

	Dedup struct {
		Threshold float64 `yaml:"threshold"`
	} `yaml:"dedup"`

	Confidence struct {
		Weights struct {
			Grounding  float64 `yaml:"grounding"`
			Reputation float64 `yaml:"reputation"`
			Clarity    float64 `yaml:"clarity"`
		} `yaml:"weights"`
	} `yaml:"confidence"`

	Pipeline struct {
		FetchConcurrency   int `yaml:"fetch_concurrency"`
		ExtractConcurrency int `yaml:"extract_concurrency"`
	} `yaml:"pipeline"`

	Search struct {
		BraveAPIKey string `yaml:"brave_api_key"`
		MaxResults  int    `yaml:"max_results"`
	} `yaml:"search"`

	Storage struct {
		Root string `yaml:"root"`
	} `yaml:"storage"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/taforge/config.yaml"),
			"/etc/taforge/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Model == "" {
		config.LLM.Model = "qwen2.5:14b-instruct"
	}
	if config.LLM.FallbackModel == "" {
		config.LLM.FallbackModel = "llama3.1:8b-instruct"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.15
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "strategies"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768
	}
	if config.Database.BatchSize == 0 {
		config.Database.BatchSize = 100
	}
	if config.Database.SearchLimit == 0 {
		config.Database.SearchLimit = 5
	}

	if config.Fetcher.UserAgent == "" {
		config.Fetcher.UserAgent = "taforge/0.1 (+contact)"
	}
	if config.Fetcher.MinInterval == 0 {
		config.Fetcher.MinInterval = 600 * time.Millisecond
	}
	if config.Fetcher.Timeout == 0 {
		config.Fetcher.Timeout = 30 * time.Second
	}
	if config.Fetcher.MaxBodyBytes == 0 {
		config.Fetcher.MaxBodyBytes = 20 << 20
	}

	if config.Chunker.Size == 0 {
		config.Chunker.Size = 6000
	}
	if config.Chunker.Overlap == 0 {
		config.Chunker.Overlap = 500
	}
	if config.Chunker.MaxChunks == 0 {
		config.Chunker.MaxChunks = 12
	}

	if config.Extractor.MaxCandidates == 0 {
		config.Extractor.MaxCandidates = 50
	}

	if config.Dedup.Threshold == 0 {
		config.Dedup.Threshold = 0.85
	}

	if config.Confidence.Weights.Grounding == 0 &&
		config.Confidence.Weights.Reputation == 0 &&
		config.Confidence.Weights.Clarity == 0 {
		config.Confidence.Weights.Grounding = 0.5
		config.Confidence.Weights.Reputation = 0.3
		config.Confidence.Weights.Clarity = 0.2
	}

	if config.Pipeline.FetchConcurrency == 0 {
		config.Pipeline.FetchConcurrency = 4
	}
	if config.Pipeline.ExtractConcurrency == 0 {
		config.Pipeline.ExtractConcurrency = 2
	}

	if config.Search.MaxResults == 0 {
		config.Search.MaxResults = 10
	}

	if config.Storage.Root == "" {
		config.Storage.Root = "storage"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if key := os.Getenv("BRAVE_API_KEY"); key != "" {
		config.Search.BraveAPIKey = key
	}
	if ua := os.Getenv("RESEARCH_USER_AGENT"); ua != "" {
		config.Fetcher.UserAgent = ua
	}
}
