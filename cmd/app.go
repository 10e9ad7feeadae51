package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/taforge/taforge/pkg/chunker"
	"github.com/taforge/taforge/pkg/confidence"
	"github.com/taforge/taforge/pkg/config"
	"github.com/taforge/taforge/pkg/dedup"
	"github.com/taforge/taforge/pkg/extractor"
	"github.com/taforge/taforge/pkg/fetcher"
	"github.com/taforge/taforge/pkg/llm"
	"github.com/taforge/taforge/pkg/normalizer"
	"github.com/taforge/taforge/pkg/pipeline"
	"github.com/taforge/taforge/pkg/registry"
	"github.com/taforge/taforge/pkg/search"
	"github.com/taforge/taforge/pkg/store"
)

// app assembles the pipeline from config. Every command builds one; the
// components share the store and the politeness limiter through it.
type app struct {
	config     *config.Config
	log        zerolog.Logger
	registry   *registry.Static
	store      *store.Store
	fetcher    *fetcher.Fetcher
	normalizer *normalizer.Normalizer
	pipeline   *pipeline.Pipeline
}

func buildApp() (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("invalid config: %s: %s", problems[0].Field, problems[0].Message)
	}

	log := newLogger()

	reg := registry.Default()

	artifacts, err := store.NewWithConfig(cfg.StorageConfig(), log)
	if err != nil {
		return nil, err
	}

	fetch := fetcher.NewWithConfig(cfg.FetcherConfig(), nil, artifacts, log)

	client, err := llm.NewWithConfig(cfg.LLMConfig())
	if err != nil {
		return nil, fmt.Errorf("initializing model client: %w", err)
	}

	scorer := confidence.NewWithWeights(cfg.ConfidenceWeights())
	norm := normalizer.New(reg, artifacts, scorer)

	p := pipeline.NewWithConfig(cfg.PipelineConfig(), pipeline.Deps{
		Searcher:   search.NewWithConfig(cfg.SearchConfig()),
		Fetcher:    fetch,
		Chunker:    chunker.NewWithConfig(cfg.ChunkerConfig()),
		Extractor:  extractor.NewWithConfig(cfg.ExtractorConfig(), client, reg, log),
		Dedup:      dedup.NewWithConfig(cfg.DedupConfig(), reg),
		Normalizer: norm,
		Store:      artifacts,
		Registry:   reg,
		Log:        log,
	})

	return &app{
		config:     cfg,
		log:        log,
		registry:   reg,
		store:      artifacts,
		fetcher:    fetch,
		normalizer: norm,
		pipeline:   p,
	}, nil
}
