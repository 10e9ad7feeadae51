// Package pipeline wires the discovery flow end to end: plan queries,
// search, fetch politely, chunk, extract, dedupe, normalize, score, store.
// Acquisition and extraction failures are per-unit: they are counted and
// logged as skips, never aborting the run. Fetches parallelize up to one
// cap while sharing a single politeness limiter; extraction parallelizes
// across chunks up to an independent cap.
package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/taforge/taforge/internal/models"
	"github.com/taforge/taforge/internal/types"
	"github.com/taforge/taforge/pkg/chunker"
	"github.com/taforge/taforge/pkg/dedup"
	"github.com/taforge/taforge/pkg/extractor"
	"github.com/taforge/taforge/pkg/fetcher"
	"github.com/taforge/taforge/pkg/llm"
	"github.com/taforge/taforge/pkg/normalizer"
	"github.com/taforge/taforge/pkg/planner"
	"github.com/taforge/taforge/pkg/store"
)

// Skip reasons surfaced in the run report. No error disappears without one
// of these counters moving.
const (
	SkipPolicyDenied = "policy_denied"
	SkipTimeout      = "timeout"
	SkipUnsupported  = "unsupported_content_type"
	SkipParseFailure = "parse_failure"
	SkipValidation   = "schema_validation"
	SkipStorage      = "storage"
	SkipDuplicate    = "duplicate_content"
	SkipOther        = "other"
)

type Report struct {
	Queries       int            `json:"queries"`
	CandidateURLs int            `json:"candidate_urls"`
	Documents     int            `json:"documents"`
	Skipped       map[string]int `json:"skipped"`
	Candidates    int            `json:"candidates"`
	DroppedSpans  int64          `json:"dropped_spans"`
	StrategyURIs  []string       `json:"strategy_uris"`
	Truncated     int            `json:"truncated_documents"`
}

// ProgressFunc receives coarse stage updates for UIs. It is scoped to one
// Discover call, so concurrent runs on a shared Pipeline stay independent.
type ProgressFunc func(stage, detail string)

type Pipeline struct {
	config     types.PipelineConfig
	searcher   types.Searcher
	fetcher    *fetcher.Fetcher
	chunker    chunker.Chunker
	extractor  *extractor.Extractor
	dedup      dedup.Deduplicator
	normalizer *normalizer.Normalizer
	store      *store.Store
	registry   types.Registry
	log        zerolog.Logger
}

type Deps struct {
	Searcher   types.Searcher
	Fetcher    *fetcher.Fetcher
	Chunker    chunker.Chunker
	Extractor  *extractor.Extractor
	Dedup      dedup.Deduplicator
	Normalizer *normalizer.Normalizer
	Store      *store.Store
	Registry   types.Registry
	Log        zerolog.Logger
}

func NewWithConfig(config types.PipelineConfig, deps Deps) *Pipeline {
	if config.FetchConcurrency == 0 {
		config.FetchConcurrency = 4
	}
	if config.ExtractConcurrency == 0 {
		config.ExtractConcurrency = 2
	}
	return &Pipeline{
		config:     config,
		searcher:   deps.Searcher,
		fetcher:    deps.Fetcher,
		chunker:    deps.Chunker,
		extractor:  deps.Extractor,
		dedup:      deps.Dedup,
		normalizer: deps.Normalizer,
		store:      deps.Store,
		registry:   deps.Registry,
		log:        deps.Log,
	}
}

// Discover runs the full pipeline for a topic. The returned error is only
// non-nil for context cancellation; everything else is reported as skips.
// progress may be nil.
func (p *Pipeline) Discover(ctx context.Context, topic string, indicators []string, maxPerIndicator int, sourceHint string, progress ProgressFunc) (*Report, error) {
	report := &Report{Skipped: make(map[string]int)}
	droppedBefore := p.extractor.DroppedSpanCount()

	queries := planner.Plan(topic, indicators, maxPerIndicator, sourceHint, p.registry)
	report.Queries = len(queries)
	notify(progress, "plan", "planned queries")

	urls := p.collectCandidates(ctx, queries, sourceHint, report)
	report.CandidateURLs = len(urls)
	notify(progress, "search", "collected candidate documents")

	var mu sync.Mutex
	seenContent := make(map[string]bool)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.config.FetchConcurrency)

	for _, url := range urls {
		url := url
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			doc, err := p.fetcher.Fetch(groupCtx, url)
			if err != nil {
				p.recordSkip(&mu, report, url, err)
				return nil
			}

			// Identical content behind a different URL collapses to the
			// already-processed artifact.
			mu.Lock()
			if seenContent[doc.Fingerprint] {
				report.Skipped[SkipDuplicate]++
				mu.Unlock()
				return nil
			}
			seenContent[doc.Fingerprint] = true
			mu.Unlock()

			uri, candidates, truncated, err := p.processDocument(groupCtx, doc, indicators, progress)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Skipped[classify(err)]++
				p.log.Warn().Str("url", url).Err(err).Msg("document skipped")
				return nil
			}
			report.Documents++
			report.Candidates += candidates
			if truncated {
				report.Truncated++
			}
			if uri != "" {
				report.StrategyURIs = append(report.StrategyURIs, uri)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return report, err
	}

	// The extractor's counter is cumulative; the report covers this run only.
	report.DroppedSpans = p.extractor.DroppedSpanCount() - droppedBefore
	notify(progress, "done", "discovery finished")
	return report, nil
}

// ProcessDocument runs chunk -> extract -> dedup -> normalize -> store for
// one already-fetched document and returns the normalized strategy URI.
func (p *Pipeline) ProcessDocument(ctx context.Context, doc models.Document, indicators []string) (string, error) {
	uri, _, _, err := p.processDocument(ctx, doc, indicators, nil)
	return uri, err
}

func (p *Pipeline) processDocument(ctx context.Context, doc models.Document, indicators []string, progress ProgressFunc) (string, int, bool, error) {
	set := p.chunker.Split(doc)
	if set.Truncated {
		p.log.Info().Str("url", doc.URL).Int("chunks", len(set.Chunks)).Msg("document truncated at chunk cap")
	}

	var mu sync.Mutex
	var candidates []models.RuleCandidate

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.config.ExtractConcurrency)
	for _, chunk := range set.Chunks {
		chunk := chunk
		group.Go(func() error {
			found, err := p.extractor.Extract(groupCtx, chunk, indicators)
			if err != nil {
				return err
			}
			mu.Lock()
			candidates = append(candidates, found...)
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return "", 0, set.Truncated, err
	}

	merged := p.dedup.Dedupe(candidates)
	if len(merged) == 0 {
		return "", 0, set.Truncated, nil
	}

	_, uri, err := p.normalizer.Normalize(normalizer.Input{
		Description: "Extracted from " + doc.URL,
		Candidates:  merged,
		SourceURL:   doc.URL,
	})
	if err != nil {
		return "", len(merged), set.Truncated, err
	}
	notify(progress, "normalize", doc.URL)
	return uri, len(merged), set.Truncated, nil
}

func (p *Pipeline) collectCandidates(ctx context.Context, queries []string, sourceHint string, report *Report) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, query := range queries {
		results, err := p.searcher.Search(ctx, query, 0, sourceHint)
		if err != nil {
			p.log.Warn().Str("query", query).Err(err).Msg("search backend failed, continuing")
			report.Skipped[SkipOther]++
			continue
		}
		for _, r := range results {
			if r.URL != "" && !seen[r.URL] {
				seen[r.URL] = true
				urls = append(urls, r.URL)
			}
		}
	}
	return urls
}

func (p *Pipeline) recordSkip(mu *sync.Mutex, report *Report, url string, err error) {
	mu.Lock()
	defer mu.Unlock()
	report.Skipped[classify(err)]++
	p.log.Warn().Str("url", url).Err(err).Msg("fetch skipped")
}

func classify(err error) string {
	switch {
	case errors.Is(err, fetcher.ErrPolicyDenied):
		return SkipPolicyDenied
	case errors.Is(err, fetcher.ErrFetchTimeout):
		return SkipTimeout
	case errors.Is(err, fetcher.ErrUnsupportedContentType):
		return SkipUnsupported
	case errors.Is(err, fetcher.ErrParseFailure):
		return SkipParseFailure
	case errors.Is(err, store.ErrWriteConflict):
		return SkipStorage
	case isValidation(err):
		return SkipValidation
	case errors.Is(err, llm.ErrModelUnavailable):
		return SkipOther
	default:
		return SkipOther
	}
}

func isValidation(err error) bool {
	var ve *normalizer.SchemaValidationError
	return errors.As(err, &ve)
}

func notify(progress ProgressFunc, stage, detail string) {
	if progress != nil {
		progress(stage, detail)
	}
}
