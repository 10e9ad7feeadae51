package models

import "time"

// SchemaVersion tags every persisted Strategy. Bump only with a migration.
const SchemaVersion = "strategy.v1"

// Document is an immutable fetched source, identified by the SHA-256
// fingerprint of its extracted text.
type Document struct {
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"` // "html", "pdf" or "text"
	Text        string    `json:"text"`
	Fingerprint string    `json:"fingerprint"`
	FetchedAt   time.Time `json:"fetched_at"`
	HTTPStatus  int       `json:"http_status"`
}

// Chunk is a bounded slice of a Document's text. Start/End are character
// offsets into the parent's original text, never into a re-encoded copy.
type Chunk struct {
	DocumentFingerprint string `json:"document_fingerprint"`
	Index               int    `json:"index"`
	Start               int    `json:"start"`
	End                 int    `json:"end"`
	Text                string `json:"text"`
}

// ChunkSet is the ordered result of chunking one document. Truncated is set
// when the chunk cap was hit and extraction proceeds on a prefix.
type ChunkSet struct {
	Chunks    []Chunk `json:"chunks"`
	Truncated bool    `json:"truncated"`
}

// EvidenceSpan ties an extracted rule back to the literal text it came from.
// Quote must equal document text at [Start:End) at extraction time.
type EvidenceSpan struct {
	DocumentFingerprint string `json:"document_fingerprint"`
	Start               int    `json:"start"`
	End                 int    `json:"end"`
	Quote               string `json:"quote"`
}

// Candidate provenance paths.
const (
	CandidateFromModel   = "model"
	CandidateFromPattern = "pattern"
)

// Rule directions.
const (
	DirectionEntry = "entry"
	DirectionExit  = "exit"
	DirectionLong  = "long"
	DirectionShort = "short"
)

// RuleCandidate is a single unvalidated extracted rule: either a
// comparator rule (Indicator Comparator Threshold) or a structured
// directive such as a trailing stop with named parameters.
type RuleCandidate struct {
	Indicator  string             `json:"indicator"`
	Comparator string             `json:"comparator,omitempty"` // gt, lt, gte, lte, cross_above, cross_below
	Threshold  *float64           `json:"threshold,omitempty"`
	Directive  string             `json:"directive,omitempty"` // e.g. "trailing_stop"
	Params     map[string]float64 `json:"params,omitempty"`
	Direction  string             `json:"direction"`
	Spans      []EvidenceSpan     `json:"spans"`
	Raw        string             `json:"raw"`
	Timeframe  string             `json:"timeframe,omitempty"`
	Origin     string             `json:"origin"`          // "model" or "pattern"
	Flags      []string           `json:"flags,omitempty"` // coercion/parse ambiguity markers
}

// IndicatorRef is a canonicalized indicator reference. Unknown marks names
// the registry could not resolve; they are retained, never dropped.
type IndicatorRef struct {
	Name    string             `json:"name"`
	Params  map[string]float64 `json:"params"`
	Unknown bool               `json:"unknown,omitempty"`
}

// Source is the uniform shape every upstream source reference is coerced to.
type Source struct {
	URL     string `json:"url"`
	DOI     string `json:"doi,omitempty"`
	License string `json:"license,omitempty"`
}

// Strategy is the canonical, schema-versioned output record. Signature is a
// deterministic hash over canonical indicators, sorted rule strings and the
// universe; it doubles as dedup key and storage key.
type Strategy struct {
	SchemaVersion  string             `json:"schema_version"`
	Signature      string             `json:"signature"`
	Name           string             `json:"name"`
	Description    string             `json:"description"`
	Universe       []string           `json:"universe"`
	Timeframe      string             `json:"timeframe"`
	Indicators     []IndicatorRef     `json:"indicators"`
	EntryRules     []string           `json:"entry_rules"`
	ExitRules      []string           `json:"exit_rules"`
	PositionSizing map[string]any     `json:"position_sizing,omitempty"`
	Defaults       map[string]any     `json:"defaults,omitempty"`
	BacktestHints  map[string]any     `json:"backtest_hints,omitempty"`
	Sources        []Source           `json:"sources"`
	Evidence       []EvidenceSpan     `json:"evidence,omitempty"`
	Confidence     float64            `json:"confidence"`
}

// Evaluation is the backtest metrics block attached by the downstream
// engine. The core stores it verbatim and does not interpret the values.
type Evaluation struct {
	Sharpe      float64 `json:"sharpe"`
	CAGR        float64 `json:"cagr"`
	MaxDrawdown float64 `json:"max_drawdown"`
	TailRisk    float64 `json:"tail_risk"`
	HitRate     float64 `json:"hit_rate"`
	Exposure    float64 `json:"exposure"`
}

// ResultsBundle is an append-only manifest of normalized strategies,
// optionally carrying evaluations keyed by strategy signature.
type ResultsBundle struct {
	ID          string                `json:"id"`
	Strategies  []string              `json:"strategies"` // research://normalized/... URIs
	CreatedAt   int64                 `json:"created_ts"`
	Evaluations map[string]Evaluation `json:"evaluations,omitempty"`
}

// SearchResult is one discovery candidate from a search backend.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}
