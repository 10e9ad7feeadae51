// Package store persists pipeline artifacts content-addressably under one
// root directory: raw document text keyed by fingerprint, normalized
// strategies keyed by signature, and results bundles. URIs use the
// research:// scheme consumed by downstream services and must stay stable
// bit-for-bit.
//
// Writes are idempotent for identical content and atomic (temp file +
// rename), so a concurrent duplicate writer can never leave a partially
// written artifact behind. Two writers disagreeing on content for the same
// identifier is a conflict and is never resolved by overwriting.
package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taforge/taforge/internal/models"
	"github.com/taforge/taforge/internal/types"
)

var (
	// ErrWriteConflict means an artifact with this identifier already
	// exists with different content. Fatal: the caller must not retry.
	ErrWriteConflict = errors.New("storage write conflict")
	ErrNotFound      = errors.New("artifact not found")
)

const uriScheme = "research://"

type Store struct {
	root string
	mu   sync.Mutex
	log  zerolog.Logger
}

func NewWithConfig(config types.StorageConfig, log zerolog.Logger) (*Store, error) {
	if config.Root == "" {
		config.Root = "storage"
	}
	for _, kind := range []string{"raw", "normalized", "results"} {
		if err := os.MkdirAll(filepath.Join(config.Root, kind), 0o755); err != nil {
			return nil, fmt.Errorf("initializing storage: %w", err)
		}
	}
	return &Store{root: config.Root, log: log}, nil
}

// WriteRaw persists document text keyed by its content fingerprint. A
// second write of identical text is a no-op returning the same URI.
func (s *Store) WriteRaw(text string) (string, string, error) {
	sum := sha256.Sum256([]byte(text))
	fingerprint := hex.EncodeToString(sum[:])
	key := fingerprint + ".txt"

	if err := s.write("raw", key, []byte(text)); err != nil {
		return "", "", err
	}
	return uriScheme + "raw/" + key, fingerprint, nil
}

func (s *Store) ReadRaw(fingerprint string) (string, error) {
	data, err := s.read("raw", fingerprint+".txt")
	return string(data), err
}

// WriteStrategy persists a validated strategy under its signature.
func (s *Store) WriteStrategy(strategy models.Strategy) (string, error) {
	if strategy.Signature == "" {
		return "", fmt.Errorf("%w: strategy has no signature", ErrWriteConflict)
	}
	data, err := json.MarshalIndent(strategy, "", "  ")
	if err != nil {
		return "", err
	}
	key := strategy.Signature + ".json"
	if err := s.write("normalized", key, data); err != nil {
		return "", err
	}
	return uriScheme + "normalized/" + key, nil
}

func (s *Store) ReadStrategy(signature string) (models.Strategy, error) {
	data, err := s.read("normalized", signature+".json")
	if err != nil {
		return models.Strategy{}, err
	}
	var strategy models.Strategy
	if err := json.Unmarshal(data, &strategy); err != nil {
		return models.Strategy{}, err
	}
	return strategy, nil
}

// ListStrategies loads every normalized strategy on disk, for reindexing.
func (s *Store) ListStrategies() ([]models.Strategy, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, "normalized"))
	if err != nil {
		return nil, err
	}
	var out []models.Strategy
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		strategy, err := s.ReadStrategy(strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}
		out = append(out, strategy)
	}
	return out, nil
}

// BundleResults writes an append-only manifest referencing normalized
// strategies.
func (s *Store) BundleResults(strategyURIs []string) (models.ResultsBundle, string, error) {
	bundle := models.ResultsBundle{
		ID:         uuid.NewString(),
		Strategies: append([]string(nil), strategyURIs...),
		CreatedAt:  time.Now().Unix(),
	}
	uri, err := s.writeBundle(bundle)
	return bundle, uri, err
}

func (s *Store) ReadBundle(id string) (models.ResultsBundle, error) {
	data, err := s.read("results", id+".json")
	if err != nil {
		return models.ResultsBundle{}, err
	}
	var bundle models.ResultsBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return models.ResultsBundle{}, err
	}
	return bundle, nil
}

// AttachEvaluation adds a backtest evaluation block for one strategy to an
// existing bundle. Bundles are append-only: attaching a different block for
// an already-evaluated signature is a write conflict.
func (s *Store) AttachEvaluation(bundleID, signature string, eval models.Evaluation) (models.ResultsBundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bundle, err := s.ReadBundle(bundleID)
	if err != nil {
		return models.ResultsBundle{}, err
	}
	if bundle.Evaluations == nil {
		bundle.Evaluations = make(map[string]models.Evaluation)
	}
	if existing, ok := bundle.Evaluations[signature]; ok {
		if existing != eval {
			return models.ResultsBundle{}, fmt.Errorf("%w: evaluation for %s already attached", ErrWriteConflict, signature)
		}
		return bundle, nil
	}
	bundle.Evaluations[signature] = eval

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return models.ResultsBundle{}, err
	}
	if err := s.writeFile(filepath.Join(s.root, "results", bundle.ID+".json"), data); err != nil {
		return models.ResultsBundle{}, err
	}
	return bundle, nil
}

func (s *Store) writeBundle(bundle models.ResultsBundle) (string, error) {
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return "", err
	}
	key := bundle.ID + ".json"
	if err := s.write("results", key, data); err != nil {
		return "", err
	}
	return uriScheme + "results/" + key, nil
}

// write stores data under kind/key, tolerating identical rewrites and
// rejecting conflicting ones.
func (s *Store) write(kind, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.root, kind, key)
	if existing, err := os.ReadFile(path); err == nil {
		if bytes.Equal(existing, data) {
			return nil
		}
		return fmt.Errorf("%w: %s/%s exists with different content", ErrWriteConflict, kind, key)
	}
	return s.writeFile(path, data)
}

// writeFile writes atomically: a complete temp file renamed into place.
func (s *Store) writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	s.log.Debug().Str("path", path).Int("bytes", len(data)).Msg("artifact written")
	return nil
}

func (s *Store) read(kind, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, kind, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, kind, key)
	}
	return data, err
}
