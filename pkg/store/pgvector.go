package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/taforge/taforge/internal/models"
	"github.com/taforge/taforge/internal/types"
)

// Index is an optional Postgres-backed similarity index over normalized
// strategies: canonical rule text is embedded so the corpus can be queried
// with free-text questions ("mean reversion with RSI"). The file store
// stays the source of truth; the index is derived and rebuildable.
type Index struct {
	config   types.DatabaseConfig
	pool     *pgxpool.Pool
	embedder types.Embedder
}

func NewIndex(ctx context.Context, config types.DatabaseConfig, embedder types.Embedder) (*Index, error) {
	if config.TableName == "" {
		config.TableName = "strategies"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
	if config.SearchLimit == 0 {
		config.SearchLimit = 5
	}

	pool, err := pgxpool.New(ctx, config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	ix := &Index{config: config, pool: pool, embedder: embedder}
	if err := ix.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return ix, nil
}

func (ix *Index) initialize(ctx context.Context) error {
	if _, err := ix.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			signature TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			timeframe TEXT,
			rules TEXT,
			confidence DOUBLE PRECISION,
			embedding vector(%d),
			record JSONB
		)`, ix.config.TableName, ix.config.VectorDim)
	if _, err := ix.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		ix.config.TableName, ix.config.TableName)
	if _, err := ix.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// Upsert indexes strategies by signature. Re-indexing the same signature
// replaces the row; content is identical by construction since signatures
// are content hashes.
func (ix *Index) Upsert(ctx context.Context, strategies []models.Strategy) error {
	tx, err := ix.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (signature, name, timeframe, rules, confidence, embedding, record)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (signature) DO UPDATE SET
			confidence = EXCLUDED.confidence,
			embedding = EXCLUDED.embedding,
			record = EXCLUDED.record`,
		ix.config.TableName)

	for _, strategy := range strategies {
		rules := ruleText(strategy)
		embeddings, err := ix.embedder.CreateEmbedding(ctx, []string{rules})
		if err != nil {
			return fmt.Errorf("failed to create embedding: %w", err)
		}
		if len(embeddings) == 0 {
			return fmt.Errorf("embedder returned no vector for %s", strategy.Signature)
		}

		record, err := json.Marshal(strategy)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, stmt,
			strategy.Signature,
			strategy.Name,
			strategy.Timeframe,
			rules,
			strategy.Confidence,
			pgvector.NewVector(embeddings[0]),
			record,
		); err != nil {
			return fmt.Errorf("failed to index strategy: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Similar returns the strategies whose rule text is closest to the query.
func (ix *Index) Similar(ctx context.Context, query string, limit int) ([]models.Strategy, error) {
	if limit == 0 {
		limit = ix.config.SearchLimit
	}

	embeddings, err := ix.embedder.CreateEmbedding(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for query")
	}

	sql := fmt.Sprintf(`
		SELECT record
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`, ix.config.TableName)

	rows, err := ix.pool.Query(ctx, sql, pgvector.NewVector(embeddings[0]), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query strategies: %w", err)
	}
	defer rows.Close()

	var out []models.Strategy
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var strategy models.Strategy
		if err := json.Unmarshal(record, &strategy); err != nil {
			return nil, err
		}
		out = append(out, strategy)
	}
	return out, rows.Err()
}

func (ix *Index) Close() {
	if ix.pool != nil {
		ix.pool.Close()
	}
}

func ruleText(s models.Strategy) string {
	parts := make([]string, 0, len(s.EntryRules)+len(s.ExitRules))
	parts = append(parts, s.EntryRules...)
	parts = append(parts, s.ExitRules...)
	return strings.Join(parts, "\n")
}
