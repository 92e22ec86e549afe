package lexicon

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// Schema creates the lexicon tables. The vector column is untyped so corpora may differ in dimension.
const Schema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS lexicon_corpora (
	corpus    TEXT PRIMARY KEY,
	documents INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS lexicon_terms (
	corpus TEXT NOT NULL REFERENCES lexicon_corpora (corpus) ON DELETE CASCADE,
	term   TEXT NOT NULL,
	idf    DOUBLE PRECISION NOT NULL,
	vector vector,
	PRIMARY KEY (corpus, term)
);
`

// PostgresStore keeps IDF weights and word vectors per reference corpus.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs the store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate applies Schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate lexicon: %w", err)
	}
	return nil
}

// Load reads the full IDF table of corpus.
func (s *PostgresStore) Load(ctx context.Context, corpus string) (*Table, error) {
	var documents int
	err := s.pool.QueryRow(ctx, `SELECT documents FROM lexicon_corpora WHERE corpus = $1`, corpus).Scan(&documents)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("corpus %q: %w", corpus, ErrNoDocuments)
	}
	if err != nil {
		return nil, fmt.Errorf("load corpus %q: %w", corpus, err)
	}

	rows, err := s.pool.Query(ctx, `SELECT term, idf FROM lexicon_terms WHERE corpus = $1`, corpus)
	if err != nil {
		return nil, fmt.Errorf("load lexicon terms: %w", err)
	}
	defer rows.Close()
	weights := make(map[string]float64)
	for rows.Next() {
		var (
			term string
			idf  float64
		)
		if err := rows.Scan(&term, &idf); err != nil {
			return nil, err
		}
		weights[term] = idf
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return NewTable(weights, documents), nil
}

// Upsert replaces the corpus size and merges the table's weights.
func (s *PostgresStore) Upsert(ctx context.Context, corpus string, t *Table) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO lexicon_corpora (corpus, documents) VALUES ($1, $2)
		ON CONFLICT (corpus) DO UPDATE SET documents = EXCLUDED.documents
	`, corpus, t.Documents()); err != nil {
		return fmt.Errorf("upsert corpus: %w", err)
	}

	batch := &pgx.Batch{}
	for term, idf := range t.weights {
		batch.Queue(`
			INSERT INTO lexicon_terms (corpus, term, idf) VALUES ($1, $2, $3)
			ON CONFLICT (corpus, term) DO UPDATE SET idf = EXCLUDED.idf
		`, corpus, term, idf)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert lexicon terms: %w", err)
	}
	return tx.Commit(ctx)
}

// Vectors returns the stored vectors of the requested terms; terms without one are absent.
func (s *PostgresStore) Vectors(ctx context.Context, corpus string, terms []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(terms))
	if len(terms) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT term, vector
		FROM lexicon_terms
		WHERE corpus = $1 AND term = ANY($2) AND vector IS NOT NULL
	`, corpus, terms)
	if err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			term string
			vec  pgvector.Vector
		)
		if err := rows.Scan(&term, &vec); err != nil {
			return nil, err
		}
		out[term] = vec.Slice()
	}
	return out, rows.Err()
}

// UpsertVectors attaches vectors to existing terms.
func (s *PostgresStore) UpsertVectors(ctx context.Context, corpus string, vectors map[string][]float32) error {
	batch := &pgx.Batch{}
	for term, vec := range vectors {
		batch.Queue(`
			UPDATE lexicon_terms SET vector = $3 WHERE corpus = $1 AND term = $2
		`, corpus, term, pgvector.NewVector(vec))
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	return nil
}
