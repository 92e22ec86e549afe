package summaryrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/yanqian/newsdigest/internal/domain/summarizer"
)

// Schema creates the summaries table.
const Schema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS summaries (
	id         UUID PRIMARY KEY,
	topic_id   TEXT NOT NULL,
	method     TEXT NOT NULL,
	body       TEXT NOT NULL,
	word_count INTEGER NOT NULL,
	sentences  JSONB NOT NULL,
	centroid   vector,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS summaries_topic_idx ON summaries (topic_id, created_at DESC);
`

// PostgresRepository implements summarizer.Repository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate applies Schema.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate summaries: %w", err)
	}
	return nil
}

// Save implements summarizer.Repository.
func (r *PostgresRepository) Save(ctx context.Context, s summarizer.Summary) error {
	sentences, err := json.Marshal(s.Sentences)
	if err != nil {
		return fmt.Errorf("encode sentences: %w", err)
	}
	var centroid any
	if len(s.Centroid) > 0 {
		centroid = pgvector.NewVector(s.Centroid)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO summaries (id, topic_id, method, body, word_count, sentences, centroid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, s.ID, s.TopicID, s.Method, s.Text, s.WordCount, sentences, centroid, s.CreatedAt)
	return err
}

// Get implements summarizer.Repository.
func (r *PostgresRepository) Get(ctx context.Context, id string) (summarizer.Summary, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id::text, topic_id, method, body, word_count, sentences, centroid, created_at
		FROM summaries
		WHERE id::text = $1
	`, id)
	s, err := scanSummary(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return summarizer.Summary{}, summarizer.ErrNotFound
	}
	return s, err
}

// Latest returns the most recent summary of a topic.
func (r *PostgresRepository) Latest(ctx context.Context, topicID string) (summarizer.Summary, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id::text, topic_id, method, body, word_count, sentences, centroid, created_at
		FROM summaries
		WHERE topic_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, topicID)
	s, err := scanSummary(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return summarizer.Summary{}, summarizer.ErrNotFound
	}
	return s, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (summarizer.Summary, error) {
	var (
		s         summarizer.Summary
		sentences []byte
		centroid  *pgvector.Vector
	)
	if err := row.Scan(&s.ID, &s.TopicID, &s.Method, &s.Text, &s.WordCount, &sentences, &centroid, &s.CreatedAt); err != nil {
		return summarizer.Summary{}, err
	}
	if err := json.Unmarshal(sentences, &s.Sentences); err != nil {
		return summarizer.Summary{}, fmt.Errorf("decode sentences: %w", err)
	}
	if centroid != nil {
		s.Centroid = centroid.Slice()
	}
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}

var _ summarizer.Repository = (*PostgresRepository)(nil)
