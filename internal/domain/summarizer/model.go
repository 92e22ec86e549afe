package summarizer

import (
	"context"
	"errors"
	"time"

	"github.com/yanqian/newsdigest/internal/domain/ordering"
	"github.com/yanqian/newsdigest/internal/domain/realization"
	"github.com/yanqian/newsdigest/internal/domain/selection"
)

// ErrNotFound is returned by repositories for unknown summary ids.
var ErrNotFound = errors.New("summary not found")

// Config bundles the configuration of every pipeline stage.
type Config struct {
	Selection   selection.Config
	Realization realization.Config
	Ordering    ordering.Config
	// Workers bounds how many topics SummarizeAll processes at once.
	Workers int
}

// DefaultConfig returns the per-article pipeline with a 100-word quota.
func DefaultConfig() Config {
	return Config{
		Selection:   selection.DefaultConfig(),
		Realization: realization.DefaultConfig(),
		Ordering:    ordering.DefaultConfig(),
		Workers:     4,
	}
}

// Summary is the ordered, word-budgeted result for one topic.
type Summary struct {
	ID        string     `json:"id"`
	TopicID   string     `json:"topicId"`
	Method    string     `json:"method"`
	Sentences []Sentence `json:"sentences"`
	Text      string     `json:"text"`
	WordCount int        `json:"wordCount"`
	CreatedAt time.Time  `json:"createdAt"`
	// Centroid is the mean embedding of the chosen sentences, nil without vectors.
	Centroid []float32 `json:"-"`
}

// Sentence is one realized summary sentence with its provenance.
type Sentence struct {
	Text      string  `json:"text"`
	Original  string  `json:"original"`
	ArticleID string  `json:"articleId"`
	Index     int     `json:"index"`
	Score     float64 `json:"score"`
}

// Repository persists produced summaries.
type Repository interface {
	Save(ctx context.Context, summary Summary) error
	Get(ctx context.Context, id string) (Summary, error)
	// Latest returns the most recently created summary of a topic.
	Latest(ctx context.Context, topicID string) (Summary, error)
}
