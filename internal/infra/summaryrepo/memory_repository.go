package summaryrepo

import (
	"context"
	"sync"

	"github.com/yanqian/newsdigest/internal/domain/summarizer"
)

// MemoryRepository is an in-memory summarizer.Repository used for tests/dev.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]summarizer.Summary
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]summarizer.Summary)}
}

// Save implements summarizer.Repository.
func (r *MemoryRepository) Save(_ context.Context, summary summarizer.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	summary.Sentences = append([]summarizer.Sentence(nil), summary.Sentences...)
	r.records[summary.ID] = summary
	return nil
}

// Get implements summarizer.Repository.
func (r *MemoryRepository) Get(_ context.Context, id string) (summarizer.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	summary, ok := r.records[id]
	if !ok {
		return summarizer.Summary{}, summarizer.ErrNotFound
	}
	return summary, nil
}

// Latest implements summarizer.Repository.
func (r *MemoryRepository) Latest(_ context.Context, topicID string) (summarizer.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		latest summarizer.Summary
		found  bool
	)
	for _, summary := range r.records {
		if summary.TopicID != topicID {
			continue
		}
		if !found || summary.CreatedAt.After(latest.CreatedAt) {
			latest, found = summary, true
		}
	}
	if !found {
		return summarizer.Summary{}, summarizer.ErrNotFound
	}
	return latest, nil
}

var _ summarizer.Repository = (*MemoryRepository)(nil)
