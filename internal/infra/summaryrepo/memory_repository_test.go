package summaryrepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/newsdigest/internal/domain/summarizer"
)

func TestMemoryRepository(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	require.ErrorIs(t, err, summarizer.ErrNotFound)

	sentences := []summarizer.Sentence{{Text: "Floyd grew.", ArticleID: "A1"}}
	require.NoError(t, repo.Save(ctx, summarizer.Summary{ID: "s1", TopicID: "D1", Sentences: sentences}))
	sentences[0].Text = "changed"

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "D1", got.TopicID)
	require.Equal(t, "Floyd grew.", got.Sentences[0].Text)
}

func TestMemoryRepository_Latest(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, summarizer.Summary{ID: "old", TopicID: "D1", CreatedAt: base}))
	require.NoError(t, repo.Save(ctx, summarizer.Summary{ID: "new", TopicID: "D1", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, repo.Save(ctx, summarizer.Summary{ID: "other", TopicID: "D2", CreatedAt: base.Add(time.Hour)}))

	got, err := repo.Latest(ctx, "D1")
	require.NoError(t, err)
	require.Equal(t, "new", got.ID)

	_, err = repo.Latest(ctx, "D3")
	require.ErrorIs(t, err, summarizer.ErrNotFound)
}
