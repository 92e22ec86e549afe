package selection

import (
	"context"
	"log/slog"

	"github.com/yanqian/newsdigest/internal/domain/content"
	"github.com/yanqian/newsdigest/internal/domain/docgroup"
)

const (
	leadScore    = 1.0
	closingScore = 0.5
)

type baseline struct {
	logger *slog.Logger
}

// Select takes the first sentence of the first and of the last paragraph of each article.
func (b *baseline) Select(_ context.Context, group *docgroup.Group) ([]*content.Item, error) {
	var items []*content.Item
	for _, a := range group.Articles {
		paras := nonEmpty(a.Paragraphs)
		if len(paras) == 0 {
			continue
		}
		items = append(items, content.New(paras[0][0], a, leadScore))
		if len(paras) > 1 {
			items = append(items, content.New(paras[len(paras)-1][0], a, closingScore))
		}
	}
	b.logger.Debug("selection finished", "topic", group.TopicID, "selected", len(items))
	return items, nil
}

func nonEmpty(paragraphs [][]*docgroup.Sentence) [][]*docgroup.Sentence {
	out := make([][]*docgroup.Sentence, 0, len(paragraphs))
	for _, p := range paragraphs {
		if len(p) > 0 {
			out = append(out, p)
		}
	}
	return out
}
