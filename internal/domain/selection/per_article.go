package selection

import (
	"context"
	"log/slog"
	"sort"

	"github.com/yanqian/newsdigest/internal/domain/content"
	"github.com/yanqian/newsdigest/internal/domain/docgroup"
	"github.com/yanqian/newsdigest/internal/domain/features"
)

type perArticle struct {
	cfg    Config
	idf    features.IDF
	filter eligibility
	logger *slog.Logger
}

// Select keeps the top K sentences of each article, emitted in their original article order.
func (p *perArticle) Select(_ context.Context, group *docgroup.Group) ([]*content.Item, error) {
	sc := newScorer(p.cfg.Weights, group)
	var items []*content.Item

	for _, article := range group.Articles {
		scope := article.Sentences()
		if article.Headline != nil {
			scope = append(append([]*docgroup.Sentence(nil), scope...), article.Headline)
		}
		tables := features.BuildTables(scope...)

		var cands []candidate
		for _, s := range article.Sentences() {
			if p.filter.ok(s) {
				cands = append(cands, newCandidate(s, article))
			}
		}
		bias, err := blendBias(p.cfg, group, cands, p.idf)
		if err != nil {
			return nil, err
		}

		scores := make([]float64, len(cands))
		order := make([]int, len(cands))
		for i, c := range cands {
			scores[i] = sc.score(tables, c, bias[i])
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
		if len(order) > p.cfg.PerArticle {
			order = order[:p.cfg.PerArticle]
		}
		sort.Ints(order)
		for _, i := range order {
			items = append(items, content.New(cands[i].sentence, article, scores[i]))
		}
	}

	p.logger.Debug("selection finished", "topic", group.TopicID, "selected", len(items))
	return items, nil
}
