package selection

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/yanqian/newsdigest/internal/domain/content"
	"github.com/yanqian/newsdigest/internal/domain/docgroup"
	"github.com/yanqian/newsdigest/internal/domain/features"
	"github.com/yanqian/newsdigest/internal/domain/lexrank"
	"github.com/yanqian/newsdigest/internal/domain/similarity"
)

type graphRank struct {
	cfg     Config
	idf     features.IDF
	builder *similarity.Builder
	filter  eligibility
	logger  *slog.Logger
}

// Select ranks eligible sentences by stationary probability and keeps the global count best.
func (g *graphRank) Select(ctx context.Context, group *docgroup.Group) ([]*content.Item, error) {
	var cands []candidate
	for _, a := range group.Articles {
		for _, s := range a.Sentences() {
			if g.filter.ok(s) && g.comparable(s) {
				cands = append(cands, newCandidate(s, a))
			}
		}
	}
	if len(cands) == 0 {
		return nil, nil
	}

	nodes := sentencesOf(cands)
	if g.cfg.IncludeHeadlines {
		for _, h := range group.Headlines() {
			if g.comparable(h) {
				nodes = append(nodes, h)
			}
		}
	}
	if g.builder.Metric() == similarity.MetricParaphrase && len(nodes) > g.cfg.MaxParaphrasePool {
		return nil, fmt.Errorf("%w: %d > %d", ErrPoolTooLarge, len(nodes), g.cfg.MaxParaphrasePool)
	}

	sim, err := g.builder.Matrix(ctx, nodes)
	if err != nil {
		return nil, fmt.Errorf("build similarity matrix: %w", err)
	}
	bias, err := lexrank.Bias(g.cfg.Bias, group.Query(), nodes, g.idf)
	if err != nil {
		return nil, err
	}
	ranks, err := lexrank.Rank(sim, g.cfg.Rank, bias)
	if err != nil {
		return nil, fmt.Errorf("rank sentences: %w", err)
	}

	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return ranks[order[a]] > ranks[order[b]] })
	if len(order) > g.cfg.GlobalCount {
		order = order[:g.cfg.GlobalCount]
	}
	items := make([]*content.Item, 0, len(order))
	for _, i := range order {
		items = append(items, content.New(cands[i].sentence, cands[i].article, ranks[i]))
	}

	g.logger.Debug("selection finished", "topic", group.TopicID, "nodes", len(nodes), "selected", len(items))
	return items, nil
}

// comparable excludes sentences that would produce an empty similarity row.
func (g *graphRank) comparable(s *docgroup.Sentence) bool {
	switch g.builder.Metric() {
	case similarity.MetricBagOfWords:
		return len(features.Terms(s)) > 0
	case similarity.MetricVector:
		return features.MeanVector(s, g.idf) != nil
	default:
		return true
	}
}
