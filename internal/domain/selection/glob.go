package selection

import (
	"context"
	"log/slog"

	"github.com/yanqian/newsdigest/internal/domain/content"
	"github.com/yanqian/newsdigest/internal/domain/docgroup"
	"github.com/yanqian/newsdigest/internal/domain/features"
)

// RankingState is the glob selector's state for one document group.
// Transitions return a new state; the receiver is left untouched.
type RankingState struct {
	Tables *features.Tables
	// Remaining holds indices of candidates still in the pool, in pool order.
	Remaining []int
}

// NewRankingState starts with every candidate in the pool.
func NewRankingState(tables *features.Tables, n int) RankingState {
	remaining := make([]int, n)
	for i := range remaining {
		remaining[i] = i
	}
	return RankingState{Tables: tables, Remaining: remaining}
}

// Drop removes the candidate at pool position pos without touching the tables.
func (s RankingState) Drop(pos int) RankingState {
	remaining := make([]int, 0, len(s.Remaining)-1)
	remaining = append(remaining, s.Remaining[:pos]...)
	remaining = append(remaining, s.Remaining[pos+1:]...)
	return RankingState{Tables: s.Tables, Remaining: remaining}
}

// Pick removes the candidate at pos and squares the probabilities its terms contributed.
func (s RankingState) Pick(pos int, terms []string) RankingState {
	next := s.Drop(pos)
	next.Tables = s.Tables.Reweighted(terms)
	return next
}

type glob struct {
	cfg    Config
	idf    features.IDF
	filter eligibility
	logger *slog.Logger
}

// Select greedily picks from the pooled candidates until the global count is reached.
func (g *glob) Select(_ context.Context, group *docgroup.Group) ([]*content.Item, error) {
	scope := group.Sentences()
	scope = append(scope, group.Headlines()...)
	tables := features.BuildTables(scope...)

	var cands []candidate
	for _, a := range group.Articles {
		for _, s := range a.Sentences() {
			if g.filter.ok(s) {
				cands = append(cands, newCandidate(s, a))
			}
		}
	}
	bias, err := blendBias(g.cfg, group, cands, g.idf)
	if err != nil {
		return nil, err
	}

	sc := newScorer(g.cfg.Weights, group)
	state := NewRankingState(tables, len(cands))
	var items []*content.Item
	for len(items) < g.cfg.GlobalCount && len(state.Remaining) > 0 {
		var item *content.Item
		state, item = g.step(state, sc, cands, bias)
		if item != nil {
			items = append(items, item)
		}
	}

	g.logger.Debug("selection finished", "topic", group.TopicID, "candidates", len(cands), "selected", len(items))
	return items, nil
}

// step scores the remaining pool once and advances the state by one pick or one skip.
func (g *glob) step(state RankingState, sc scorer, cands []candidate, bias []float64) (RankingState, *content.Item) {
	bestPos := -1
	var bestScore float64
	for pos, idx := range state.Remaining {
		score := sc.score(state.Tables, cands[idx], bias[idx])
		if bestPos == -1 || score > bestScore {
			bestPos, bestScore = pos, score
		}
	}
	c := cands[state.Remaining[bestPos]]
	if c.sentence.WordCount() < g.cfg.MinLength {
		return state.Drop(bestPos), nil
	}
	return state.Pick(bestPos, c.terms), content.New(c.sentence, c.article, bestScore)
}
