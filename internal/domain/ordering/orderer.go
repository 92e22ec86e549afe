// Package ordering sequences realized content into a readable chain.
package ordering

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yanqian/newsdigest/internal/domain/content"
	"github.com/yanqian/newsdigest/internal/domain/docgroup"
	"github.com/yanqian/newsdigest/internal/domain/features"
	"github.com/yanqian/newsdigest/pkg/util"
)

var (
	// ErrEmptyInput is returned when there is nothing to order.
	ErrEmptyInput = errors.New("ordering requires at least one item")
	// ErrDuplicateItem is returned when two items carry the same sentence.
	ErrDuplicateItem = errors.New("duplicate item in ordering input")
	// ErrMissingArticle is returned for items without a source article.
	ErrMissingArticle = errors.New("item has no source article")
)

// neutralTopical is the topical score when either side lacks a vector.
const neutralTopical = 0.5

// SuccessionModel estimates how likely second is to directly follow first.
type SuccessionModel interface {
	Probability(ctx context.Context, first, second string) (float64, error)
}

// Weights combine the per-step scores.
type Weights struct {
	Topical       float64
	Succession    float64
	Chronological float64
}

// StartWeights combine the signals used to pick the opening sentence.
type StartWeights struct {
	Score       float64
	Position    float64
	DatePenalty float64
	Succession  float64
}

// Config configures the orderer.
type Config struct {
	Weights           Weights
	Start             StartWeights
	SuccessionEnabled bool
}

// DefaultConfig favors topical and chronological continuity without a succession model.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{Topical: 1, Succession: 0, Chronological: 1},
		Start:   StartWeights{Score: 1, Position: 1, DatePenalty: 0.1, Succession: 1},
	}
}

// Validate rejects negative weights.
func (c Config) Validate() error {
	for _, w := range []float64{
		c.Weights.Topical, c.Weights.Succession, c.Weights.Chronological,
		c.Start.Score, c.Start.Position, c.Start.DatePenalty, c.Start.Succession,
	} {
		if w < 0 {
			return errors.New("ordering weights must be non-negative")
		}
	}
	return nil
}

// Orderer builds the output chain greedily from a chosen starting sentence.
type Orderer struct {
	cfg    Config
	model  SuccessionModel
	logger *slog.Logger
}

// New returns an orderer. A succession model is required only when succession is enabled.
func New(cfg Config, model SuccessionModel, logger *slog.Logger) (*Orderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.SuccessionEnabled && model == nil {
		return nil, errors.New("succession enabled without a succession model")
	}
	return &Orderer{cfg: cfg, model: model, logger: logger.With("component", "ordering.orderer")}, nil
}

// Order returns a permutation of items. Ties go to the earliest item in input order.
func (o *Orderer) Order(ctx context.Context, items []*content.Item) ([]*content.Item, error) {
	if len(items) == 0 {
		return nil, ErrEmptyInput
	}
	seen := make(map[*docgroup.Sentence]bool, len(items))
	for _, it := range items {
		if seen[it.Sentence] {
			return nil, ErrDuplicateItem
		}
		if it.Article == nil {
			return nil, ErrMissingArticle
		}
		seen[it.Sentence] = true
	}

	remaining := make([]*content.Item, len(items))
	copy(remaining, items)

	start, err := o.chooseStart(ctx, remaining)
	if err != nil {
		return nil, err
	}
	ordered := []*content.Item{remaining[start]}
	remaining = removeAt(remaining, start)

	for len(remaining) > 0 {
		tail := ordered[len(ordered)-1]
		next, err := o.selectNext(ctx, tail, remaining)
		if err != nil {
			return nil, err
		}
		ordered = append(ordered, remaining[next])
		remaining = removeAt(remaining, next)
	}

	o.logger.Debug("ordering finished", "items", len(ordered))
	return ordered, nil
}

func (o *Orderer) chooseStart(ctx context.Context, items []*content.Item) (int, error) {
	earliest := items[0].Article.Date
	for _, it := range items[1:] {
		if it.Article.Date.Before(earliest) {
			earliest = it.Article.Date
		}
	}

	w := o.cfg.Start
	best, bestScore := -1, 0.0
	for i, it := range items {
		score := w.Score*it.Score - w.DatePenalty*float64(util.DaysBetween(earliest, it.Article.Date))
		if it.Article.IsBoundary(it.Sentence) {
			score += w.Position
		}
		if o.cfg.SuccessionEnabled {
			var forward float64
			for j, other := range items {
				if j == i {
					continue
				}
				p, err := o.succession(ctx, it, other)
				if err != nil {
					return 0, err
				}
				forward += p
			}
			score += w.Succession * forward
		}
		if best == -1 || score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, nil
}

func (o *Orderer) selectNext(ctx context.Context, tail *content.Item, candidates []*content.Item) (int, error) {
	w := o.cfg.Weights
	best, bestScore := -1, 0.0
	for i, cand := range candidates {
		score := w.Topical*topicalScore(tail, cand) + w.Chronological*chronologicalScore(tail, cand)
		if o.cfg.SuccessionEnabled && w.Succession > 0 {
			p, err := o.succession(ctx, tail, cand)
			if err != nil {
				return 0, err
			}
			score += w.Succession * p
		}
		if best == -1 || score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, nil
}

func (o *Orderer) succession(ctx context.Context, first, second *content.Item) (float64, error) {
	p, err := o.model.Probability(ctx, first.RealizedText, second.RealizedText)
	if err != nil {
		return 0, fmt.Errorf("succession probability: %w", err)
	}
	return p, nil
}

// topicalScore is the cosine of mean token vectors, neutral when either is missing.
func topicalScore(a, b *content.Item) float64 {
	va, vb := a.Sentence.MeanVector(), b.Sentence.MeanVector()
	if va == nil || vb == nil {
		return neutralTopical
	}
	return features.Cosine(va, vb)
}

// Chronological scoring constants.
const (
	followCeiling    = 1.0
	followDecay      = 0.02
	followFloor      = 0.6
	precedeBase      = 0.5
	precedeDecay     = 0.05
	laterBase        = 0.7
	laterGapDecay    = 0.25
	laterLeadBonus   = 0.2
	earlierPenalty   = 0.1
	earlierLeadBonus = 0.05
)

// chronologicalScore favors the next sentence of the same article, then articles dated soon after.
func chronologicalScore(tail, cand *content.Item) float64 {
	idx := float64(cand.Sentence.Index)
	if tail.Article.ID == cand.Article.ID {
		d := cand.Sentence.Index - tail.Sentence.Index
		if d > 0 {
			return max(followFloor, followCeiling-followDecay*float64(d-1))
		}
		return max(0, precedeBase-precedeDecay*float64(-d))
	}
	gap := util.DaysBetween(tail.Article.Date, cand.Article.Date)
	if gap >= 0 {
		return laterBase/(1+laterGapDecay*float64(gap)) + laterLeadBonus/(1+idx)
	}
	return earlierPenalty*float64(gap) + earlierLeadBonus/(1+idx)
}

func removeAt(items []*content.Item, i int) []*content.Item {
	out := make([]*content.Item, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}
