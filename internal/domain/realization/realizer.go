// Package realization turns scored content items into a word-budgeted set of cleaned sentences.
package realization

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"

	"github.com/yanqian/newsdigest/internal/domain/content"
	"github.com/yanqian/newsdigest/internal/domain/similarity"
)

// RedundancyMetric selects the similarity used beside lexical overlap when pruning redundant sentences.
type RedundancyMetric string

const (
	RedundancyNone       RedundancyMetric = "none"
	RedundancyVector     RedundancyMetric = "vector"
	RedundancyParaphrase RedundancyMetric = "paraphrase"
)

// ErrUnknownRedundancyMetric is returned for unrecognized metric names.
var ErrUnknownRedundancyMetric = errors.New("unknown redundancy metric")

// ParseRedundancyMetric resolves a configured metric name; empty means none.
func ParseRedundancyMetric(name string) (RedundancyMetric, error) {
	switch RedundancyMetric(name) {
	case "", RedundancyNone:
		return RedundancyNone, nil
	case RedundancyVector, RedundancyParaphrase:
		return RedundancyMetric(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRedundancyMetric, name)
}

const (
	DefaultWordQuota           = 100
	DefaultMinRealizedLength   = 5
	DefaultRedundancyThreshold = 0.97
	DefaultLexicalOverlap      = 0.74
)

// Config controls the filter chain. Every removal toggle defaults to on.
type Config struct {
	WordQuota           int
	MinRealizedLength   int
	RedundancyThreshold float64
	LexicalOverlap      float64
	RedundancyMetric    RedundancyMetric

	RemoveQuotes        bool
	RemoveQuestions     bool
	RemovePronounStarts bool
	RemoveSubjectless   bool
	RemoveFragments     bool
	RemoveAttribution   bool
	Trim                bool

	// ExcludePatterns drop a whole sentence when they match anywhere in its text.
	ExcludePatterns []string
	// SubspanPatterns are deleted from the trimmed text.
	SubspanPatterns []string
}

// DefaultConfig returns the 100-word configuration with every filter enabled.
func DefaultConfig() Config {
	return Config{
		WordQuota:           DefaultWordQuota,
		MinRealizedLength:   DefaultMinRealizedLength,
		RedundancyThreshold: DefaultRedundancyThreshold,
		LexicalOverlap:      DefaultLexicalOverlap,
		RedundancyMetric:    RedundancyNone,
		RemoveQuotes:        true,
		RemoveQuestions:     true,
		RemovePronounStarts: true,
		RemoveSubjectless:   true,
		RemoveFragments:     true,
		RemoveAttribution:   true,
		Trim:                true,
	}
}

// Deps carries the optional paraphrase model used by the paraphrase redundancy metric.
type Deps struct {
	Pair similarity.PairScorer
}

// Realizer runs the budgeted trim and filter chain.
type Realizer struct {
	cfg     Config
	pair    similarity.PairScorer
	exclude []*regexp.Regexp
	subspan []*regexp.Regexp
	logger  *slog.Logger
}

// New validates cfg and compiles its patterns.
func New(cfg Config, deps Deps, logger *slog.Logger) (*Realizer, error) {
	if cfg.WordQuota <= 0 {
		return nil, errors.New("word quota must be positive")
	}
	if cfg.MinRealizedLength < 0 {
		return nil, errors.New("minimum realized length must not be negative")
	}
	if cfg.LexicalOverlap <= 0 || cfg.LexicalOverlap > 1 {
		return nil, errors.New("lexical overlap ratio must be in (0, 1]")
	}
	metric, err := ParseRedundancyMetric(string(cfg.RedundancyMetric))
	if err != nil {
		return nil, err
	}
	cfg.RedundancyMetric = metric
	if metric == RedundancyParaphrase && deps.Pair == nil {
		return nil, errors.New("paraphrase redundancy requires a pair model")
	}
	exclude, err := compileAll(cfg.ExcludePatterns)
	if err != nil {
		return nil, err
	}
	subspan, err := compileAll(cfg.SubspanPatterns)
	if err != nil {
		return nil, err
	}
	return &Realizer{
		cfg:     cfg,
		pair:    deps.Pair,
		exclude: exclude,
		subspan: subspan,
		logger:  logger.With("component", "realization.realizer"),
	}, nil
}

// Realize filters, trims and budgets items. The returned items never exceed the word quota.
// Items are mutated in place; the result is ordered by descending score with any backfill last.
func (r *Realizer) Realize(ctx context.Context, items []*content.Item) ([]*content.Item, error) {
	if len(items) == 0 {
		return nil, nil
	}
	ranked := make([]*content.Item, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	p := &pass{items: ranked, budget: content.TotalWords(ranked) - r.cfg.WordQuota}
	r.filter(p)

	if err := r.prune(ctx, p); err != nil {
		return nil, err
	}

	p.keep(func(it *content.Item) bool { return it.WordCount() >= r.cfg.MinRealizedLength })
	for _, it := range p.items {
		it.RealizedText = cleanup(it.RealizedText)
	}

	accepted, overflow := r.accept(p.items)
	if extra := r.backfill(accepted, overflow); extra != nil {
		accepted = append(accepted, extra)
	}

	r.logger.Debug("realization finished",
		"input", len(items),
		"kept", len(accepted),
		"overflow", len(overflow),
		"words", content.TotalWords(accepted),
	)
	return accepted, nil
}

// filter runs the budget-gated removal and rewrite steps in order.
func (r *Realizer) filter(p *pass) {
	if r.cfg.RemoveQuotes {
		p.remove(func(it *content.Item) bool { return hasQuote(it.RealizedText) })
	}
	if r.cfg.RemoveQuestions {
		p.remove(func(it *content.Item) bool { return isQuestion(it.RealizedText) })
	}
	if r.cfg.RemovePronounStarts {
		p.remove(func(it *content.Item) bool { return danglingStart(it.Sentence.Tokens) })
	}
	if r.cfg.RemoveSubjectless {
		p.remove(func(it *content.Item) bool { return lacksSubject(it.Sentence.Tokens) })
	}
	if len(r.exclude) > 0 {
		p.remove(func(it *content.Item) bool { return matchesAny(r.exclude, it.RealizedText) })
	}
	if r.cfg.RemoveFragments {
		p.remove(func(it *content.Item) bool { return isFragment(it.RealizedText) })
	}
	if r.cfg.Trim {
		p.rewrite(trim)
	}
	if r.cfg.RemoveAttribution {
		p.rewrite(func(it *content.Item) string { return stripAttribution(it.RealizedText) })
	}
	if len(r.subspan) > 0 {
		p.rewrite(func(it *content.Item) string { return stripSubspans(r.subspan, it.RealizedText) })
	}
}

// accept takes items in order while they fit, stopping at the first that does not.
func (r *Realizer) accept(items []*content.Item) (accepted, overflow []*content.Item) {
	total := 0
	for i, it := range items {
		wc := it.WordCount()
		if total+wc > r.cfg.WordQuota {
			return accepted, items[i:]
		}
		accepted = append(accepted, it)
		total += wc
	}
	return accepted, nil
}

// backfill returns the best overflow item that fits the unused quota and repeats nothing already accepted.
func (r *Realizer) backfill(accepted, overflow []*content.Item) *content.Item {
	left := r.cfg.WordQuota - content.TotalWords(accepted)
	if left <= 0 {
		return nil
	}
	for _, it := range overflow {
		if it.WordCount() > left {
			continue
		}
		redundant := false
		for _, kept := range accepted {
			if lexicalOverlap(kept.RealizedText, it.RealizedText) > r.cfg.LexicalOverlap {
				redundant = true
				break
			}
		}
		if !redundant {
			return it
		}
	}
	return nil
}

// pass tracks the surviving items, highest score first, and the words still to be trimmed.
type pass struct {
	items  []*content.Item
	budget int
}

// remove drops matching items, lowest score first, until the budget is spent.
func (p *pass) remove(match func(*content.Item) bool) {
	if p.budget <= 0 {
		return
	}
	dropped := make(map[*content.Item]bool)
	for i := len(p.items) - 1; i >= 0 && p.budget > 0; i-- {
		it := p.items[i]
		if match(it) {
			dropped[it] = true
			p.budget -= it.WordCount()
		}
	}
	p.keep(func(it *content.Item) bool { return !dropped[it] })
}

// rewrite replaces realized texts, lowest score first, until the budget is spent.
func (p *pass) rewrite(fn func(*content.Item) string) {
	for i := len(p.items) - 1; i >= 0 && p.budget > 0; i-- {
		it := p.items[i]
		before := it.WordCount()
		it.RealizedText = fn(it)
		p.budget -= before - it.WordCount()
	}
}

func (p *pass) keep(ok func(*content.Item) bool) {
	out := p.items[:0]
	for _, it := range p.items {
		if ok(it) {
			out = append(out, it)
		}
	}
	p.items = out
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
