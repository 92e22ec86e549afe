package realization

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/yanqian/newsdigest/internal/domain/content"
	"github.com/yanqian/newsdigest/internal/domain/features"
)

// noSimilarity marks a pair the vector metric cannot compare; it never exceeds a threshold.
const noSimilarity = -1.0

// prune removes the lower-scored member of every redundant pair. Lexical near-duplicates are
// always removed; metric-based redundancy only while trimming budget remains.
func (r *Realizer) prune(ctx context.Context, p *pass) error {
	items := p.items
	removed := make(map[*content.Item]bool)
	for i, first := range items {
		if removed[first] {
			continue
		}
		for _, second := range items[i+1:] {
			if removed[second] {
				continue
			}
			if lexicalOverlap(first.RealizedText, second.RealizedText) > r.cfg.LexicalOverlap {
				removed[second] = true
				p.budget -= second.WordCount()
				continue
			}
			if r.cfg.RedundancyMetric == RedundancyNone || p.budget <= 0 {
				continue
			}
			sim, err := r.similarity(ctx, first, second)
			if err != nil {
				return err
			}
			if sim > r.cfg.RedundancyThreshold {
				removed[second] = true
				p.budget -= second.WordCount()
			}
		}
	}
	p.keep(func(it *content.Item) bool { return !removed[it] })
	return nil
}

func (r *Realizer) similarity(ctx context.Context, first, second *content.Item) (float64, error) {
	switch r.cfg.RedundancyMetric {
	case RedundancyVector:
		a, b := first.Sentence.MeanVector(), second.Sentence.MeanVector()
		if a == nil || b == nil {
			return noSimilarity, nil
		}
		return features.Cosine(a, b), nil
	case RedundancyParaphrase:
		p, err := r.pair.Probability(ctx, first.RealizedText, second.RealizedText)
		if err != nil {
			return 0, fmt.Errorf("paraphrase probability: %w", err)
		}
		return p, nil
	}
	return noSimilarity, nil
}

// lexicalOverlap is the share of the shorter text's distinct words that also occur in the other.
func lexicalOverlap(a, b string) float64 {
	wa, wb := wordSet(a), wordSet(b)
	shorter, longer := wa, wb
	if len(wb) < len(wa) {
		shorter, longer = wb, wa
	}
	if len(shorter) == 0 {
		return 0
	}
	shared := 0
	for w := range shorter {
		if _, ok := longer[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(shorter))
}

func wordSet(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(text)) {
		w := strings.TrimFunc(field, unicode.IsPunct)
		if w != "" {
			out[w] = struct{}{}
		}
	}
	return out
}
