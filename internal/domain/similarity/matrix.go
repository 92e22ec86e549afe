package similarity

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/yanqian/newsdigest/internal/domain/docgroup"
	"github.com/yanqian/newsdigest/internal/domain/features"
)

// Metric identifies how pairwise sentence similarity is computed.
type Metric string

const (
	// MetricBagOfWords is the cosine of IDF-weighted term counts over the local vocabulary.
	MetricBagOfWords Metric = "bow"
	// MetricVector is the cosine of IDF-weighted mean embeddings.
	MetricVector Metric = "vector"
	// MetricParaphrase asks an external sequence-pair model for a paraphrase probability.
	MetricParaphrase Metric = "paraphrase"
)

// ErrUnknownMetric is returned for unrecognized metric names.
var ErrUnknownMetric = errors.New("unknown similarity metric")

// ErrMissingScorer is returned when the paraphrase metric is configured without a model.
var ErrMissingScorer = errors.New("paraphrase metric requires a pair scorer")

// ParseMetric resolves a configured metric name.
func ParseMetric(name string) (Metric, error) {
	switch Metric(name) {
	case MetricBagOfWords, MetricVector, MetricParaphrase:
		return Metric(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}

// PairScorer returns a probability in [0,1] for an ordered pair of texts.
type PairScorer interface {
	Probability(ctx context.Context, first, second string) (float64, error)
}

// Builder produces similarity matrices for a fixed metric.
type Builder struct {
	metric Metric
	idf    features.IDF
	scorer PairScorer
}

// NewBuilder validates the metric against its dependencies.
func NewBuilder(metric Metric, idf features.IDF, scorer PairScorer) (*Builder, error) {
	if _, err := ParseMetric(string(metric)); err != nil {
		return nil, err
	}
	if metric == MetricParaphrase && scorer == nil {
		return nil, ErrMissingScorer
	}
	if idf == nil {
		idf = features.UniformIDF{}
	}
	return &Builder{metric: metric, idf: idf, scorer: scorer}, nil
}

// Metric returns the configured metric.
func (b *Builder) Metric() Metric {
	return b.metric
}

// Matrix computes the N×N similarity matrix of sentences in the given order.
// Sentences with nothing to compare yield an all-zero row and column.
func (b *Builder) Matrix(ctx context.Context, sentences []*docgroup.Sentence) (*mat.Dense, error) {
	n := len(sentences)
	if n == 0 {
		return nil, nil
	}
	switch b.metric {
	case MetricBagOfWords:
		vocab := features.NewVocabulary(sentences...)
		vectors := make([][]float64, n)
		for i, s := range sentences {
			vectors[i] = features.BagVector(s, vocab, b.idf)
		}
		return cosineMatrix(vectors), nil
	case MetricVector:
		vectors := make([][]float64, n)
		for i, s := range sentences {
			vectors[i] = features.MeanVector(s, b.idf)
		}
		return cosineMatrix(vectors), nil
	case MetricParaphrase:
		return b.paraphraseMatrix(ctx, sentences)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, b.metric)
}

// cosineMatrix is the Gram matrix of the L2-normalized vectors. Rows that are empty,
// zero or of a different width than the first usable row stay zero.
func cosineMatrix(vectors [][]float64) *mat.Dense {
	n := len(vectors)
	out := mat.NewDense(n, n, nil)
	dim := 0
	for _, v := range vectors {
		if len(v) > 0 {
			dim = len(v)
			break
		}
	}
	if dim == 0 {
		return out
	}

	unit := mat.NewDense(n, dim, nil)
	for i, v := range vectors {
		if len(v) != dim {
			continue
		}
		norm := floats.Norm(v, 2)
		if norm == 0 {
			continue
		}
		row := unit.RawRowView(i)
		copy(row, v)
		floats.Scale(1/norm, row)
	}
	out.Mul(unit, unit.T())
	return out
}

func (b *Builder) paraphraseMatrix(ctx context.Context, sentences []*docgroup.Sentence) (*mat.Dense, error) {
	n := len(sentences)
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				out.Set(i, j, 1)
				continue
			}
			p, err := b.scorer.Probability(ctx, sentences[i].Text, sentences[j].Text)
			if err != nil {
				return nil, fmt.Errorf("paraphrase probability (%d,%d): %w", i, j, err)
			}
			out.Set(i, j, p)
		}
	}
	return out, nil
}
