package similarity

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/newsdigest/internal/domain/docgroup"
	"github.com/yanqian/newsdigest/internal/domain/docgroup/docgrouptest"
	"github.com/yanqian/newsdigest/internal/domain/features"
)

func TestParseMetric(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"bow", "vector", "paraphrase"} {
		m, err := ParseMetric(name)
		require.NoError(t, err)
		require.Equal(t, Metric(name), m)
	}

	_, err := ParseMetric("jaccard")
	require.ErrorIs(t, err, ErrUnknownMetric)
}

func TestNewBuilderRequiresScorerForParaphrase(t *testing.T) {
	t.Parallel()

	_, err := NewBuilder(MetricParaphrase, nil, nil)
	require.ErrorIs(t, err, ErrMissingScorer)
}

func TestBagOfWordsMatrix(t *testing.T) {
	t.Parallel()

	sentences := []*docgroup.Sentence{
		docgrouptest.Sentence("Floyd hit Bahamas."),
		docgrouptest.Sentence("Floyd hit Bahamas."),
		docgrouptest.Sentence("Markets rallied strongly."),
		docgrouptest.Sentence("It was there."),
	}
	b, err := NewBuilder(MetricBagOfWords, features.UniformIDF{}, nil)
	require.NoError(t, err)

	m, err := b.Matrix(context.Background(), sentences)
	require.NoError(t, err)

	rows, cols := m.Dims()
	require.Equal(t, 4, rows)
	require.Equal(t, 4, cols)
	require.InDelta(t, 1.0, m.At(0, 1), 1e-12)
	require.Zero(t, m.At(0, 2))
	for j := 0; j < 4; j++ {
		require.Zero(t, m.At(3, j), "degenerate sentence row must be zero")
		require.False(t, math.IsNaN(m.At(j, 3)))
	}
	require.InDelta(t, m.At(1, 2), m.At(2, 1), 1e-12)
}

func TestVectorMatrixHandlesMissingVectors(t *testing.T) {
	t.Parallel()

	withVec := docgrouptest.WithVectors(docgrouptest.Sentence("Floyd hit Bahamas."), 8)
	noVec := docgrouptest.Sentence("Markets rallied.")
	b, err := NewBuilder(MetricVector, nil, nil)
	require.NoError(t, err)

	m, err := b.Matrix(context.Background(), []*docgroup.Sentence{withVec, noVec})
	require.NoError(t, err)
	require.InDelta(t, 1.0, m.At(0, 0), 1e-9)
	require.Zero(t, m.At(0, 1))
	require.Zero(t, m.At(1, 1))
}

func TestParaphraseMatrixIsDirected(t *testing.T) {
	t.Parallel()

	scorer := &stubScorer{fn: func(first, second string) (float64, error) {
		if first < second {
			return 0.9, nil
		}
		return 0.2, nil
	}}
	b, err := NewBuilder(MetricParaphrase, nil, scorer)
	require.NoError(t, err)

	m, err := b.Matrix(context.Background(), []*docgroup.Sentence{
		docgrouptest.Sentence("A storm formed."),
		docgrouptest.Sentence("B storm formed."),
	})
	require.NoError(t, err)
	require.Equal(t, 1.0, m.At(0, 0))
	require.Equal(t, 0.9, m.At(0, 1))
	require.Equal(t, 0.2, m.At(1, 0))
	require.Equal(t, 2, scorer.calls)
}

func TestParaphraseMatrixPropagatesModelFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("model offline")
	b, err := NewBuilder(MetricParaphrase, nil, &stubScorer{fn: func(string, string) (float64, error) { return 0, boom }})
	require.NoError(t, err)

	_, err = b.Matrix(context.Background(), []*docgroup.Sentence{
		docgrouptest.Sentence("One."),
		docgrouptest.Sentence("Two."),
	})
	require.ErrorIs(t, err, boom)
}

func TestMatrixEmptyInput(t *testing.T) {
	t.Parallel()

	b, err := NewBuilder(MetricBagOfWords, nil, nil)
	require.NoError(t, err)
	m, err := b.Matrix(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestCosineMatrixMatchesPairwiseCosine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		vectors [][]float64
	}{
		{name: "dense", vectors: [][]float64{{1, 0, 2}, {3, 1, 0}, {0.5, 0.5, 0.5}}},
		{name: "zero row", vectors: [][]float64{{1, 2}, {0, 0}, {2, 4}}},
		{name: "missing row", vectors: [][]float64{nil, {1, 1}, {1, -1}}},
		{name: "all missing", vectors: [][]float64{nil, nil}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := cosineMatrix(tt.vectors)
			for i := range tt.vectors {
				for j := range tt.vectors {
					require.InDelta(t, features.Cosine(tt.vectors[i], tt.vectors[j]), m.At(i, j), 1e-12, "(%d,%d)", i, j)
				}
			}
		})
	}
}

type stubScorer struct {
	fn    func(first, second string) (float64, error)
	calls int
}

func (s *stubScorer) Probability(_ context.Context, first, second string) (float64, error) {
	s.calls++
	return s.fn(first, second)
}
