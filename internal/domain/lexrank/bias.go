package lexrank

import (
	"errors"
	"fmt"
	"math"

	"github.com/yanqian/newsdigest/internal/domain/docgroup"
	"github.com/yanqian/newsdigest/internal/domain/features"
)

// BiasKind selects how a query steers the ranking.
type BiasKind string

const (
	BiasNone    BiasKind = "none"
	BiasOverlap BiasKind = "overlap"
	BiasVector  BiasKind = "vector"
)

// ErrUnknownBias is returned for unrecognized bias names.
var ErrUnknownBias = errors.New("unknown bias function")

// ParseBias resolves a configured bias name; empty means none.
func ParseBias(name string) (BiasKind, error) {
	switch BiasKind(name) {
	case "", BiasNone:
		return BiasNone, nil
	case BiasOverlap, BiasVector:
		return BiasKind(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBias, name)
}

// Bias computes a normalized prior over candidates from their similarity to the query sentences.
// It returns nil for BiasNone.
func Bias(kind BiasKind, query []*docgroup.Sentence, candidates []*docgroup.Sentence, idf features.IDF) ([]float64, error) {
	if idf == nil {
		idf = features.UniformIDF{}
	}
	switch kind {
	case "", BiasNone:
		return nil, nil
	case BiasOverlap:
		return Normalize(OverlapScores(query, candidates, idf)), nil
	case BiasVector:
		return Normalize(VectorScores(query, candidates, idf)), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBias, kind)
}

// OverlapScores weighs shared terms by IDF and by the log term frequency on both sides.
func OverlapScores(query []*docgroup.Sentence, candidates []*docgroup.Sentence, idf features.IDF) []float64 {
	queryTF := features.TermCounts(query...)
	out := make([]float64, len(candidates))
	for i, s := range candidates {
		for term, tf := range features.TermCounts(s) {
			qtf, ok := queryTF[term]
			if !ok {
				continue
			}
			out[i] += math.Log(float64(tf)+1) * math.Log(float64(qtf)+1) * idf.Weight(term)
		}
	}
	return out
}

// VectorScores is one minus the cosine distance of mean vectors, clamped at zero.
func VectorScores(query []*docgroup.Sentence, candidates []*docgroup.Sentence, idf features.IDF) []float64 {
	queryVec := meanOf(query, idf)
	out := make([]float64, len(candidates))
	for i, s := range candidates {
		out[i] = math.Max(0, features.Cosine(queryVec, features.MeanVector(s, idf)))
	}
	return out
}

// Normalize scales v to sum to 1, falling back to uniform when the sum is zero.
func Normalize(v []float64) []float64 {
	if len(v) == 0 {
		return v
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	out := make([]float64, len(v))
	for i, x := range v {
		if sum == 0 {
			out[i] = 1 / float64(len(v))
		} else {
			out[i] = x / sum
		}
	}
	return out
}

func meanOf(sentences []*docgroup.Sentence, idf features.IDF) []float64 {
	var (
		sum   []float64
		count int
	)
	for _, s := range sentences {
		vec := features.MeanVector(s, idf)
		if vec == nil {
			continue
		}
		if sum == nil {
			sum = make([]float64, len(vec))
		}
		if len(vec) != len(sum) {
			continue
		}
		for i, x := range vec {
			sum[i] += x
		}
		count++
	}
	if count == 0 {
		return nil
	}
	for i := range sum {
		sum[i] /= float64(count)
	}
	return sum
}
