package lexicon

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/yanqian/newsdigest/internal/domain/docgroup"
)

// VectorSource resolves word vectors for normalized terms.
type VectorSource interface {
	Vectors(ctx context.Context, terms []string) (map[string][]float32, error)
}

// HashVectors derives a pseudo-random vector from each term. It lets the vector metrics run
// offline when the annotator attached no embeddings.
type HashVectors struct {
	dim int
}

// NewHashVectors constructs the source; dim defaults to 32.
func NewHashVectors(dim int) *HashVectors {
	if dim <= 0 {
		dim = 32
	}
	return &HashVectors{dim: dim}
}

// Vectors implements VectorSource.
func (h *HashVectors) Vectors(_ context.Context, terms []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(terms))
	for _, term := range terms {
		out[term] = h.vector(term)
	}
	return out, nil
}

func (h *HashVectors) vector(term string) []float32 {
	vector := make([]float32, h.dim)
	hash := fnv.New64a()
	_, _ = hash.Write([]byte(term))
	seed := hash.Sum64()
	for j := 0; j < h.dim; j++ {
		seed = seed*1099511628211 + 1469598103934665603
		vector[j] = float32(seed%997)/997.0 - 0.5
	}
	return vector
}

// CorpusVectors reads vectors of one corpus from Postgres.
type CorpusVectors struct {
	Store  *PostgresStore
	Corpus string
}

// Vectors implements VectorSource.
func (c CorpusVectors) Vectors(ctx context.Context, terms []string) (map[string][]float32, error) {
	return c.Store.Vectors(ctx, c.Corpus, terms)
}

// FillVectors attaches vectors to every non-punctuation token that has none, across the
// body sentences, headlines and topic query of each group. It returns the number of tokens filled.
func FillVectors(ctx context.Context, source VectorSource, groups ...*docgroup.Group) (int, error) {
	var sentences []*docgroup.Sentence
	for _, g := range groups {
		if g == nil {
			continue
		}
		sentences = append(sentences, g.Sentences()...)
		sentences = append(sentences, g.Headlines()...)
		sentences = append(sentences, g.Query()...)
	}

	wanted := make(map[string]struct{})
	for _, s := range sentences {
		for _, tok := range s.Tokens {
			if !tok.IsPunct && !tok.HasVector() {
				wanted[tok.Norm()] = struct{}{}
			}
		}
	}
	if len(wanted) == 0 {
		return 0, nil
	}
	terms := make([]string, 0, len(wanted))
	for term := range wanted {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	vectors, err := source.Vectors(ctx, terms)
	if err != nil {
		return 0, fmt.Errorf("resolve vectors: %w", err)
	}

	filled := 0
	for _, s := range sentences {
		for i := range s.Tokens {
			tok := &s.Tokens[i]
			if tok.IsPunct || tok.HasVector() {
				continue
			}
			if v, ok := vectors[tok.Norm()]; ok && len(v) > 0 {
				tok.Vector = v
				filled++
			}
		}
	}
	return filled, nil
}
