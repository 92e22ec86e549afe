package features

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/yanqian/newsdigest/internal/domain/docgroup"
)

// IDF provides inverse document frequency weights for normalized terms.
type IDF interface {
	Weight(term string) float64
}

// UniformIDF weighs every term equally.
type UniformIDF struct{}

// Weight implements IDF.
func (UniformIDF) Weight(string) float64 { return 1 }

// Vocabulary maps count-worthy terms to dense indices. It is scoped to one group or article.
type Vocabulary struct {
	index map[string]int
	terms []string
}

// NewVocabulary indexes every count-worthy term of the given sentences in sorted order.
func NewVocabulary(sentences ...*docgroup.Sentence) *Vocabulary {
	counts := TermCounts(sentences...)
	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	index := make(map[string]int, len(terms))
	for i, term := range terms {
		index[term] = i
	}
	return &Vocabulary{index: index, terms: terms}
}

// Index returns the position of term.
func (v *Vocabulary) Index(term string) (int, bool) {
	i, ok := v.index[term]
	return i, ok
}

// Len returns the vocabulary size.
func (v *Vocabulary) Len() int {
	return len(v.terms)
}

// BagVector returns IDF-weighted term counts of s over vocab.
func BagVector(s *docgroup.Sentence, vocab *Vocabulary, idf IDF) []float64 {
	out := make([]float64, vocab.Len())
	for _, term := range Terms(s) {
		if i, ok := vocab.Index(term); ok {
			out[i] += idf.Weight(term)
		}
	}
	return out
}

// MeanVector returns the IDF-weighted mean embedding of the sentence's non-punctuation tokens.
// Tokens without a vector are skipped; nil means no token was vectorizable.
func MeanVector(s *docgroup.Sentence, idf IDF) []float64 {
	var (
		sum    []float64
		weight float64
	)
	for _, t := range s.Tokens {
		if t.IsPunct || !t.HasVector() {
			continue
		}
		if sum == nil {
			sum = make([]float64, len(t.Vector))
		}
		if len(t.Vector) != len(sum) {
			continue
		}
		w := idf.Weight(t.Norm())
		for i, v := range t.Vector {
			sum[i] += w * float64(v)
		}
		weight += w
	}
	if sum == nil || weight == 0 {
		return nil
	}
	for i := range sum {
		sum[i] /= weight
	}
	return sum
}

// Cosine returns the cosine similarity of a and b, or 0 when either has zero norm.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}
