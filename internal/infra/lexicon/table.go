package lexicon

import (
	"errors"
	"math"

	"github.com/yanqian/newsdigest/internal/domain/docgroup"
	"github.com/yanqian/newsdigest/internal/domain/features"
)

// ErrNoDocuments is returned when IDF weights are requested for an empty corpus.
var ErrNoDocuments = errors.New("lexicon: corpus has no documents")

// Table is an immutable in-memory IDF table. Unseen terms get the smoothed default log(N+1).
type Table struct {
	weights   map[string]float64
	documents int
	fallback  float64
}

// NewTable wraps precomputed weights for a corpus of documents documents.
func NewTable(weights map[string]float64, documents int) *Table {
	copied := make(map[string]float64, len(weights))
	for term, w := range weights {
		copied[term] = w
	}
	return &Table{
		weights:   copied,
		documents: documents,
		fallback:  math.Log(float64(documents) + 1),
	}
}

// ComputeIDF derives idf(w) = log(N / df(w)) from document frequencies.
func ComputeIDF(docFreq map[string]int, documents int) (*Table, error) {
	if documents <= 0 {
		return nil, ErrNoDocuments
	}
	weights := make(map[string]float64, len(docFreq))
	for term, df := range docFreq {
		if df <= 0 {
			continue
		}
		weights[term] = math.Log(float64(documents) / float64(df))
	}
	return NewTable(weights, documents), nil
}

// DocumentFrequencies counts, per normalized count-worthy term, the articles containing it.
// Every article of every group is one document.
func DocumentFrequencies(groups ...*docgroup.Group) (map[string]int, int) {
	df := make(map[string]int)
	documents := 0
	for _, g := range groups {
		if g == nil {
			continue
		}
		for _, a := range g.Articles {
			documents++
			seen := make(map[string]struct{})
			for _, s := range a.Sentences() {
				for _, term := range features.Terms(s) {
					if _, ok := seen[term]; ok {
						continue
					}
					seen[term] = struct{}{}
					df[term]++
				}
			}
		}
	}
	return df, documents
}

// Weight implements features.IDF.
func (t *Table) Weight(term string) float64 {
	if w, ok := t.weights[term]; ok {
		return w
	}
	return t.fallback
}

// Lookup returns the stored weight without the unseen-term default.
func (t *Table) Lookup(term string) (float64, bool) {
	w, ok := t.weights[term]
	return w, ok
}

// Documents returns the corpus size the table was built from.
func (t *Table) Documents() int {
	return t.documents
}

// Len returns the number of known terms.
func (t *Table) Len() int {
	return len(t.weights)
}

// Weights returns a copy of the stored weights.
func (t *Table) Weights() map[string]float64 {
	out := make(map[string]float64, len(t.weights))
	for term, w := range t.weights {
		out[term] = w
	}
	return out
}

var _ features.IDF = (*Table)(nil)
