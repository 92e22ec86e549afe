package content

import (
	"github.com/yanqian/newsdigest/internal/domain/docgroup"
)

// Item wraps an immutable annotated sentence with the pipeline's mutable state.
type Item struct {
	Sentence *docgroup.Sentence
	Article  *docgroup.Article
	Score    float64
	// RealizedText starts as the sentence text and is rewritten by realization.
	RealizedText string
}

// New builds an item whose realized text is the original sentence text.
func New(sentence *docgroup.Sentence, article *docgroup.Article, score float64) *Item {
	return &Item{Sentence: sentence, Article: article, Score: score, RealizedText: sentence.Text}
}

// WordCount counts words of the realized text.
func (i *Item) WordCount() int {
	return docgroup.WordCount(i.RealizedText)
}

// Untouched reports whether realization has not rewritten the text yet.
func (i *Item) Untouched() bool {
	return i.RealizedText == i.Sentence.Text
}

// TotalWords sums realized word counts.
func TotalWords(items []*Item) int {
	total := 0
	for _, it := range items {
		total += it.WordCount()
	}
	return total
}

// Texts returns the realized texts in order.
func Texts(items []*Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.RealizedText
	}
	return out
}
