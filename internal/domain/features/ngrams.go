package features

import (
	"strings"

	"github.com/yanqian/newsdigest/internal/domain/docgroup"
)

// Tables holds relative-frequency n-gram and co-occurrence probabilities over one vocabulary scope.
type Tables struct {
	Unigrams map[string]float64
	Bigrams  map[string]float64
	Trigrams map[string]float64
	// Pairs holds probabilities of unordered term pairs co-occurring in a sentence.
	Pairs map[string]float64
}

// BuildTables counts count-worthy n-grams over the given sentences, headlines included by the caller.
func BuildTables(sentences ...*docgroup.Sentence) *Tables {
	uni := make(map[string]int)
	bi := make(map[string]int)
	tri := make(map[string]int)
	pairs := make(map[string]int)
	var nUni, nBi, nTri, nPairs int

	for _, s := range sentences {
		terms := Terms(s)
		for i, term := range terms {
			uni[term]++
			nUni++
			if i > 0 {
				bi[bigram(terms, i)]++
				nBi++
			}
			if i > 1 {
				tri[trigram(terms, i)]++
				nTri++
			}
		}
		for _, key := range pairKeys(terms) {
			pairs[key]++
			nPairs++
		}
	}

	return &Tables{
		Unigrams: normalize(uni, nUni),
		Bigrams:  normalize(bi, nBi),
		Trigrams: normalize(tri, nTri),
		Pairs:    normalize(pairs, nPairs),
	}
}

// Clone returns a deep copy so reweighting never leaks across selection runs.
func (t *Tables) Clone() *Tables {
	return &Tables{
		Unigrams: cloneMap(t.Unigrams),
		Bigrams:  cloneMap(t.Bigrams),
		Trigrams: cloneMap(t.Trigrams),
		Pairs:    cloneMap(t.Pairs),
	}
}

// Reweighted returns a copy in which the unigram and pair probabilities of terms are squared.
func (t *Tables) Reweighted(terms []string) *Tables {
	out := t.Clone()
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		if p, ok := out.Unigrams[term]; ok {
			out.Unigrams[term] = p * p
		}
	}
	for _, key := range pairKeys(terms) {
		if p, ok := out.Pairs[key]; ok {
			out.Pairs[key] = p * p
		}
	}
	return out
}

// Unigram returns the summed unigram probability of terms divided by their count.
func (t *Tables) Unigram(terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	var sum float64
	for _, term := range terms {
		sum += t.Unigrams[term]
	}
	return sum / float64(len(terms))
}

// Bigram returns the summed bigram probability divided by the term count.
func (t *Tables) Bigram(terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	var sum float64
	for i := 1; i < len(terms); i++ {
		sum += t.Bigrams[bigram(terms, i)]
	}
	return sum / float64(len(terms))
}

// Trigram returns the summed trigram probability divided by the term count.
func (t *Tables) Trigram(terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	var sum float64
	for i := 2; i < len(terms); i++ {
		sum += t.Trigrams[trigram(terms, i)]
	}
	return sum / float64(len(terms))
}

// Cartesian returns the summed co-occurrence probability of the sentence's term pairs divided by the term count.
func (t *Tables) Cartesian(terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	var sum float64
	for _, key := range pairKeys(terms) {
		sum += t.Pairs[key]
	}
	return sum / float64(len(terms))
}

// Headline scores overlap between terms and headline entities, weighting unigram and bigram mass.
func (t *Tables) Headline(terms []string, entities []string, unigramWeight, bigramWeight float64) float64 {
	if len(terms) == 0 || len(entities) == 0 {
		return 0
	}
	var total float64
	for _, entity := range entities {
		entity = strings.ToLower(entity)
		words := make(map[string]struct{})
		for _, w := range strings.Fields(entity) {
			words[w] = struct{}{}
		}
		var uni, bi float64
		for _, term := range terms {
			if _, ok := words[term]; ok {
				uni += t.Unigrams[term]
			}
		}
		for i := 1; i < len(terms); i++ {
			gram := bigram(terms, i)
			if strings.Contains(entity, gram) {
				bi += t.Bigrams[gram]
			}
		}
		total += unigramWeight*uni + bigramWeight*bi
	}
	return total
}

// QueryOverlap returns the fraction of terms that also appear in the query.
func QueryOverlap(terms []string, query map[string]struct{}) float64 {
	if len(terms) == 0 || len(query) == 0 {
		return 0
	}
	hits := 0
	for _, term := range terms {
		if _, ok := query[term]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

// TermSet collects the count-worthy terms of the given sentences.
func TermSet(sentences ...*docgroup.Sentence) map[string]struct{} {
	out := make(map[string]struct{})
	for _, s := range sentences {
		for _, term := range Terms(s) {
			out[term] = struct{}{}
		}
	}
	return out
}

func bigram(terms []string, i int) string {
	return terms[i-1] + " " + terms[i]
}

func trigram(terms []string, i int) string {
	return terms[i-2] + " " + terms[i-1] + " " + terms[i]
}

// pairKeys lists each unordered pair of distinct terms once.
func pairKeys(terms []string) []string {
	uniq := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		uniq = append(uniq, term)
	}
	var keys []string
	for i := 0; i < len(uniq); i++ {
		for j := i + 1; j < len(uniq); j++ {
			a, b := uniq[i], uniq[j]
			if b < a {
				a, b = b, a
			}
			keys = append(keys, a+"\x00"+b)
		}
	}
	return keys
}

func normalize(counts map[string]int, total int) map[string]float64 {
	out := make(map[string]float64, len(counts))
	if total == 0 {
		return out
	}
	for k, c := range counts {
		out[k] = float64(c) / float64(total)
	}
	return out
}

func cloneMap(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
