// Package docgrouptest builds annotated fixtures without an external annotator.
package docgrouptest

import (
	"hash/fnv"
	"strings"
	"time"
	"unicode"

	"github.com/yanqian/newsdigest/internal/domain/docgroup"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "of": {}, "to": {}, "in": {}, "on": {},
	"at": {}, "for": {}, "with": {}, "by": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "it": {},
	"he": {}, "she": {}, "they": {}, "this": {}, "that": {}, "there": {}, "as": {}, "from": {}, "has": {},
	"had": {}, "have": {}, "his": {}, "her": {}, "their": {}, "its": {}, "said": {}, "will": {}, "would": {},
}

// Sentence tokenizes text on whitespace, splitting trailing punctuation into separate tokens.
func Sentence(text string) *docgroup.Sentence {
	var tokens []docgroup.Token
	for _, field := range strings.Fields(text) {
		core, trail := splitTrailingPunct(field)
		if core == "" {
			core, trail = field, ""
		}
		tokens = append(tokens, word(core))
		for _, r := range trail {
			tokens[len(tokens)-1].Whitespace = false
			tokens = append(tokens, punct(string(r)))
		}
		if len(tokens) > 0 {
			tokens[len(tokens)-1].Whitespace = true
		}
	}
	if len(tokens) > 0 {
		tokens[len(tokens)-1].Whitespace = false
	}
	return &docgroup.Sentence{Text: text, Tokens: tokens}
}

// WithVectors attaches a deterministic embedding derived from each token's lower-cased text.
func WithVectors(s *docgroup.Sentence, dim int) *docgroup.Sentence {
	for i := range s.Tokens {
		if s.Tokens[i].IsPunct {
			continue
		}
		s.Tokens[i].Vector = HashVector(s.Tokens[i].Norm(), dim)
	}
	return s
}

// HashVector derives a pseudo-random but stable vector from text.
func HashVector(text string, dim int) []float32 {
	hash := fnv.New64a()
	_, _ = hash.Write([]byte(text))
	seed := hash.Sum64()
	out := make([]float32, dim)
	for j := range out {
		seed = seed*1099511628211 + 1469598103934665603
		out[j] = float32(seed%997)/997.0 - 0.5
	}
	return out
}

// Tok builds a tagged token. Head is the index of the syntactic head within the sentence.
func Tok(text, pos, tag, dep string, head int) docgroup.Token {
	t := word(text)
	t.POS = pos
	t.Tag = tag
	t.Dep = dep
	t.Head = head
	if pos == "PUNCT" {
		t.IsPunct = true
	}
	return t
}

// Tagged assembles a sentence from tagged tokens, separating words with single spaces.
func Tagged(tokens ...docgroup.Token) *docgroup.Sentence {
	for i := range tokens {
		tokens[i].Whitespace = i+1 < len(tokens) && !tokens[i+1].IsPunct
	}
	return &docgroup.Sentence{Text: docgroup.JoinTokens(tokens), Tokens: tokens}
}

// Article builds a single-paragraph-per-sentence article dated on the given day.
func Article(id string, date string, sentences ...*docgroup.Sentence) *docgroup.Article {
	paragraphs := make([][]*docgroup.Sentence, 0, len(sentences))
	for _, s := range sentences {
		paragraphs = append(paragraphs, []*docgroup.Sentence{s})
	}
	return docgroup.NewArticle(id, Date(date), nil, paragraphs)
}

// Date parses a YYYY-MM-DD date, panicking on malformed fixtures.
func Date(value string) time.Time {
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return d
}

func word(text string) docgroup.Token {
	lower := strings.ToLower(text)
	_, stop := stopWords[lower]
	return docgroup.Token{
		Text:    text,
		Lower:   lower,
		Lemma:   lower,
		IsStop:  stop,
		LikeNum: isNumber(text),
		IsPunct: isAllPunct(text),
		Head:    -1,
	}
}

func punct(text string) docgroup.Token {
	return docgroup.Token{Text: text, Lower: text, Lemma: text, POS: "PUNCT", IsPunct: true, Head: -1}
}

func splitTrailingPunct(field string) (string, string) {
	end := len(field)
	for end > 0 && strings.ContainsRune(".,;:?!", rune(field[end-1])) {
		end--
	}
	return field[:end], field[end:]
}

func isNumber(text string) bool {
	digits := 0
	for _, r := range text {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r != ',' && r != '.':
			return false
		}
	}
	return digits > 0
}

func isAllPunct(text string) bool {
	for _, r := range text {
		if !unicode.IsPunct(r) {
			return false
		}
	}
	return text != ""
}
