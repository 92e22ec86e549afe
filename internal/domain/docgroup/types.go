package docgroup

import (
	"strings"
	"time"
)

// Token is one annotated token as produced by the annotator.
type Token struct {
	Text       string    `json:"text"`
	Lower      string    `json:"lower,omitempty"`
	Lemma      string    `json:"lemma,omitempty"`
	POS        string    `json:"pos,omitempty"`
	Tag        string    `json:"tag,omitempty"`
	Dep        string    `json:"dep,omitempty"`
	Head       int       `json:"head"`
	Whitespace bool      `json:"ws"`
	IsPunct    bool      `json:"isPunct,omitempty"`
	IsStop     bool      `json:"isStop,omitempty"`
	LikeNum    bool      `json:"likeNum,omitempty"`
	LikeURL    bool      `json:"likeUrl,omitempty"`
	LikeEmail  bool      `json:"likeEmail,omitempty"`
	Vector     []float32 `json:"vector,omitempty"`
}

// Norm returns the lower-cased form used as vocabulary key.
func (t Token) Norm() string {
	if t.Lower != "" {
		return t.Lower
	}
	return strings.ToLower(t.Text)
}

// HasVector reports whether the token carries a non-empty embedding.
func (t Token) HasVector() bool {
	return len(t.Vector) > 0
}

// Entity is a named-entity span over sentence tokens, End exclusive.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label,omitempty"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Sentence is an annotated sentence unit. It is never mutated after its article is built.
type Sentence struct {
	Text     string   `json:"text"`
	Tokens   []Token  `json:"tokens"`
	Entities []Entity `json:"entities,omitempty"`

	// Index is the ordinal of the sentence within its article, across paragraphs.
	Index     int    `json:"-"`
	Paragraph int    `json:"-"`
	ArticleID string `json:"-"`
}

// Article is an ordered sequence of paragraphs of sentences.
type Article struct {
	ID         string
	Date       time.Time
	Headline   *Sentence
	Paragraphs [][]*Sentence

	sentences []*Sentence
}

// Group holds every article for one topic plus the topic query.
type Group struct {
	TopicID   string
	Title     *Sentence
	Narrative *Sentence
	Articles  []*Article
}

// NewArticle builds an article and stamps position metadata on its sentences.
func NewArticle(id string, date time.Time, headline *Sentence, paragraphs [][]*Sentence) *Article {
	a := &Article{ID: id, Date: date, Headline: headline, Paragraphs: paragraphs}
	idx := 0
	for p, para := range paragraphs {
		for _, s := range para {
			s.Index = idx
			s.Paragraph = p
			s.ArticleID = id
			a.sentences = append(a.sentences, s)
			idx++
		}
	}
	if headline != nil {
		headline.Index = -1
		headline.ArticleID = id
	}
	return a
}

// Sentences returns the article's sentences in document order.
func (a *Article) Sentences() []*Sentence {
	return a.sentences
}

// SentenceCount returns the number of body sentences.
func (a *Article) SentenceCount() int {
	return len(a.sentences)
}

// IsBoundary reports whether s is the first or the last sentence of the article.
func (a *Article) IsBoundary(s *Sentence) bool {
	n := len(a.sentences)
	return n > 0 && (s.Index == 0 || s.Index == n-1)
}

// Sentences flattens every article's sentences in article order.
func (g *Group) Sentences() []*Sentence {
	var out []*Sentence
	for _, a := range g.Articles {
		out = append(out, a.sentences...)
	}
	return out
}

// Headlines returns the non-nil article headlines.
func (g *Group) Headlines() []*Sentence {
	var out []*Sentence
	for _, a := range g.Articles {
		if a.Headline != nil {
			out = append(out, a.Headline)
		}
	}
	return out
}

// Query returns the annotated topic query, preferring the title over the narrative.
func (g *Group) Query() []*Sentence {
	var out []*Sentence
	if g.Title != nil {
		out = append(out, g.Title)
	}
	if g.Narrative != nil {
		out = append(out, g.Narrative)
	}
	return out
}
