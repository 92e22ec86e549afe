package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/yanqian/newsdigest/internal/domain/docgroup"
	"github.com/yanqian/newsdigest/internal/domain/summarizer"
)

// ErrInvalidGroup marks annotated input that cannot form a document group.
var ErrInvalidGroup = errors.New("invalid document group")

const dateLayout = "2006-01-02"

// GroupDocument is the annotated JSON format produced by the annotator.
type GroupDocument struct {
	TopicID   string             `json:"topicId"`
	Title     *docgroup.Sentence `json:"title,omitempty"`
	Narrative *docgroup.Sentence `json:"narrative,omitempty"`
	Articles  []ArticleDocument  `json:"articles"`
}

// ArticleDocument is one annotated article. Date accepts YYYY-MM-DD or RFC 3339.
type ArticleDocument struct {
	ID         string                 `json:"id"`
	Date       string                 `json:"date"`
	Headline   *docgroup.Sentence     `json:"headline,omitempty"`
	Paragraphs [][]*docgroup.Sentence `json:"paragraphs"`
}

// Decode reads one annotated document group.
func Decode(r io.Reader) (*docgroup.Group, error) {
	var doc GroupDocument
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode group: %w", err)
	}
	return doc.Group()
}

// Group validates the document and builds the domain model.
func (d GroupDocument) Group() (*docgroup.Group, error) {
	if strings.TrimSpace(d.TopicID) == "" {
		return nil, fmt.Errorf("%w: topic id is required", ErrInvalidGroup)
	}
	group := &docgroup.Group{TopicID: d.TopicID, Title: d.Title, Narrative: d.Narrative}
	seen := make(map[string]struct{}, len(d.Articles))
	for i, a := range d.Articles {
		if strings.TrimSpace(a.ID) == "" {
			return nil, fmt.Errorf("%w: article %d has no id", ErrInvalidGroup, i)
		}
		if _, dup := seen[a.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate article %s", ErrInvalidGroup, a.ID)
		}
		seen[a.ID] = struct{}{}
		date, err := parseDate(a.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: article %s: %v", ErrInvalidGroup, a.ID, err)
		}
		for p, para := range a.Paragraphs {
			for s, sentence := range para {
				if sentence == nil {
					return nil, fmt.Errorf("%w: article %s paragraph %d sentence %d is null", ErrInvalidGroup, a.ID, p, s)
				}
			}
		}
		group.Articles = append(group.Articles, docgroup.NewArticle(a.ID, date, a.Headline, a.Paragraphs))
	}
	return group, nil
}

// Encode writes group in the annotated JSON format.
func Encode(w io.Writer, group *docgroup.Group) error {
	doc := GroupDocument{TopicID: group.TopicID, Title: group.Title, Narrative: group.Narrative}
	for _, a := range group.Articles {
		doc.Articles = append(doc.Articles, ArticleDocument{
			ID:         a.ID,
			Date:       a.Date.Format(dateLayout),
			Headline:   a.Headline,
			Paragraphs: a.Paragraphs,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// SummaryName is the output name of a summary: the topic, the "A.M.100" run tag and a short run id.
func SummaryName(s summarizer.Summary) string {
	run := s.ID
	if len(run) > 8 {
		run = run[:8]
	}
	return fmt.Sprintf("%s-A.M.100.%s", s.TopicID, run)
}

// SummaryText renders the newline-separated summary body.
func SummaryText(s summarizer.Summary) []byte {
	if s.Text == "" {
		return nil
	}
	return []byte(s.Text + "\n")
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
