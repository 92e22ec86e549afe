package selection

import (
	"github.com/yanqian/newsdigest/internal/domain/docgroup"
	"github.com/yanqian/newsdigest/internal/domain/features"
	"github.com/yanqian/newsdigest/internal/domain/lexrank"
)

// scorer combines the six n-gram signals and the optional bias prior into one salience score.
type scorer struct {
	weights Weights
	query   map[string]struct{}
}

func newScorer(w Weights, group *docgroup.Group) scorer {
	return scorer{weights: w, query: features.TermSet(group.Query()...)}
}

func (s scorer) score(tables *features.Tables, c candidate, bias float64) float64 {
	w := s.weights
	total := w.Unigram*tables.Unigram(c.terms) +
		w.Bigram*tables.Bigram(c.terms) +
		w.Trigram*tables.Trigram(c.terms) +
		w.Cartesian*tables.Cartesian(c.terms) +
		w.Query*features.QueryOverlap(c.terms, s.query) +
		w.Bias*bias
	if w.Headline > 0 {
		total += w.Headline * tables.Headline(c.terms, headlineEntities(c.article), w.Unigram, w.Bigram)
	}
	return total
}

func headlineEntities(a *docgroup.Article) []string {
	if a == nil || a.Headline == nil {
		return nil
	}
	out := make([]string, 0, len(a.Headline.Entities))
	for _, e := range a.Headline.Entities {
		out = append(out, e.Text)
	}
	return out
}

// blendBias returns the per-candidate prior, or zeros when biasing is disabled.
func blendBias(cfg Config, group *docgroup.Group, cands []candidate, idf features.IDF) ([]float64, error) {
	out := make([]float64, len(cands))
	if cfg.Bias == lexrank.BiasNone || cfg.Weights.Bias == 0 || len(cands) == 0 {
		return out, nil
	}
	bias, err := lexrank.Bias(cfg.Bias, group.Query(), sentencesOf(cands), idf)
	if err != nil {
		return nil, err
	}
	copy(out, bias)
	return out, nil
}
