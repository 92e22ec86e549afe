package selection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/yanqian/newsdigest/internal/domain/content"
	"github.com/yanqian/newsdigest/internal/domain/docgroup"
	"github.com/yanqian/newsdigest/internal/domain/features"
	"github.com/yanqian/newsdigest/internal/domain/lexrank"
	"github.com/yanqian/newsdigest/internal/domain/similarity"
)

// Method names a selection strategy.
type Method string

const (
	// MethodPerArticle scores each article independently with n-gram signals and keeps its top K.
	MethodPerArticle Method = "ngram"
	// MethodGlob pools every article and picks greedily with dynamic reweighting.
	MethodGlob Method = "glob"
	// MethodBaseline takes the lead sentence of the first and last paragraph of every article.
	MethodBaseline Method = "baseline"
	// MethodGraphRank ranks the pooled sentences with LexRank.
	MethodGraphRank Method = "lexrank"
)

// ErrUnknownMethod is returned for unrecognized strategy names.
var ErrUnknownMethod = errors.New("unknown selection method")

// ErrPoolTooLarge is returned when the paraphrase metric would score too many pairs.
var ErrPoolTooLarge = errors.New("candidate pool too large for paraphrase metric")

// ParseMethod resolves a configured strategy name.
func ParseMethod(name string) (Method, error) {
	switch Method(name) {
	case MethodPerArticle, MethodGlob, MethodBaseline, MethodGraphRank:
		return Method(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, name)
}

// Weights are the non-negative multipliers of each scoring signal. A zero weight disables the signal.
type Weights struct {
	Unigram   float64
	Bigram    float64
	Trigram   float64
	Headline  float64
	Cartesian float64
	Query     float64
	Bias      float64
}

// Config configures candidate eligibility and the chosen strategy.
type Config struct {
	Method            Method
	Weights           Weights
	MinLength         int
	PerArticle        int
	GlobalCount       int
	ExcludePatterns   []string
	IncludeHeadlines  bool
	Bias              lexrank.BiasKind
	Metric            similarity.Metric
	Rank              lexrank.Config
	MaxParaphrasePool int
}

// DefaultConfig mirrors the tuned defaults of the per-article selector.
func DefaultConfig() Config {
	return Config{
		Method:            MethodPerArticle,
		Weights:           Weights{Unigram: 1, Bigram: 1, Trigram: 1, Headline: 1},
		MinLength:         8,
		PerArticle:        2,
		GlobalCount:       20,
		Bias:              lexrank.BiasNone,
		Metric:            similarity.MetricBagOfWords,
		Rank:              lexrank.DefaultConfig(),
		MaxParaphrasePool: 40,
	}
}

// Deps are the external collaborators a selector may need.
type Deps struct {
	IDF  features.IDF
	Pair similarity.PairScorer
}

// Selector turns a document group into scored, not yet budgeted content items.
type Selector interface {
	Select(ctx context.Context, group *docgroup.Group) ([]*content.Item, error)
}

// New builds the strategy named by cfg.Method. Invalid configuration fails here rather than on first use.
func New(cfg Config, deps Deps, logger *slog.Logger) (Selector, error) {
	if _, err := ParseMethod(string(cfg.Method)); err != nil {
		return nil, err
	}
	if err := cfg.Weights.validate(); err != nil {
		return nil, err
	}
	if deps.IDF == nil {
		deps.IDF = features.UniformIDF{}
	}
	filter, err := newEligibility(cfg.MinLength, cfg.ExcludePatterns)
	if err != nil {
		return nil, err
	}
	bias, err := lexrank.ParseBias(string(cfg.Bias))
	if err != nil {
		return nil, err
	}
	cfg.Bias = bias
	logger = logger.With("component", "selection."+string(cfg.Method))

	switch cfg.Method {
	case MethodPerArticle:
		if cfg.PerArticle <= 0 {
			return nil, errors.New("per-article count must be positive")
		}
		return &perArticle{cfg: cfg, idf: deps.IDF, filter: filter, logger: logger}, nil
	case MethodGlob:
		if cfg.GlobalCount <= 0 {
			return nil, errors.New("global count must be positive")
		}
		return &glob{cfg: cfg, idf: deps.IDF, filter: filter, logger: logger}, nil
	case MethodBaseline:
		return &baseline{logger: logger}, nil
	default:
		if cfg.GlobalCount <= 0 {
			return nil, errors.New("global count must be positive")
		}
		if err := cfg.Rank.Validate(); err != nil {
			return nil, err
		}
		builder, err := similarity.NewBuilder(cfg.Metric, deps.IDF, deps.Pair)
		if err != nil {
			return nil, err
		}
		return &graphRank{cfg: cfg, idf: deps.IDF, builder: builder, filter: filter, logger: logger}, nil
	}
}

func (w Weights) validate() error {
	for _, v := range []float64{w.Unigram, w.Bigram, w.Trigram, w.Headline, w.Cartesian, w.Query, w.Bias} {
		if v < 0 {
			return errors.New("selection weights must be non-negative")
		}
	}
	return nil
}

// eligibility excludes sentences before any scoring budget is spent.
type eligibility struct {
	minLength int
	exclude   []*regexp.Regexp
}

func newEligibility(minLength int, patterns []string) (eligibility, error) {
	e := eligibility{minLength: minLength}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return eligibility{}, fmt.Errorf("compile exclusion pattern %q: %w", p, err)
		}
		e.exclude = append(e.exclude, re)
	}
	return e, nil
}

func (e eligibility) ok(s *docgroup.Sentence) bool {
	if s.WordCount() < e.minLength || s.HasQuote() || !docgroup.HasTerminalPunct(s.Text) {
		return false
	}
	for _, re := range e.exclude {
		if re.MatchString(s.Text) {
			return false
		}
	}
	return true
}

// candidate is a sentence under consideration with its count-worthy terms precomputed.
type candidate struct {
	sentence *docgroup.Sentence
	article  *docgroup.Article
	terms    []string
}

func newCandidate(s *docgroup.Sentence, a *docgroup.Article) candidate {
	return candidate{sentence: s, article: a, terms: features.Terms(s)}
}

func sentencesOf(cands []candidate) []*docgroup.Sentence {
	out := make([]*docgroup.Sentence, len(cands))
	for i, c := range cands {
		out[i] = c.sentence
	}
	return out
}
