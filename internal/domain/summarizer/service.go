package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yanqian/newsdigest/internal/domain/content"
	"github.com/yanqian/newsdigest/internal/domain/docgroup"
	"github.com/yanqian/newsdigest/internal/domain/features"
	"github.com/yanqian/newsdigest/internal/domain/lexrank"
	"github.com/yanqian/newsdigest/internal/domain/ordering"
	"github.com/yanqian/newsdigest/internal/domain/realization"
	"github.com/yanqian/newsdigest/internal/domain/selection"
	"github.com/yanqian/newsdigest/internal/domain/similarity"
	apperrors "github.com/yanqian/newsdigest/pkg/errors"
	"github.com/yanqian/newsdigest/pkg/metrics"
	"github.com/yanqian/newsdigest/pkg/util"
)

// Service exposes multi-document summarization.
type Service interface {
	Summarize(ctx context.Context, group *docgroup.Group) (Summary, error)
	SummarizeAll(ctx context.Context, groups []*docgroup.Group) ([]Summary, error)
	Get(ctx context.Context, id string) (Summary, error)
	Latest(ctx context.Context, topicID string) (Summary, error)
}

// Dependencies are the collaborators shared by every run. Only IDF is always used;
// the models are needed by the configurations that ask for them and Repo may be nil.
type Dependencies struct {
	IDF        features.IDF
	Pair       similarity.PairScorer
	Succession ordering.SuccessionModel
	Repo       Repository
}

type service struct {
	cfg      Config
	selector selection.Selector
	realizer *realization.Realizer
	orderer  *ordering.Orderer
	repo     Repository
	logger   *slog.Logger
}

// NewService is a wire provider for the summarizer domain. Invalid stage configuration fails here.
func NewService(cfg Config, deps Dependencies, logger *slog.Logger) (Service, error) {
	selector, err := selection.New(cfg.Selection, selection.Deps{IDF: deps.IDF, Pair: deps.Pair}, logger)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidConfig, "invalid selection config", err)
	}
	realizer, err := realization.New(cfg.Realization, realization.Deps{Pair: deps.Pair}, logger)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidConfig, "invalid realization config", err)
	}
	orderer, err := ordering.New(cfg.Ordering, deps.Succession, logger)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidConfig, "invalid ordering config", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &service{
		cfg:      cfg,
		selector: selector,
		realizer: realizer,
		orderer:  orderer,
		repo:     deps.Repo,
		logger:   logger.With("component", "summarizer.service"),
	}, nil
}

func (s *service) Summarize(ctx context.Context, group *docgroup.Group) (Summary, error) {
	if group == nil || len(group.Articles) == 0 {
		return Summary{}, apperrors.Wrap(apperrors.CodeInvalidInput, "document group has no articles", nil)
	}
	method := string(s.cfg.Selection.Method)

	summary, err := s.run(ctx, group)
	if err != nil {
		metrics.RecordSummary(method, "error", 0)
		s.logger.Error("summarization failed", "topic", group.TopicID, "error", err)
		return Summary{}, err
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, summary); err != nil {
			metrics.RecordSummary(method, "error", 0)
			return Summary{}, apperrors.Wrap(apperrors.CodeStorage, "failed to persist summary", err)
		}
	}
	metrics.RecordSummary(method, "ok", summary.WordCount)
	s.logger.Info("summary produced", "topic", group.TopicID, "id", summary.ID, "sentences", len(summary.Sentences), "words", summary.WordCount)
	return summary, nil
}

func (s *service) run(ctx context.Context, group *docgroup.Group) (Summary, error) {
	start := time.Now()
	selected, err := s.selector.Select(ctx, group)
	if err != nil {
		return Summary{}, classify("selection", err)
	}
	metrics.RecordStage("selection", time.Since(start).Seconds())

	start = time.Now()
	realized, err := s.realizer.Realize(ctx, selected)
	if err != nil {
		return Summary{}, classify("realization", err)
	}
	metrics.RecordStage("realization", time.Since(start).Seconds())

	ordered := realized
	if len(realized) > 0 {
		start = time.Now()
		ordered, err = s.orderer.Order(ctx, realized)
		if err != nil {
			return Summary{}, classify("ordering", err)
		}
		metrics.RecordStage("ordering", time.Since(start).Seconds())
	}

	s.logger.Debug("pipeline finished",
		"topic", group.TopicID,
		"selected", len(selected),
		"realized", len(realized),
	)
	return s.build(group, ordered), nil
}

func (s *service) build(group *docgroup.Group, items []*content.Item) Summary {
	sentences := make([]Sentence, 0, len(items))
	for _, it := range items {
		sentence := Sentence{
			Text:     it.RealizedText,
			Original: it.Sentence.Text,
			Index:    it.Sentence.Index,
			Score:    it.Score,
		}
		if it.Article != nil {
			sentence.ArticleID = it.Article.ID
		}
		sentences = append(sentences, sentence)
	}
	return Summary{
		ID:        uuid.NewString(),
		TopicID:   group.TopicID,
		Method:    string(s.cfg.Selection.Method),
		Sentences: sentences,
		Text:      strings.Join(content.Texts(items), "\n"),
		WordCount: content.TotalWords(items),
		CreatedAt: util.NowUTC(),
		Centroid:  centroid(items),
	}
}

// SummarizeAll runs topics concurrently, bounded by the configured worker count.
// Results keep the order of groups; the first failure cancels the remaining runs.
func (s *service) SummarizeAll(ctx context.Context, groups []*docgroup.Group) ([]Summary, error) {
	out := make([]Summary, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			summary, err := s.Summarize(gctx, group)
			if err != nil {
				return fmt.Errorf("topic %s: %w", topicOf(group), err)
			}
			out[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id string) (Summary, error) {
	if strings.TrimSpace(id) == "" {
		return Summary{}, apperrors.Wrap(apperrors.CodeInvalidInput, "summary id cannot be empty", nil)
	}
	return s.lookup(func(repo Repository) (Summary, error) { return repo.Get(ctx, id) })
}

func (s *service) Latest(ctx context.Context, topicID string) (Summary, error) {
	if strings.TrimSpace(topicID) == "" {
		return Summary{}, apperrors.Wrap(apperrors.CodeInvalidInput, "topic id cannot be empty", nil)
	}
	return s.lookup(func(repo Repository) (Summary, error) { return repo.Latest(ctx, topicID) })
}

func (s *service) lookup(find func(Repository) (Summary, error)) (Summary, error) {
	if s.repo == nil {
		return Summary{}, apperrors.Wrap(apperrors.CodeNotFound, "summary not found", nil)
	}
	summary, err := find(s.repo)
	if errors.Is(err, ErrNotFound) {
		return Summary{}, apperrors.Wrap(apperrors.CodeNotFound, "summary not found", err)
	}
	if err != nil {
		return Summary{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load summary", err)
	}
	return summary, nil
}

// classify maps stage failures onto application error codes.
func classify(stage string, err error) error {
	msg := stage + " failed"
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, lexrank.ErrZeroRow), errors.Is(err, lexrank.ErrNotConverged),
		errors.Is(err, lexrank.ErrBiasLength), errors.Is(err, lexrank.ErrNotSquare):
		return apperrors.Wrap(apperrors.CodeRanking, msg, err)
	case errors.Is(err, selection.ErrPoolTooLarge):
		return apperrors.Wrap(apperrors.CodeInvalidInput, msg, err)
	}
	return apperrors.Wrap(apperrors.CodeModel, msg, err)
}

func centroid(items []*content.Item) []float32 {
	var (
		sum   []float64
		count int
	)
	for _, it := range items {
		v := it.Sentence.MeanVector()
		if v == nil || (sum != nil && len(v) != len(sum)) {
			continue
		}
		if sum == nil {
			sum = make([]float64, len(v))
		}
		for i, x := range v {
			sum[i] += x
		}
		count++
	}
	if count == 0 {
		return nil
	}
	out := make([]float32, len(sum))
	for i, x := range sum {
		out[i] = float32(x / float64(count))
	}
	return out
}

func topicOf(group *docgroup.Group) string {
	if group == nil {
		return "<nil>"
	}
	return group.TopicID
}
