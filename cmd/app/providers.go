package main

import (
	"context"
	"log/slog"

	"github.com/yanqian/newsdigest/internal/bootstrap"
	"github.com/yanqian/newsdigest/internal/domain/summarizer"
	"github.com/yanqian/newsdigest/internal/infra/config"
	"github.com/yanqian/newsdigest/internal/infra/lexicon"
)

func provideLexicon(cfg *config.Config, logger *slog.Logger) (*bootstrap.Lexicon, func(), error) {
	lex, err := bootstrap.OpenLexicon(context.Background(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return lex, lex.Close, nil
}

func provideVectorSource(lex *bootstrap.Lexicon) lexicon.VectorSource {
	return lex.Vectors
}

func providePairModels(cfg *config.Config, logger *slog.Logger) (bootstrap.PairModels, error) {
	return bootstrap.NewPairModels(cfg, logger)
}

func provideSummaryRepository(cfg *config.Config, logger *slog.Logger) (summarizer.Repository, func()) {
	return bootstrap.NewSummaryRepository(context.Background(), cfg, logger)
}
