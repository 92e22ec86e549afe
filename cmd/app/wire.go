//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/newsdigest/internal/bootstrap"
	"github.com/yanqian/newsdigest/internal/infra/config"
	httpiface "github.com/yanqian/newsdigest/internal/interface/http"
	"github.com/yanqian/newsdigest/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideLexicon,
		provideVectorSource,
		providePairModels,
		provideSummaryRepository,
		bootstrap.NewSummarizer,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
