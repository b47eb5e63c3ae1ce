//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/survey-dashboard/internal/bootstrap"
	"github.com/yanqian/survey-dashboard/internal/domain/survey"
	"github.com/yanqian/survey-dashboard/internal/infra/config"
	httpiface "github.com/yanqian/survey-dashboard/internal/interface/http"
	"github.com/yanqian/survey-dashboard/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideSurveyConfig,
		provideDatasets,
		provideSource,
		provideScoreStore,
		survey.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
