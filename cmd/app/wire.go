//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/synergy-circle/internal/bootstrap"
	"github.com/yanqian/synergy-circle/internal/domain/access"
	"github.com/yanqian/synergy-circle/internal/domain/discovery"
	"github.com/yanqian/synergy-circle/internal/infra/config"
	httpiface "github.com/yanqian/synergy-circle/internal/interface/http"
	"github.com/yanqian/synergy-circle/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideDiscoveryConfig,
		provideAccessConfig,
		provideGeminiClient,
		provideGenerator,
		provideMetricsCollector,
		provideHistoryStore,
		provideWebHandler,
		discovery.NewService,
		access.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
