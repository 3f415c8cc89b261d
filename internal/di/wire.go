//go:build wireinject
// +build wireinject

package di

import (
	"FinScreen/pkg/config"
	"FinScreen/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisCache,
		ProvideClickHouseClient,

		// Data and symbol lists
		ProvideLoader,
		ProvideSymbolListProvider,
		ProvideTickerCache,

		// Screening
		ProvideNotifier,
		ProvideScreeners,
		ProvideResultStore,
		ProvideOrchestrator,

		// Query surface
		ProvideScreenersHandler,
		ProvideHTTPServer,

		ProvideApp,
	)
	return &server.App{}, nil
}
