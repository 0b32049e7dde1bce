//go:build wireinject
// +build wireinject

package di

import (
	"StockOracle/pkg/config"
	"StockOracle/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisClient,
		ProvideResponseCache,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideClickHouseClient,

		// Collaborators
		ProvideOracleClient,
		ProvideMarketData,
		ProvideAlertStore,
		ProvidePredictionLog,
		ProvideAccuracySource,

		// Alert fan-out
		ProvideAlertHub,
		ProvideAlertFeed,
		ProvideAlertBandProjector,

		// Use cases
		ProvideAlertEngine,
		ProvideChartView,
		ProvideDashboardAggregator,
		ProvideSession,

		// Transport
		ProvideHandlers,
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
