//go:build wireinject
// +build wireinject

package di

import (
	"PaperDeck/pkg/config"
	"PaperDeck/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideClock,

		// Shared state
		ProvideStore,

		// External services
		ProvidePaperAPI,
		ProvideBrokerage,
		ProvideIndicatorSource,
		ProvideMarketStream,
		ProvideSettingsFeed,
		ProvideRedisClient,
		ProvideStatsCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Alerts and ensemble
		ProvideAlertQueue,
		ProvideAlertDispatcher,
		ProvideRegistry,
		ProvideTimeframes,
		ProvideScorer,

		// Recording path
		ProvideTickStore,
		ProvideTickPublisher,
		ProvideTickRecorder,

		// Use cases
		ProvideScheduler,
		ProvidePriceCollector,
		ProvideSynchronizer,
		ProvideMonitor,

		// HTTP surface
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
