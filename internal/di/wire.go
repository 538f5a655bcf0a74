//go:build wireinject
// +build wireinject

package di

import (
	"SentiPulse/pkg/config"
	"SentiPulse/pkg/server"

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
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,
		ProvideGate,
		ProvidePacer,
		ProvideNormalizer,

		// Repositories
		ProvideRecordStore,
		ProvideRecordPublisher,
		ProvideMentionFetcher,
		ProvideMentionStream,

		// Model sidecar clients
		ProvideClassifier,
		ProvideSequenceModel,
		ProvideTrendModel,

		// Use cases
		ProvideIngestor,
		ProvideAggregator,
		ProvideForecaster,
		ProvideMentionProcessor,
		ProvideMentionCollector,
		ProvideKafkaMentionsHandler,

		// HTTP and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
