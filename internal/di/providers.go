package di

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"SentiPulse/internal/domain/repository"
	domsvc "SentiPulse/internal/domain/service"
	"SentiPulse/internal/handler/api"
	mid "SentiPulse/internal/middleware"
	internalrepo "SentiPulse/internal/repository"
	"SentiPulse/internal/service/ratelimit"
	"SentiPulse/internal/service/sentiment"
	"SentiPulse/internal/service/twitter"
	svcmodels "SentiPulse/internal/services/models"
	"SentiPulse/internal/usecase"
	"SentiPulse/pkg/cache"
	pkgch "SentiPulse/pkg/clickhouse"
	"SentiPulse/pkg/config"
	xhttp "SentiPulse/pkg/http"
	pkgkafka "SentiPulse/pkg/kafka"
	applogger "SentiPulse/pkg/logger"
	"SentiPulse/pkg/metrics"
	"SentiPulse/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lc := &applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	if lc.Level == "" {
		lc.Level = "info"
	}
	if lc.Format == "" {
		lc.Format = "json"
	}
	if lc.Output == "" {
		lc.Output = "stdout"
	}
	return applogger.New(lc)
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, pkgch.SchemaStatements(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache builds the cache backend. Redis is layered under an in-process
// LRU when enabled; otherwise the in-process cache runs alone.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(redisCache), nil
}

// ProvideGate creates the get-or-compute cache gate.
func ProvideGate(svc cache.Service) *cache.Gate {
	return cache.NewGate(svc)
}

// ProvidePacer creates the per-source request pacer.
func ProvidePacer(cfg *config.Config) *ratelimit.Pacer {
	interval := cfg.Pipeline.LimiterInterval
	if interval <= 0 {
		interval = ratelimit.DefaultInterval
	}
	return ratelimit.NewPacer(interval)
}

// ProvideNormalizer creates the score normalizer.
func ProvideNormalizer() *sentiment.Normalizer {
	return sentiment.NewNormalizer(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// ProvideRecordStore creates the ClickHouse record store.
func ProvideRecordStore(chClient *pkgch.Client, cfg *config.Config) repository.RecordStore {
	db := cfg.ClickHouse.Database
	return internalrepo.NewClickHouseRecordStore(
		chClient.DB(),
		db+".sentiment_records",
		db+".sentiment_predictions",
	)
}

// ProvideRecordPublisher creates the Kafka publisher for sentiment records.
func ProvideRecordPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaRecordPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaMentionsHandler registers the handler for the mentions topic.
func ProvideKafkaMentionsHandler(store repository.RecordStore, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaMentionsHandler {
	return usecase.NewKafkaMentionsHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideMentionFetcher creates the Twitter recent-search client.
func ProvideMentionFetcher(cfg *config.Config) repository.MentionFetcher {
	base := cfg.Twitter.BaseURL
	if base == "" {
		base = "https://api.twitter.com"
	}
	return twitter.NewClient(base, cfg.Twitter.BearerToken, cfg.Twitter.Timeout)
}

// ProvideMentionStream creates the Twitter filtered-stream client.
func ProvideMentionStream(cfg *config.Config, log *applogger.Logger) repository.MentionStream {
	return twitter.NewStream(
		cfg.Twitter.BearerToken,
		cfg.Twitter.StreamURL,
		cfg.Twitter.Rules,
		cfg.Twitter.ReconnectDelay,
		cfg.Twitter.PingInterval,
		log,
	)
}

// ProvideClassifier creates the sentiment model sidecar client.
func ProvideClassifier(cfg *config.Config) domsvc.Classifier {
	return svcmodels.NewHTTPClassifier(cfg)
}

// ProvideSequenceModel creates the sequence forecast sidecar client.
func ProvideSequenceModel(cfg *config.Config) domsvc.SequenceModel {
	return svcmodels.NewHTTPSequenceModel(cfg)
}

// ProvideTrendModel creates the trend forecast sidecar client.
func ProvideTrendModel(cfg *config.Config) domsvc.TrendModel {
	return svcmodels.NewHTTPTrendModel(cfg)
}

// ProvideIngestor creates the ingestion orchestrator.
func ProvideIngestor(
	gate *cache.Gate,
	pacer *ratelimit.Pacer,
	fetcher repository.MentionFetcher,
	classifier domsvc.Classifier,
	normalizer *sentiment.Normalizer,
	store repository.RecordStore,
	pub repository.Publisher,
	metrics repository.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.Ingestor {
	opts := []usecase.IngestorOption{
		usecase.WithPersistence(store, pub),
	}
	if cfg.Pipeline.RecentTTL > 0 {
		opts = append(opts, usecase.WithRecentTTL(cfg.Pipeline.RecentTTL))
	}
	if cfg.Pipeline.AnalyzeTTL > 0 {
		opts = append(opts, usecase.WithAnalyzeTTL(cfg.Pipeline.AnalyzeTTL))
	}
	return usecase.NewIngestor(gate, pacer, fetcher, classifier, normalizer, metrics, log, opts...)
}

// ProvideAggregator creates the historical aggregation use case.
func ProvideAggregator(
	gate *cache.Gate,
	store repository.RecordStore,
	metrics repository.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.Aggregator {
	return usecase.NewAggregator(gate, store, metrics, log, cfg.Pipeline.HistoricalTTL)
}

// ProvideForecaster creates the forecast ensemble use case.
func ProvideForecaster(
	gate *cache.Gate,
	store repository.RecordStore,
	seq domsvc.SequenceModel,
	trend domsvc.TrendModel,
	metrics repository.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.Forecaster {
	return usecase.NewForecaster(gate, store, seq, trend, metrics, log, cfg.Pipeline.ForecastTTL)
}

// ProvideMentionProcessor creates the streaming mention processor.
func ProvideMentionProcessor(
	classifier domsvc.Classifier,
	normalizer *sentiment.Normalizer,
	pub repository.Publisher,
	store repository.RecordStore,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.MentionProcessor {
	return usecase.NewMentionProcessor(classifier, normalizer, pub, store, metrics, cfg.Backend.Type)
}

// ProvideMentionCollector creates the stream collector with its pipeline.
func ProvideMentionCollector(
	stream repository.MentionStream,
	processor *usecase.MentionProcessor,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.MentionCollector {
	popts := []mid.PipelineOption{}
	if cfg.Pipeline.MaxRPS > 0 {
		popts = append(popts, mid.WithMaxRPS(cfg.Pipeline.MaxRPS))
	}
	if cfg.Pipeline.BufferSize > 0 {
		popts = append(popts, mid.WithBufferSize(cfg.Pipeline.BufferSize))
	}
	pipe := mid.NewMentionPipeline(processor, metrics, popts...)
	return usecase.NewMentionCollector(stream, processor, metrics, pipe)
}

// ProvideHTTPHandler creates the Echo API handler.
func ProvideHTTPHandler(
	log *applogger.Logger,
	ingestor *usecase.Ingestor,
	aggregator *usecase.Aggregator,
	forecaster *usecase.Forecaster,
	store repository.RecordStore,
	cacheSvc cache.Service,
) xhttp.Handler {
	return api.NewSentimentEchoHandler(log, ingestor, aggregator, forecaster, store, cacheSvc)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.MentionCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaMentionsHandler,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
	handler xhttp.Handler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	// Aggregate error logs into Kafka when a log topic is configured
	if cfg.Kafka.LogTopic != "" && producer != nil {
		log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      producer,
		})
	}
	app := server.New(cfg, log, collector, consumer, kh, chClient)
	app.SetHTTPHandler(handler)
	if collector != nil {
		app.MentionProc = collector.Processor()
	}
	return app
}
