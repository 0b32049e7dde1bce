package di

import (
	"context"
	"fmt"
	"time"

	"StockOracle/internal/domain/repository"
	"StockOracle/internal/domain/service"
	"StockOracle/internal/handler/api"
	"StockOracle/internal/handler/stream"
	internalrepo "StockOracle/internal/repository"
	"StockOracle/internal/service/oracle"
	"StockOracle/internal/service/ratelimit"
	"StockOracle/internal/usecase"
	"StockOracle/pkg/cache"
	pkgch "StockOracle/pkg/clickhouse"
	"StockOracle/pkg/config"
	xhttp "StockOracle/pkg/http"
	pkgkafka "StockOracle/pkg/kafka"
	applogger "StockOracle/pkg/logger"
	"StockOracle/pkg/metrics"
	"StockOracle/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus recorder, or a no-op one when metrics
// are disabled.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideRedisClient connects to Redis when enabled; nil otherwise.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	client, err := cache.NewRedisClient(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis client: %w", err)
	}
	return client, nil
}

// ProvideResponseCache puts a memory layer in front of Redis when Redis is
// available and falls back to memory alone.
func ProvideResponseCache(cfg *config.Config, rc *redis.Client) cache.Service {
	if rc == nil {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(500))
	}
	return cache.NewLayeredCache(
		cache.NewRedisCache(rc, cfg.Redis.Prefix+":cache"),
		cache.WithLayeredMemorySize(500),
		cache.WithLayeredL1TTL(15*time.Second),
	)
}

// ProvideKafkaProducer creates a producer when kafka is enabled and, if log
// collection is on, ships aggregated errors through it.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	if cfg.Log.Collect.Enabled {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Log.Collect.Interval,
			CountThreshold: cfg.Log.Collect.CountThreshold,
			Topic:          cfg.Log.Collect.Topic,
			Publisher:      producer,
		})
	}
	return producer, nil
}

// ProvideKafkaConsumer creates a consumer when kafka is enabled; nil otherwise.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideClickHouseClient connects and prepares the prediction log schema
// when clickhouse is enabled; nil otherwise.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.PredictionSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideOracleClient creates the market backend client.
func ProvideOracleClient(cfg *config.Config, c cache.Service, m repository.Metrics, l *applogger.Logger) *oracle.Client {
	return oracle.New(cfg.Oracle.BaseURL,
		oracle.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Oracle.Timeout))),
		oracle.WithCache(c, cfg.Oracle.CacheTTL.History, cfg.Oracle.CacheTTL.News, cfg.Oracle.CacheTTL.Validate),
		oracle.WithRateLimit(ratelimit.New(), cfg.Oracle.Rate, cfg.Oracle.Burst),
		oracle.WithMetrics(m),
		oracle.WithLogger(l),
	)
}

func ProvideMarketData(c *oracle.Client) service.MarketData {
	return c
}

// ProvideAlertStore picks the alert backend: the REST collaborator, or
// Redis directly.
func ProvideAlertStore(cfg *config.Config, c *oracle.Client, rc *redis.Client) repository.AlertStore {
	if cfg.Alerts.Backend == "redis" && rc != nil {
		return internalrepo.NewRedisAlertStore(rc, cfg.Redis.Prefix)
	}
	return c.Alerts()
}

// ProvidePredictionLog is nil unless clickhouse is enabled.
func ProvidePredictionLog(ch *pkgch.Client, l *applogger.Logger) repository.PredictionLog {
	if ch == nil {
		return nil
	}
	return internalrepo.NewCHPredictionLog(ch, l)
}

// ProvideAccuracySource uses the local prediction log when configured,
// the backend's figure otherwise.
func ProvideAccuracySource(cfg *config.Config, c *oracle.Client, log repository.PredictionLog, md service.MarketData) service.AccuracySource {
	if cfg.Chart.AccuracySource == "local" && log != nil {
		return usecase.NewAccuracyTracker(log, md)
	}
	return c
}

func ProvideAlertHub(cfg *config.Config, l *applogger.Logger) *stream.AlertHub {
	return stream.NewAlertHub(l, cfg.Server.AllowedOrigins)
}

// ProvideAlertFeed publishes alert changes to kafka; nil without a producer.
func ProvideAlertFeed(cfg *config.Config, producer *pkgkafka.Producer, l *applogger.Logger) *internalrepo.KafkaAlertPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaAlertPublisher(producer, cfg.Alerts.Topic, l)
}

// ProvideAlertEngine creates the engine and subscribes the websocket hub and
// the kafka feed.
func ProvideAlertEngine(store repository.AlertStore, m repository.Metrics, l *applogger.Logger, hub *stream.AlertHub, feed *internalrepo.KafkaAlertPublisher) *usecase.AlertEngine {
	engine := usecase.NewAlertEngine(store, m, l)
	engine.Subscribe(hub)
	if feed != nil {
		engine.Subscribe(feed)
	}
	return engine
}

func ProvideChartView(
	cfg *config.Config,
	md service.MarketData,
	engine *usecase.AlertEngine,
	acc service.AccuracySource,
	log repository.PredictionLog,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.ChartView {
	opts := []usecase.ChartOption{
		usecase.WithAccuracySource(acc),
		usecase.WithForecastDays(cfg.Chart.ForecastDays),
	}
	if r, ok := repository.NormalizeRange(cfg.Chart.DefaultRange); ok {
		opts = append(opts, usecase.WithDefaultRange(r))
	}
	if log != nil {
		opts = append(opts, usecase.WithPredictionLog(log))
	}
	return usecase.NewChartView(md, engine, m, l, opts...)
}

func ProvideDashboardAggregator(cfg *config.Config, md service.MarketData, m repository.Metrics, l *applogger.Logger) *usecase.DashboardAggregator {
	return usecase.NewDashboardAggregator(md, m, l,
		repository.Period(cfg.Dashboard.HistoryPeriod),
		cfg.Dashboard.ForecastDays,
		cfg.Dashboard.Concurrency,
	)
}

func ProvideSession(
	cfg *config.Config,
	md service.MarketData,
	agg *usecase.DashboardAggregator,
	chart *usecase.ChartView,
	engine *usecase.AlertEngine,
	l *applogger.Logger,
) *usecase.Session {
	return usecase.NewSession(md, agg, chart, engine, l, cfg.Dashboard.Tickers)
}

// ProvideAlertBandProjector registers the band projection on the consumer.
// It is nil without kafka.
func ProvideAlertBandProjector(cfg *config.Config, consumer *pkgkafka.Consumer, m repository.Metrics, l *applogger.Logger) *usecase.AlertBandProjector {
	if consumer == nil {
		return nil
	}
	p := usecase.NewAlertBandProjector(cfg.Alerts.Topic, m, l)
	consumer.RegisterHandler(p)
	return p
}

func ProvideHandlers(cfg *config.Config, l *applogger.Logger, session *usecase.Session, hub *stream.AlertHub) []xhttp.Handler {
	return []xhttp.Handler{
		api.NewDashboardHandler(l, session),
		api.NewChartHandler(l, session.Chart()),
		api.NewAlertHandler(l, session.Alerts(), session.Chart(), cfg.Alerts.DefaultThreshold),
		hub,
	}
}

func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, handlers []xhttp.Handler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(l, handlers,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithAllowOrigins(cfg.Server.AllowedOrigins),
		xhttp.WithMetricsPath(metricsPath),
	)
}

// ProvideApp assembles the application. The projector is requested only so
// that it gets registered on the consumer.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	hub *stream.AlertHub,
	feed *internalrepo.KafkaAlertPublisher,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	_ *usecase.AlertBandProjector,
	ch *pkgch.Client,
	rc *redis.Client,
	c cache.Service,
) *server.App {
	app := server.New(cfg, l, srv)
	app.AddCloser("alert hub", hub)
	if consumer != nil {
		app.SetConsumer(consumer)
	}
	if feed != nil {
		app.AddCloser("alert feed", feed)
	}
	if producer != nil {
		app.AddCloser("kafka producer", producer)
	}
	if ch != nil {
		app.AddCloser("clickhouse", ch)
	}
	if rc != nil {
		app.AddCloser("redis", rc)
	}
	if closer, ok := c.(interface{ Close() error }); ok {
		app.AddCloser("response cache", closer)
	}
	return app
}
