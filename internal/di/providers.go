package di

import (
	"context"
	"fmt"
	"time"

	"PaperDeck/internal/domain/models"
	"PaperDeck/internal/domain/repository"
	domsvc "PaperDeck/internal/domain/service"
	"PaperDeck/internal/ensemble"
	"PaperDeck/internal/handler/api"
	mid "PaperDeck/internal/middleware"
	internalrepo "PaperDeck/internal/repository"
	"PaperDeck/internal/scheduler"
	icache "PaperDeck/internal/service/cache"
	"PaperDeck/internal/service/fsettings"
	emetrics "PaperDeck/internal/service/metrics"
	"PaperDeck/internal/service/mlocal"
	"PaperDeck/internal/service/mlserve"
	"PaperDeck/internal/service/paperapi"
	"PaperDeck/internal/service/polygon"
	"PaperDeck/internal/service/ratelimit"
	"PaperDeck/internal/state"
	"PaperDeck/internal/usecase"
	pkgch "PaperDeck/pkg/clickhouse"
	"PaperDeck/pkg/config"
	xhttp "PaperDeck/pkg/http"
	pkgkafka "PaperDeck/pkg/kafka"
	applogger "PaperDeck/pkg/logger"
	"PaperDeck/pkg/metrics"
	"PaperDeck/pkg/queue"
	"PaperDeck/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	level := "info"
	if cfg.Environment == "development" || cfg.Environment == "test" {
		format = "console"
		level = "debug"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	emetrics.Register()
	return metrics.New()
}

// ProvideClock provides the wall clock.
func ProvideClock() repository.Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ProvideStore creates the shared state store.
func ProvideStore() *state.Store {
	return state.NewStore()
}

// ProvidePaperAPI creates the paper-trading REST client.
func ProvidePaperAPI(cfg *config.Config, lgr *applogger.Logger) *paperapi.Client {
	return paperapi.NewClient(cfg.API.BaseURL, cfg.API.Project, lgr,
		paperapi.WithRequestTimeout(cfg.API.Timeout))
}

// ProvideBrokerage exposes the REST client as the brokerage boundary.
func ProvideBrokerage(client *paperapi.Client) repository.Brokerage {
	return client
}

// ProvideIndicatorSource exposes the REST client as the indicator source.
func ProvideIndicatorSource(client *paperapi.Client) repository.IndicatorSource {
	return client
}

// ProvideMarketStream creates the Polygon trades stream.
func ProvideMarketStream(cfg *config.Config, lgr *applogger.Logger) repository.MarketStream {
	return polygon.New(cfg.Polygon.WebSocketURL, cfg.Polygon.Token, lgr)
}

// ProvideSettingsFeed opens the Firestore settings listener. A missing
// collection/doc configuration disables the feed; the dashboard runs without it.
func ProvideSettingsFeed(cfg *config.Config, lgr *applogger.Logger) (repository.SettingsFeed, error) {
	if cfg.Firestore.Collection == "" || cfg.Firestore.Doc == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	listener, err := fsettings.New(ctx, cfg.Firestore.CredentialsFile, cfg.Firestore.Collection, cfg.Firestore.Doc, lgr)
	if err != nil {
		return nil, fmt.Errorf("settings feed: %w", err)
	}
	return listener, nil
}

// ProvideRedisClient creates the Redis client when caching is enabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Cache.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
}

// ProvideStatsCache picks the indicator response cache backend.
func ProvideStatsCache(cfg *config.Config, rdb *redis.Client) icache.BytesCache {
	if rdb != nil {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideAlertQueue creates the Redis-backed alert outbox, when Redis is up.
// With workers configured the same queue also consumes and delivers alerts.
func ProvideAlertQueue(cfg *config.Config, rdb *redis.Client, lgr *applogger.Logger) *queue.RedisQueue {
	if rdb == nil {
		return nil
	}
	prefix := cfg.Alerts.Queue
	if prefix == "" {
		prefix = "paperdeck:alerts"
	}
	if cfg.Alerts.Workers <= 0 {
		return queue.NewRedisPublisher(lgr, rdb, queue.WithKeyPrefix(prefix))
	}

	q := queue.NewRedisQueue(lgr,
		&queue.QueueConfig{Workers: cfg.Alerts.Workers, RetryLimit: 3},
		rdb, queue.ModeProducerConsumer, queue.WithKeyPrefix(prefix))
	q.RegisterJobs(usecase.AlertJobs(lgr))
	if err := q.Start(); err != nil {
		lgr.Error("alert queue start failed", applogger.Error(err))
	}
	return q
}

// ProvideAlertDispatcher fans edge alerts out to the queue and the API ring.
func ProvideAlertDispatcher(cfg *config.Config, q *queue.RedisQueue, lgr *applogger.Logger) *usecase.AlertDispatcher {
	var qs queue.QueueService
	if q != nil {
		qs = q
	}
	return usecase.NewAlertDispatcher(qs, cfg.Alerts.Recent, lgr)
}

// ProvideRegistry assembles the classifier ensemble: the shipped logistic
// models plus remote served models when configured.
func ProvideRegistry(cfg *config.Config) (*domsvc.Registry, error) {
	registry := domsvc.NewRegistry()
	for _, m := range mlocal.Defaults() {
		if err := registry.Register(m); err != nil {
			return nil, err
		}
	}
	if cfg.Ensemble.Remote.Enabled {
		client := mlserve.NewClient(cfg.Ensemble.Remote.URL, cfg.Ensemble.Remote.Timeout)
		remotes := []*mlserve.Remote{
			mlserve.NewRemote(client, "edge-up", models.SideBuy),
			mlserve.NewRemote(client, "edge-down", models.SideSell),
		}
		for _, r := range remotes {
			if err := registry.Register(r); err != nil {
				return nil, err
			}
		}
	}
	return registry, nil
}

// ProvideTimeframes resolves the evaluated timeframes from config.
func ProvideTimeframes(cfg *config.Config) []repository.Timeframe {
	if len(cfg.Ensemble.Timeframes) == 0 {
		return repository.AllTimeframes()
	}
	out := make([]repository.Timeframe, 0, len(cfg.Ensemble.Timeframes))
	for _, tf := range cfg.Ensemble.Timeframes {
		out = append(out, repository.Timeframe(tf))
	}
	return out
}

// ProvideScorer creates the ensemble scorer.
func ProvideScorer(
	registry *domsvc.Registry,
	timeframes []repository.Timeframe,
	alerts *usecase.AlertDispatcher,
	m repository.Metrics,
	lgr *applogger.Logger,
) *ensemble.Scorer {
	return ensemble.NewScorer(registry, timeframes, alerts, m, lgr)
}

// ProvideScheduler creates the refresh scheduler.
func ProvideScheduler(cfg *config.Config, clock repository.Clock) *scheduler.Scheduler {
	sc := scheduler.DefaultConfig()
	if cfg.Scheduler.CloseHour > 0 {
		sc.OpenHour = cfg.Scheduler.OpenHour
		sc.CloseHour = cfg.Scheduler.CloseHour
	}
	if cfg.Scheduler.SettleDelay > 0 {
		sc.SettleDelay = cfg.Scheduler.SettleDelay
	}
	if cfg.Scheduler.TickPoll > 0 {
		sc.TickPoll = cfg.Scheduler.TickPoll
	}
	return scheduler.New(clock, sc)
}

// ProvideClickHouseClient creates a ClickHouse client when the recorder uses it.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Recorder.Backend != "clickhouse" {
		return nil, nil
	}
	ch := cfg.Recorder.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithAsyncInsert(ch.AsyncInsert, ch.WaitForAsync),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.WriteTimeout),
		pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + ch.Database,
		"CREATE TABLE IF NOT EXISTS " + ch.Database + ".price_ticks (ts DateTime64(3), symbol String, price Float64, source String, event_id String) ENGINE=MergeTree ORDER BY (symbol, ts)",
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer when the recorder uses it.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Recorder.Backend != "kafka" {
		return nil, nil
	}
	k := cfg.Recorder.Kafka
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(k.Brokers),
		pkgkafka.WithCompression(k.Compression),
		pkgkafka.WithRequiredAcks(k.RequiredAcks),
		pkgkafka.WithBatchSize(k.Producer.BatchSize),
		pkgkafka.WithBatchBytes(k.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(k.Producer.Linger),
		pkgkafka.WithTimeouts(k.Producer.WriteTimeout, k.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(k.Producer.MaxAttempts),
		pkgkafka.WithAsync(k.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideTickStore creates ClickHouse tick storage, nil when disabled.
func ProvideTickStore(chClient *pkgch.Client, cfg *config.Config) repository.TickStore {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHouseTickStore(chClient.DB(), cfg.Recorder.ClickHouse.Database+".price_ticks")
}

// ProvideTickPublisher creates the Kafka publisher, nil when disabled.
func ProvideTickPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaTickPublisher(producer, cfg.Recorder.Kafka.Topic)
}

// ProvideTickRecorder creates the recorder side path.
func ProvideTickRecorder(
	pub repository.Publisher,
	store repository.TickStore,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.TickRecorder {
	return usecase.NewTickRecorder(pub, store, m, cfg.Recorder.Backend)
}

// ProvidePriceCollector creates the streaming price path with its pipeline.
func ProvidePriceCollector(
	stream repository.MarketStream,
	store *state.Store,
	recorder *usecase.TickRecorder,
	m repository.Metrics,
	lgr *applogger.Logger,
) *usecase.PriceCollector {
	var pipe *mid.RealtimePipeline
	if recorder.Enabled() {
		pipe = mid.NewRealtimePipeline(recorder, m,
			mid.WithMaxRPS(50),
			mid.WithBufferSize(2000),
		)
	}
	return usecase.NewPriceCollector(stream, store, recorder, pipe, m, lgr)
}

// ProvideSynchronizer creates the polled refresh path.
func ProvideSynchronizer(
	brokerage repository.Brokerage,
	indicators repository.IndicatorSource,
	store *state.Store,
	scorer *ensemble.Scorer,
	clock repository.Clock,
	m repository.Metrics,
	lgr *applogger.Logger,
	statsCache icache.BytesCache,
	cfg *config.Config,
) *usecase.Synchronizer {
	opts := []usecase.SynchronizerOption{}
	if cfg.Cache.TTL > 0 {
		opts = append(opts, usecase.WithStatsCache(statsCache, cfg.Cache.TTL))
	}
	return usecase.NewSynchronizer(brokerage, indicators, store, scorer, clock, m, lgr, opts...)
}

// ProvideMonitor creates the control loop.
func ProvideMonitor(
	sched *scheduler.Scheduler,
	sync *usecase.Synchronizer,
	collector *usecase.PriceCollector,
	settings repository.SettingsFeed,
	brokerage repository.Brokerage,
	store *state.Store,
	lgr *applogger.Logger,
) *usecase.Monitor {
	return usecase.NewMonitor(sched, sync, collector, settings, brokerage, store, lgr)
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(
	lgr *applogger.Logger,
	store *state.Store,
	monitor *usecase.Monitor,
	collector *usecase.PriceCollector,
	alerts *usecase.AlertDispatcher,
) xhttp.Handler {
	return api.NewMarketEchoHandler(lgr, store, monitor, collector, alerts, ratelimit.New())
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	monitor *usecase.Monitor,
	collector *usecase.PriceCollector,
	recorder *usecase.TickRecorder,
	alertQueue *queue.RedisQueue,
	chClient *pkgch.Client,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, lgr, monitor, collector, recorder, alertQueue, chClient, handler)
}
