package di

import (
	"context"
	"fmt"
	"time"

	"FinScreen/internal/domain/repository"
	"FinScreen/internal/handler/api"
	internalrepo "FinScreen/internal/repository"
	"FinScreen/internal/screener"
	"FinScreen/internal/service/marketdata"
	"FinScreen/internal/service/notifier"
	"FinScreen/internal/service/tickers"
	"FinScreen/internal/usecase"
	pkgcache "FinScreen/pkg/cache"
	pkgch "FinScreen/pkg/clickhouse"
	"FinScreen/pkg/config"
	xhttp "FinScreen/pkg/http"
	pkgkafka "FinScreen/pkg/kafka"
	applogger "FinScreen/pkg/logger"
	"FinScreen/pkg/metrics"
	"FinScreen/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

// ProvideLogger builds the root logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates the Prometheus recorder on the default registry served at /metrics.
func ProvideMetrics() repository.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideRedisCache connects to Redis when a data source reads from it; nil otherwise.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.UsesBackend("redis") {
		return nil, nil
	}
	c, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Redis.Addr),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
		pkgcache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, cfg.Redis.PoolTimeout.D()),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return c, nil
}

// ProvideClickHouseClient connects to ClickHouse and ensures the stats tables
// when a data source reads from it; nil otherwise.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.UsesBackend("clickhouse") {
		return nil, nil
	}
	timeout := cfg.ClickHouse.Timeout.D()
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(4, 2),
		pkgch.WithTimeouts(timeout, timeout),
		pkgch.WithHTTP(cfg.ClickHouse.Protocol == "http"),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.InitSchema(ctx, pkgch.StatsSchema(cfg.ClickHouse.Database, cfg.ClickHouse.Table)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideLoader builds one stats source per configured data source.
func ProvideLoader(
	cfg *config.Config,
	redis *pkgcache.RedisCache,
	ch *pkgch.Client,
	m repository.Metrics,
	l *applogger.Logger,
) (*marketdata.Loader, error) {
	sources := make([]marketdata.Source, 0, len(cfg.DataSources))
	for _, ds := range cfg.DataSources {
		var src repository.StatsSource
		switch ds.Backend {
		case "redis":
			src = internalrepo.NewRedisStatsSource(ds.Name, redis)
		case "clickhouse":
			src = internalrepo.NewCHStatsSource(ds.Name, ch, cfg.ClickHouse.Database, cfg.ClickHouse.Table, l)
		default:
			return nil, fmt.Errorf("data source %q: unknown backend %q", ds.Name, ds.Backend)
		}
		sources = append(sources, marketdata.Source{StatsSource: src, Refresh: ds.Refresh.D()})
	}
	return marketdata.NewLoader(sources, m, l), nil
}

// ProvideSymbolListProvider picks the file or HTTP ticker provider.
func ProvideSymbolListProvider(cfg *config.Config) repository.SymbolListProvider {
	if cfg.Tickers.Provider == "http" {
		return tickers.NewHTTPProvider(cfg.Tickers.URL, xhttp.NewClient(xhttp.WithTimeout(cfg.Tickers.Timeout.D())))
	}
	return tickers.NewFileProvider(cfg.Tickers.Path)
}

func ProvideTickerCache(cfg *config.Config, p repository.SymbolListProvider, m repository.Metrics, l *applogger.Logger) *usecase.TickerCache {
	return usecase.NewTickerCache(p, m, l,
		usecase.WithRefreshInterval(cfg.Loop.TickerRefresh.D()),
		usecase.WithRetryInterval(cfg.Loop.TickerRetry.D()),
	)
}

// ProvideNotifier builds the dispatcher. The log channel is always present;
// Kafka and Telegram join when configured, and failing to reach them is fatal.
func ProvideNotifier(cfg *config.Config, m repository.Metrics, l *applogger.Logger) (*notifier.Dispatcher, error) {
	channels := []notifier.Channel{notifier.NewLogChannel(l)}

	if n := cfg.Notifier.Kafka; len(n.Brokers) > 0 {
		p, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(n.Brokers),
			pkgkafka.WithTopic(n.Topic),
			pkgkafka.WithCompression(n.Compression),
			pkgkafka.WithRequiredAcks(n.RequiredAcks()),
			pkgkafka.WithMaxAttempts(n.MaxAttempts),
			pkgkafka.WithWriteTimeout(5*time.Second),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka notifier: %w", err)
		}
		channels = append(channels, notifier.NewKafkaChannel(p))
	}

	if t := cfg.Notifier.Telegram; t.Token != "" {
		tg, err := notifier.NewTelegramChannel(t.Token, t.ChatID)
		if err != nil {
			return nil, fmt.Errorf("telegram notifier: %w", err)
		}
		channels = append(channels, tg)
	}

	return notifier.NewDispatcher(channels, m, l,
		notifier.WithQueueSize(cfg.Notifier.QueueSize),
		notifier.WithRateLimit(cfg.Notifier.RatePerSec, cfg.Notifier.Burst),
		notifier.WithSendTimeout(cfg.Notifier.SendTimeout.D()),
	), nil
}

// ProvideScreeners runs the registry over the screener section.
func ProvideScreeners(cfg *config.Config, n *notifier.Dispatcher, m repository.Metrics, l *applogger.Logger) ([]screener.Screener, error) {
	return screener.Configure(cfg.Screeners, screener.Deps{Notifier: n, Metrics: m, Logger: l})
}

func ProvideResultStore() *usecase.ResultStore {
	return usecase.NewResultStore()
}

func ProvideOrchestrator(
	cfg *config.Config,
	screeners []screener.Screener,
	groups *usecase.TickerCache,
	loader *marketdata.Loader,
	store *usecase.ResultStore,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Orchestrator {
	return usecase.NewOrchestrator(screeners, groups, loader, store, m, l, usecase.WithTick(cfg.Loop.Tick.D()))
}

// ProvideScreenersHandler returns nil when the UI is disabled. Connected
// backends are reported by /healthz.
func ProvideScreenersHandler(
	cfg *config.Config,
	l *applogger.Logger,
	store *usecase.ResultStore,
	redis *pkgcache.RedisCache,
	ch *pkgch.Client,
) *api.ScreenersHandler {
	if !cfg.UI.Enabled {
		return nil
	}
	var opts []api.HandlerOption
	if redis != nil {
		opts = append(opts, api.WithHealthCheck("redis", redis))
	}
	if ch != nil {
		opts = append(opts, api.WithHealthCheck("clickhouse", ch))
	}
	return api.NewScreenersHandler(l, store, cfg.UI.PushInterval.D(), opts...)
}

// ProvideHTTPServer returns nil when the UI is disabled.
func ProvideHTTPServer(cfg *config.Config, h *api.ScreenersHandler, l *applogger.Logger) *xhttp.Server {
	if h == nil {
		return nil
	}
	return xhttp.NewServer(h, l,
		xhttp.WithPort(cfg.UI.Port),
		xhttp.WithTimeouts(10*time.Second, cfg.UI.ShutdownTimeout.D()),
		xhttp.WithCORS(cfg.UI.CORSEnabled()),
	)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	orch *usecase.Orchestrator,
	loader *marketdata.Loader,
	n *notifier.Dispatcher,
	h *api.ScreenersHandler,
	srv *xhttp.Server,
	redis *pkgcache.RedisCache,
	ch *pkgch.Client,
) *server.App {
	return server.New(cfg, l, server.Components{
		Orchestrator: orch,
		Loader:       loader,
		Notifier:     n,
		Handler:      h,
		HTTPServer:   srv,
		Redis:        redis,
		ClickHouse:   ch,
	})
}
