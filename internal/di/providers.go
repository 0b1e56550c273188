package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"PulseWatch/internal/alerts"
	"PulseWatch/internal/domain/repository"
	dsvc "PulseWatch/internal/domain/service"
	"PulseWatch/internal/handler/api"
	"PulseWatch/internal/patterns"
	internalrepo "PulseWatch/internal/repository"
	"PulseWatch/internal/service/quotes"
	"PulseWatch/internal/usecase"
	pkgcache "PulseWatch/pkg/cache"
	pkgch "PulseWatch/pkg/clickhouse"
	"PulseWatch/pkg/config"
	xhttp "PulseWatch/pkg/http"
	pkgkafka "PulseWatch/pkg/kafka"
	applogger "PulseWatch/pkg/logger"
	"PulseWatch/pkg/metrics"
	"PulseWatch/pkg/server"
)

// QuoteSource bundles the sample source with its optional stream lifecycle.
// In rest mode Stream is nil; in websocket mode the app starts and stops it.
type QuoteSource struct {
	Source repository.SampleSource
	Stream *quotes.StreamSource
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := cfg.Logging.Level
	if level == "" {
		level = "info"
	}
	format := "json"
	if cfg.Logging.Pretty {
		format = "console"
	}
	return applogger.New(&applogger.Config{
		Level:  level,
		Format: format,
		Output: "stdout",
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideQuoteSource creates the configured quote feed.
func ProvideQuoteSource(cfg *config.Config, log *applogger.Logger) (*QuoteSource, error) {
	switch cfg.Quotes.Mode {
	case "websocket":
		stream := quotes.NewStreamSource(
			cfg.Quotes.WebSocketURL,
			cfg.Quotes.APIKey,
			cfg.Quotes.StaleAfter,
			cfg.Quotes.ReconnectDelay,
			cfg.Quotes.PingInterval,
			log,
		)
		return &QuoteSource{Source: stream, Stream: stream}, nil
	case "rest":
		client := quotes.NewRESTClient(
			cfg.Quotes.BaseURL,
			cfg.Quotes.APIKey,
			cfg.Quotes.Timeout,
			cfg.Quotes.MaxFetchPerSec,
		)
		return &QuoteSource{Source: client}, nil
	default:
		return nil, fmt.Errorf("unknown quotes mode: %s", cfg.Quotes.Mode)
	}
}

// ProvideDetector creates the pattern detector with default thresholds.
func ProvideDetector() dsvc.PatternDetector {
	return patterns.New(patterns.DefaultConfig())
}

// ProvideAlertEngine creates the alert engine.
func ProvideAlertEngine(cfg *config.Config) dsvc.AlertEngine {
	return alerts.NewEngine(cfg.Engine.AlertHistory)
}

// ProvideAlertSinks builds the enabled external alert sinks.
func ProvideAlertSinks(cfg *config.Config, log *applogger.Logger) ([]repository.AlertSink, error) {
	var sinks []repository.AlertSink

	if cfg.Kafka.Enabled {
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
			pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
			pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
			pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
			pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
			pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
			pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		sinks = append(sinks, internalrepo.NewKafkaAlertPublisher(producer, cfg.Kafka.Topic))
	}

	if cfg.ClickHouse.Enabled {
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		archive, err := internalrepo.NewCHAlertArchive(ctx, client, log)
		cancel()
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		sinks = append(sinks, archive)
	}

	return sinks, nil
}

// ProvideDispatcher creates the async alert dispatcher, or nil without sinks.
func ProvideDispatcher(sinks []repository.AlertSink, m repository.Metrics, log *applogger.Logger) *usecase.AlertDispatcher {
	if len(sinks) == 0 {
		return nil
	}
	return usecase.NewAlertDispatcher(sinks, m, log)
}

// ProvideResultMirror creates the result mirror, or nil when disabled.
func ProvideResultMirror(cfg *config.Config) (repository.ResultMirror, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}

	var svc pkgcache.Service
	switch cfg.Cache.Backend {
	case "redis":
		host, port := splitRedisAddr(cfg.Cache.Redis.Addr)
		redisCache, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(host),
			pkgcache.WithRedisPort(port),
			pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
			pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		svc = redisCache
	default:
		svc = pkgcache.NewMemoryCache()
	}

	return internalrepo.NewCacheResultMirror(svc, cfg.Cache.TTL), nil
}

// ProvideOrchestrator wires the analysis pipeline.
func ProvideOrchestrator(
	cfg *config.Config,
	qs *QuoteSource,
	detector dsvc.PatternDetector,
	alertEngine dsvc.AlertEngine,
	m repository.Metrics,
	log *applogger.Logger,
	dispatcher *usecase.AlertDispatcher,
	mirror repository.ResultMirror,
) *usecase.Orchestrator {
	opts := []usecase.OrchestratorOption{
		usecase.WithInterval(cfg.Engine.Interval),
		usecase.WithFetchTimeout(cfg.Engine.FetchTimeout),
		usecase.WithBufferCapacity(cfg.Engine.BufferCapacity),
		usecase.WithSnapshotSize(cfg.Engine.SnapshotSize),
	}
	if dispatcher != nil {
		opts = append(opts, usecase.WithDispatcher(dispatcher))
	}
	if mirror != nil {
		opts = append(opts, usecase.WithResultMirror(mirror))
	}
	return usecase.NewOrchestrator(qs.Source, detector, alertEngine, m, log, opts...)
}

// ProvideHandler creates the HTTP control surface.
func ProvideHandler(log *applogger.Logger, orch *usecase.Orchestrator) xhttp.Handler {
	return api.NewEngineHandler(log, orch)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	orch *usecase.Orchestrator,
	dispatcher *usecase.AlertDispatcher,
	handler xhttp.Handler,
	qs *QuoteSource,
) *server.App {
	app := server.New(cfg, log, orch, dispatcher, handler)
	if qs.Stream != nil {
		app.SetQuoteStream(qs.Stream)
	}
	return app
}

// splitRedisAddr parses "host:port", defaulting the port to 6379.
func splitRedisAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		if addr == "" {
			return "localhost", 6379
		}
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = 6379
	}
	return host, port
}
