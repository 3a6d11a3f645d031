// The indexer service consumes record events from Kafka and indexes them
// into the configured store backend. It exposes Prometheus metrics and
// health probes on the metrics port.
package main

import (
	"context"
	"database/sql"
	stderrors "errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bibliofonds/recindex/internal/analysis"
	"github.com/bibliofonds/recindex/internal/consumer"
	"github.com/bibliofonds/recindex/internal/engine"
	"github.com/bibliofonds/recindex/internal/lookup"
	"github.com/bibliofonds/recindex/internal/schema"
	"github.com/bibliofonds/recindex/internal/store"
	"github.com/bibliofonds/recindex/pkg/config"
	"github.com/bibliofonds/recindex/pkg/errors"
	"github.com/bibliofonds/recindex/pkg/health"
	"github.com/bibliofonds/recindex/pkg/kafka"
	"github.com/bibliofonds/recindex/pkg/logger"
	"github.com/bibliofonds/recindex/pkg/metrics"
	"github.com/bibliofonds/recindex/pkg/postgres"
	"github.com/bibliofonds/recindex/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting indexer service",
		"schema", cfg.Schema.Path,
		"store", cfg.Store.Backend,
		"lookup", cfg.Lookup.Backend,
	)

	sc, err := schema.Load(cfg.Schema.Path)
	if err != nil {
		slog.Error("failed to load schema", "error", err)
		os.Exit(1)
	}
	slog.Info("schema loaded", "name", sc.Name, "fields", len(sc.Leaves()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	var redisClient *redis.Client
	var tables analysis.LookupTable
	switch cfg.Lookup.Backend {
	case "redis":
		redisClient, err = redis.NewClient(cfg.Redis)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		tables, err = lookup.NewRedis(redisClient, cfg.Lookup.KeyPrefix, cfg.Lookup.CacheSize, m)
		if err != nil {
			slog.Error("failed to create redis lookup", "error", err)
			os.Exit(1)
		}
	default:
		tables, err = lookup.LoadStatic(cfg.Lookup.TablesPath)
		if err != nil {
			slog.Error("failed to load lookup tables", "error", err)
			os.Exit(1)
		}
	}

	var st store.Store
	var db *sql.DB
	var pg *postgres.Client
	switch cfg.Store.Backend {
	case "postgres":
		pg, err = postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		db = pg.DB
		st, err = store.NewPostgres(ctx, pg.DB)
		if err != nil {
			slog.Error("failed to initialise postgres store", "error", err)
			os.Exit(1)
		}
	case "memory":
		st = store.NewMemory()
	default:
		st, err = store.NewBolt(cfg.Store.DataDir)
		if err != nil {
			slog.Error("failed to open bolt store", "error", err)
			os.Exit(1)
		}
	}
	defer st.Close()

	registry := analysis.DefaultRegistry(analysis.Options{
		StemLanguage: cfg.Indexer.StemLanguage,
		Lookup:       tables,
	})
	eng, err := engine.New(sc, registry, st, engine.Config{
		Workers: cfg.Indexer.BatchWorkers,
		Metrics: m,
	})
	if err != nil {
		slog.Error("failed to create engine", "error", err)
		os.Exit(1)
	}

	checker := health.NewChecker()
	checker.Register("store", func(ctx context.Context) health.CheckResult {
		// A missing probe record still proves the store answers reads.
		if _, err := st.GetRecord("__probe"); err != nil && stderrors.Is(err, errors.ErrStore) {
			return health.CheckResult{Status: health.StatusDown, Message: err.Error()}
		}
		return health.CheckResult{Status: health.StatusUp}
	})
	checker.Register("redis", func(ctx context.Context) health.CheckResult {
		if redisClient == nil {
			return health.CheckResult{Status: health.StatusUp, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.CheckResult{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.CheckResult{Status: health.StatusUp}
	})
	if pg != nil {
		checker.Register("postgres", func(ctx context.Context) health.CheckResult {
			if err := pg.Ping(ctx); err != nil {
				return health.CheckResult{Status: health.StatusDown, Message: err.Error()}
			}
			return health.CheckResult{Status: health.StatusUp}
		})
	}

	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port, func(mux *http.ServeMux) {
			mux.HandleFunc("GET /health/live", checker.LiveHandler())
			mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
		})
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	var producer *kafka.Producer
	if cfg.Kafka.Topics.IndexComplete != "" {
		producer = kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
		defer producer.Close()
	}

	handler := consumer.HandleMessage(eng, consumer.HandlerOptions{
		Producer:      producer,
		DB:            db,
		Metrics:       m,
		RetryAttempts: cfg.Indexer.RetryAttempts,
	})
	kafkaConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.RecordIngest, handler)
	recordConsumer := consumer.New(kafkaConsumer)

	slog.Info("indexer service ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.RecordIngest,
		"group", cfg.Kafka.ConsumerGroup,
	)

	if err := recordConsumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
	}

	slog.Info("indexer service stopped")
}
