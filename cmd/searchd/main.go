package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/variantdb/sheetsearch/internal/api"
	"github.com/variantdb/sheetsearch/internal/ingest"
	"github.com/variantdb/sheetsearch/internal/record"
	"github.com/variantdb/sheetsearch/internal/searcher"
	"github.com/variantdb/sheetsearch/internal/searcher/cache"
	"github.com/variantdb/sheetsearch/pkg/config"
	"github.com/variantdb/sheetsearch/pkg/health"
	"github.com/variantdb/sheetsearch/pkg/kafka"
	"github.com/variantdb/sheetsearch/pkg/logger"
	"github.com/variantdb/sheetsearch/pkg/metrics"
	"github.com/variantdb/sheetsearch/pkg/postgres"
	pkgredis "github.com/variantdb/sheetsearch/pkg/redis"
	"github.com/variantdb/sheetsearch/pkg/resilience"
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
	slog.Info("starting sheetsearch", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		m = metrics.New()
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	store := record.NewStore()
	engineOpts := []searcher.Option{searcher.WithHighlightWindow(cfg.Search.HighlightWindow)}
	if m != nil {
		engineOpts = append(engineOpts, searcher.WithMetrics(m))
	}
	engine := searcher.NewEngine(store, engineOpts...)

	var repo *ingest.Repository
	var pgClient *postgres.Client
	err = resilience.Retry(ctx, "postgres-connect", resilience.RetryConfig{MaxAttempts: 5}, func() error {
		var connErr error
		pgClient, connErr = postgres.New(cfg.Postgres)
		return connErr
	})
	if err != nil {
		slog.Warn("postgres unavailable, index will not survive restarts", "error", err)
	} else {
		defer pgClient.Close()
		repo = ingest.NewRepository(pgClient)
		if err := repo.Init(ctx); err != nil {
			slog.Error("initializing record repository", "error", err)
			os.Exit(1)
		}
		records, err := repo.LoadAll(ctx)
		if err != nil {
			slog.Error("loading persisted records", "error", err)
			os.Exit(1)
		}
		if len(records) > 0 {
			report, err := engine.Reindex(ctx, records)
			if err != nil {
				slog.Error("warming index from postgres", "error", err)
				os.Exit(1)
			}
			slog.Info("index warmed from postgres",
				"indexed", report.Indexed,
				"rejected", report.Rejected,
			)
		}
	}

	var queryCache *cache.QueryCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, query caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		queryCache = cache.New(redisClient, cfg.Redis)
		slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	ingestor := ingest.NewIngestor(store, engine, repo, cfg.Index.RebuildDebounce)
	if queryCache != nil {
		ingestor.AfterRebuild = func(ctx context.Context) {
			if err := queryCache.Invalidate(ctx); err != nil {
				slog.Error("cache invalidation after rebuild failed", "error", err)
			}
		}
	}
	ingestor.Start(ctx)

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.RecordIngest, ingestor.HandleMessage)
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("record consumer stopped", "error", err)
		}
	}()

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		snap := engine.Current()
		if snap == nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: "no snapshot built"}
		}
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d records, built %s", snap.Records, snap.BuiltAt.Format(time.RFC3339)),
		}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if pgClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := pgClient.DB.PingContext(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	var persister api.RecordPersister
	if repo != nil {
		persister = repo
	}
	h := api.New(engine, queryCache, persister, m, cfg.Search.DefaultLimit, cfg.Search.MaxResults)
	router := api.NewRouter(h, checker, m, cfg.Server.WriteTimeout)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}
	if metricsShutdown != nil {
		if err := metricsShutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", "error", err)
		}
	}
	slog.Info("goodbye")
}
