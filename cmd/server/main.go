// Command server starts the AI provider router HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-provider-router/internal/adapter/ai/tokencount"
	rediscache "github.com/fairyhunter13/ai-provider-router/internal/adapter/cache/redis"
	httpserver "github.com/fairyhunter13/ai-provider-router/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-provider-router/internal/adapter/observability"
	"github.com/fairyhunter13/ai-provider-router/internal/adapter/queue/redpanda"
	"github.com/fairyhunter13/ai-provider-router/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-provider-router/internal/adapter/usage"
	"github.com/fairyhunter13/ai-provider-router/internal/app"
	"github.com/fairyhunter13/ai-provider-router/internal/config"
	"github.com/fairyhunter13/ai-provider-router/internal/domain"
	"github.com/fairyhunter13/ai-provider-router/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	routing, err := config.LoadRouting(cfg.RoutingConfigPath)
	if err != nil {
		slog.Error("routing config invalid", slog.Any("error", err))
		os.Exit(1)
	}

	ctx := context.Background()
	var sinks []usage.Sink
	var dbPinger app.Pinger

	// Usage sink: Postgres api_logs
	if cfg.DBURL != "" {
		pool, err := postgres.Connect(ctx, cfg.DBURL, cfg.ConnectBackOff())
		if err != nil {
			slog.Error("db connect failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			slog.Error("db migrate failed", slog.Any("error", err))
			os.Exit(1)
		}
		sinks = append(sinks, usage.Sink{Name: "postgres", Recorder: postgres.NewUsageRepo(pool)})
		dbPinger = pool
	}

	// Usage sink: Redpanda topic
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := redpanda.NewProducer(ctx, cfg.KafkaBrokers, cfg.UsageTopic, cfg.ConnectBackOff())
		if err != nil {
			slog.Error("redpanda producer connect failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer producer.Close()
		sinks = append(sinks, usage.Sink{Name: "redpanda", Recorder: producer})
	}

	// Key status cache
	var rdb goredis.UniversalClient
	var keyCache domain.KeyStatusCache
	if cfg.RedisURL != "" {
		client, err := rediscache.NewClient(cfg.RedisURL)
		if err != nil {
			slog.Error("redis config invalid", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = client.Close() }()
		rdb = client
		keyCache = rediscache.NewKeyStatusCache(client, cfg.KeyStatusTTL, cfg.KeyFingerprintSalt)
	}

	providers := app.BuildProviders(cfg, routing, nil)
	clients, probers := app.Split(providers)

	var recorder domain.UsageRecorder
	if fan := usage.NewFanout(sinks...); fan.Len() > 0 {
		recorder = fan
	}
	router := usecase.NewRouter(clients, routing.Priority, recorder, tokencount.NewCounter())
	router.UsageTimeout = cfg.UsageRecordTimeout
	keys := usecase.NewKeyChecker(probers, router.Priority(), keyCache)

	slog.Info("router initialized",
		slog.Any("priority", router.Priority()),
		slog.Int("usage_sinks", len(sinks)),
		slog.Bool("key_cache", keyCache != nil))

	dbCheck, redisCheck := app.BuildReadinessChecks(dbPinger, rdb)
	srv := httpserver.NewServer(cfg, router, keys, dbCheck, redisCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	if err := srvHTTP.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", slog.Any("error", err))
	}
	if err := router.Drain(shutdownCtx); err != nil {
		slog.Warn("usage notifications still pending at shutdown", slog.Any("error", err))
	}
}
