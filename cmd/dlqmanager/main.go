package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Alish28/NutriAI/internal/config"
	"github.com/Alish28/NutriAI/internal/logging"
	"github.com/Alish28/NutriAI/internal/outbox"
	httptransport "github.com/Alish28/NutriAI/internal/transport/http"
)

const defaultDLQBatchSize = 50

func main() {
	cfg := config.Load()
	logger := logging.MustNew(cfg.Env, "nutriai-dlqmanager")
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Fatal("connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	manager := outbox.NewDLQManager(pool, logger, cfg.DLQMaxRetries, cfg.DLQBaseDelay)
	metricsSrv := httptransport.NewServer(httptransport.ServerConfig{Address: cfg.MetricsAddress}, promhttp.Handler())

	logger.Info("dlq manager started",
		zap.Duration("interval", cfg.DLQPollInterval),
		zap.Int("max_retries", cfg.DLQMaxRetries))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httptransport.Serve(gctx, metricsSrv, 10*time.Second, logger)
	})
	g.Go(func() error {
		if err := manager.Run(gctx, cfg.DLQPollInterval, defaultDLQBatchSize); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("dlq manager stopped with error", zap.Error(err))
	}
}
