package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Alish28/NutriAI/internal/api"
	"github.com/Alish28/NutriAI/internal/auth"
	"github.com/Alish28/NutriAI/internal/config"
	"github.com/Alish28/NutriAI/internal/domain"
	"github.com/Alish28/NutriAI/internal/logging"
	"github.com/Alish28/NutriAI/internal/outbox"
	"github.com/Alish28/NutriAI/internal/persistence/memory"
	"github.com/Alish28/NutriAI/internal/persistence/postgres"
	httptransport "github.com/Alish28/NutriAI/internal/transport/http"
)

func main() {
	cfg := config.Load()
	logger := logging.MustNew(cfg.Env, "nutriai-api")
	defer func() { _ = logger.Sync() }()

	nutritionCfg, err := config.LoadNutrition(cfg.NutritionConfigFile)
	if err != nil {
		logger.Fatal("load nutrition config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		repo       domain.Repository
		dispatcher *outbox.Dispatcher
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		mem := memory.NewRepository()
		mem.Seed()
		repo = mem
		logger.Warn("using in-memory storage; data is lost on restart", zap.String("demo_user", memory.DemoUserID))
	default:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Fatal("connect to postgres", zap.Error(err))
		}
		defer pool.Close()
		repo = postgres.NewRepository(pool)

		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
		defer producer.Close()
		registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
		dispatcher = outbox.NewDispatcher(pool, producer, registry, logger, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
		go dispatcher.Start(ctx)
	}

	service := domain.NewService(repo, domain.WithLogger(logger), domain.WithConfig(nutritionCfg))
	handler := api.NewHandler(service, logger)
	router := api.NewRouter(handler, api.RouterConfig{
		Auth:           auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}),
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}, router)

	serveErr := httptransport.Serve(ctx, server, 15*time.Second, logger)
	stop()
	if dispatcher != nil {
		dispatcher.Wait()
	}
	if serveErr != nil {
		logger.Error("http server stopped", zap.Error(serveErr))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("api shutdown complete")
}
