package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/alfanzaky/proofanchor/config"
	"github.com/alfanzaky/proofanchor/internal/adapter/factory"
	suiadapter "github.com/alfanzaky/proofanchor/internal/adapter/sui"
	"github.com/alfanzaky/proofanchor/internal/domain"
	"github.com/alfanzaky/proofanchor/internal/repository/postgres"
	redisrepo "github.com/alfanzaky/proofanchor/internal/repository/redis"
	"github.com/alfanzaky/proofanchor/internal/usecase"
	"github.com/alfanzaky/proofanchor/internal/worker"
	"github.com/alfanzaky/proofanchor/pkg/logger"
	"github.com/alfanzaky/proofanchor/pkg/observability"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := cfg.ValidateWorker(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	logger.Init(cfg.App.Environment, cfg.App.LogLevel)
	defer logger.Sync()

	if cfg.App.IsDevelopment() {
		cfg.Print()
	}

	// Initialize database connection
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.Close()
	db.SetMaxIdleConns(cfg.Database.MaxIdle)
	db.SetMaxOpenConns(cfg.Database.MaxOpen)
	db.SetConnMaxLifetime(cfg.Database.MaxLife)

	// Initialize Redis connection
	redisOpts, err := cfg.Redis.ClientOptions()
	if err != nil {
		logger.Fatal("Invalid Redis configuration", logger.ErrorField(err))
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	defer rdb.Close()

	logger.Info("Database and Redis connections established")

	// Repositories
	recordRepo := postgres.NewVerificationRecordRepository(db)
	queueRepo := redisrepo.NewQueueRepository(rdb, redisrepo.QueueKeys{
		Queue:      cfg.Queue.Key,
		Processing: cfg.Queue.ProcessingKey,
	})

	// Proof clients
	proofClients := factory.NewProofClientFactory()
	proofClients.RegisterClient(domain.ProofChainSui, suiadapter.NewProofClient(cfg.Sui, nil))

	proofClient, err := proofClients.GetClient(cfg.Verify.Chain)
	if err != nil {
		logger.Fatal("No proof client for configured chain",
			logger.String("chain", cfg.Verify.Chain),
			logger.ErrorField(err),
		)
	}

	verificationUC := usecase.NewVerificationUsecase(recordRepo, proofClient, usecase.VerificationConfig{
		MaxAttempts: cfg.Verify.MaxAttempts,
	})

	consumer := worker.NewQueueConsumer(queueRepo, worker.QueueConsumerConfig{
		QueueName:    cfg.Queue.Key,
		RecoverMax:   cfg.Queue.RecoverMax,
		BlockTimeout: cfg.Queue.BlockTimeout,
		ErrorBackoff: cfg.Queue.ErrorBackoff,
		DelayMode:    worker.DelayMode(cfg.Queue.DelayMode),
	})

	// Ops server: metrics and probes
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	metricsHandler := observability.NewMetricsHandler(cfg.App.Name)
	metricsHandler.AddReadinessCheck("redis", queueRepo.Ping)
	metricsHandler.AddReadinessCheck("postgres", db.PingContext)

	server := &http.Server{
		Addr:              ":" + cfg.Ops.Port,
		Handler:           observability.NewRouter(metricsHandler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Starting ops server", logger.String("port", cfg.Ops.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Ops server failed", logger.ErrorField(err))
		}
	}()

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := consumer.Run(workerCtx, verificationUC.Handle); err != nil {
			logger.Error("Queue consumer exited", logger.ErrorField(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the worker
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	workerCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("Queue consumer did not stop before shutdown deadline")
	}

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Ops server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Worker exited")
}
