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
	apihandler "github.com/alfanzaky/proofanchor/internal/handler/api"
	"github.com/alfanzaky/proofanchor/internal/repository/postgres"
	redisrepo "github.com/alfanzaky/proofanchor/internal/repository/redis"
	"github.com/alfanzaky/proofanchor/internal/usecase"
	"github.com/alfanzaky/proofanchor/pkg/auth"
	"github.com/alfanzaky/proofanchor/pkg/logger"
	"github.com/alfanzaky/proofanchor/pkg/observability"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := cfg.ValidateAPI(); err != nil {
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

	recordRepo := postgres.NewVerificationRecordRepository(db)
	queueRepo := redisrepo.NewQueueRepository(rdb, redisrepo.QueueKeys{
		Queue:      cfg.Queue.Key,
		Processing: cfg.Queue.ProcessingKey,
	})

	anchorUC := usecase.NewAnchorUsecase(recordRepo, queueRepo)
	anchorHandler := apihandler.NewAnchorHandler(anchorUC)
	authService := auth.NewJWTAuthService(cfg.Auth)

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsHandler := observability.NewMetricsHandler(cfg.App.Name + "-api")
	metricsHandler.AddReadinessCheck("redis", queueRepo.Ping)
	metricsHandler.AddReadinessCheck("postgres", db.PingContext)

	// Probes and metrics share the router with the API
	router := observability.NewRouter(metricsHandler)
	router.Use(apihandler.RecoveryMiddleware())
	apihandler.SetupRoutes(router, anchorHandler, authService)

	server := &http.Server{
		Addr:              ":" + cfg.API.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Starting API server", logger.String("port", cfg.API.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("API server failed", logger.ErrorField(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("API server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("API server exited")
}
