package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/poi-cluster-service/internal/clustering"
	"github.com/poi-cluster-service/internal/config"
	"github.com/poi-cluster-service/internal/pkg/logger"
	"github.com/poi-cluster-service/internal/repository/cache"
	redisRepo "github.com/poi-cluster-service/internal/repository/redis"
	"github.com/poi-cluster-service/internal/worker"
	"github.com/poi-cluster-service/internal/worker/visibility"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting visibility worker")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("pool_size", cfg.Worker.PoolSize),
		zap.Int("batch_size", cfg.Worker.BatchSize),
		zap.Duration("stream_read_timeout", cfg.Worker.StreamReadTimeout))

	// 3. Connect to Redis (отдельный клиент с увеличенным таймаутом чтения для XREADGROUP)
	redisClient, err := cache.NewRedisStreams(&cfg.Redis, cfg.Worker.StreamReadTimeout, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 4. Initialize repositories
	streamRepo := redisRepo.NewStreamRepository(redisClient, log)

	// 5. Initialize workers
	visibilityWorker := visibility.NewWorker(
		streamRepo,
		clustering.FromConfig(cfg.Cluster),
		cfg.Worker.ConsumerGroup,
		cfg.Worker.BatchSize,
		cfg.Worker.PoolSize,
		log,
	)

	workerManager := worker.NewWorkerManager(log)
	workerManager.Register(visibilityWorker)

	// 6. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	cancel()

	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	for _, s := range workerManager.Stats() {
		log.Info("Worker stats",
			zap.String("worker", s.Name),
			zap.Int64("processed", s.Processed),
			zap.Int64("failed", s.Failed),
			zap.Int64("malformed", s.Malformed))
	}

	log.Info("Worker shutdown complete")
}
