package main

// @title POI Cluster Service API
// @version 1.0.0
// @description Кластеризация точек интереса и композиция слоёв карты.
// @description
// @description Основные возможности:
// @description - Кластеры и одиночные точки в области для уровня зума
// @description - Множество имён точек, скрытых в кластерах
// @description - Слои карты, подсказки и карточки объектов
// @description - Круги поиска и маршруты

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/poi-cluster-service/docs"
	"github.com/poi-cluster-service/internal/clustering"
	"github.com/poi-cluster-service/internal/config"
	httpDelivery "github.com/poi-cluster-service/internal/delivery/http"
	"github.com/poi-cluster-service/internal/domain/repository"
	"github.com/poi-cluster-service/internal/infrastructure/routing"
	"github.com/poi-cluster-service/internal/layers"
	"github.com/poi-cluster-service/internal/pkg/logger"
	"github.com/poi-cluster-service/internal/repository/cache"
	"github.com/poi-cluster-service/internal/repository/file"
	"github.com/poi-cluster-service/internal/usecase"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting POI Cluster Service")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("dataset", cfg.Dataset.Path),
	)

	// 3. Connect to Redis. Без Redis сервис работает без кэша скрытых имён.
	var cacheRepo repository.CacheRepository
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Warn("Redis unavailable, hidden names cache disabled", zap.Error(err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Failed to close Redis connection", zap.Error(err))
			}
		}()
		cacheRepo = cache.NewCacheRepository(redisClient)
		log.Info("Redis connected")
	}

	// 4. Initialize repositories
	pointRepo := file.NewPointRepository(cfg.Dataset.Path, log)

	var routingRepo repository.RoutingRepository
	if cfg.Routing.AccessToken != "" {
		routingRepo = routing.NewClient(&cfg.Routing, log)
	} else {
		log.Warn("ROUTING_ACCESS_TOKEN is not set, routes are disabled")
	}

	// 5. Initialize use case and load dataset
	mapUC := usecase.NewMapUseCase(
		pointRepo,
		cacheRepo,
		routingRepo,
		clustering.FromConfig(cfg.Cluster),
		layers.FromConfig(cfg.Layers),
		cfg.Cache.HiddenNamesTTL,
		log,
	)

	loadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := mapUC.Load(loadCtx); err != nil {
		cancel()
		log.Fatal("Failed to load dataset", zap.Error(err))
	}
	cancel()

	// 6. Initialize HTTP server
	server := httpDelivery.NewServer(cfg, mapUC, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 7. SIGHUP перечитывает набор точек, SIGINT/SIGTERM завершают работу
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	for sig := range sigChan {
		if sig != syscall.SIGHUP {
			break
		}
		log.Info("Reloading dataset")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := mapUC.Load(ctx); err != nil {
			log.Error("Dataset reload failed, keeping previous index", zap.Error(err))
		}
		cancel()
	}

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
