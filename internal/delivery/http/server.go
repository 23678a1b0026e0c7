package http

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"

	"github.com/poi-cluster-service/internal/config"
	"github.com/poi-cluster-service/internal/delivery/http/handler"
	"github.com/poi-cluster-service/internal/delivery/http/middleware"
	"github.com/poi-cluster-service/internal/pkg/errors"
	"github.com/poi-cluster-service/internal/usecase"
)

// Server - HTTP сервер на основе Fiber
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger

	clusterHandler    *handler.ClusterHandler
	visibilityHandler *handler.VisibilityHandler
	layersHandler     *handler.LayersHandler
	overlayHandler    *handler.OverlayHandler
	statsHandler      *handler.StatsHandler
}

// NewServer - создание нового HTTP сервера
func NewServer(cfg *config.Config, mapUC *usecase.MapUseCase, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "POI Cluster Service",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		BodyLimit:    16 * 1024 * 1024,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:               app,
		config:            cfg,
		logger:            logger,
		clusterHandler:    handler.NewClusterHandler(mapUC, logger),
		visibilityHandler: handler.NewVisibilityHandler(mapUC, logger),
		layersHandler:     handler.NewLayersHandler(mapUC, logger),
		overlayHandler:    handler.NewOverlayHandler(mapUC, logger),
		statsHandler:      handler.NewStatsHandler(mapUC, logger),
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// setupMiddlewares - настройка middleware
func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery(s.logger))
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.CORS(s.config.Server.CORSOrigins))
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes - настройка маршрутов
func (s *Server) setupRoutes() {
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)

	api := s.app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// Clusters
	api.Get("/clusters", s.clusterHandler.GetClusters)
	api.Get("/clusters/:id/leaves", s.clusterHandler.GetLeaves)
	api.Get("/clusters/:id/children", s.clusterHandler.GetChildren)
	api.Get("/clusters/:id/expansion-zoom", s.clusterHandler.GetExpansionZoom)
	api.Get("/hidden", s.clusterHandler.GetHiddenNames)

	// Visibility worker contract over HTTP
	api.Post("/visibility", s.visibilityHandler.Compute)

	// Layers and interaction
	api.Post("/layers", s.layersHandler.Compose)
	api.Post("/interaction/tooltip", s.layersHandler.Tooltip)
	api.Post("/interaction/popup", s.layersHandler.Popup)

	// Overlays
	api.Post("/search-rings", s.overlayHandler.SearchRing)
	api.Post("/routes", s.overlayHandler.Route)

	api.Get("/stats", s.statsHandler.GetStatistics)
}

// App - доступ к fiber.App (используется в тестах)
func (s *Server) App() *fiber.App {
	return s.app
}

// Start - запуск HTTP сервера
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown HTTP сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler - кастомный обработчик ошибок
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		appCode := errors.ErrInternalServer.Code

		var fe *fiber.Error
		if stderrors.As(err, &fe) {
			code = fe.Code
			if code == fiber.StatusNotFound {
				appCode = "NOT_FOUND"
			}
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error("HTTP Error",
				zap.String("path", c.Path()),
				zap.Int("status", code),
				zap.Error(err),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    appCode,
				"message": err.Error(),
			},
		})
	}
}
