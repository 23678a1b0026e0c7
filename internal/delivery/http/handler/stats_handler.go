package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/poi-cluster-service/internal/pkg/utils"
	"github.com/poi-cluster-service/internal/usecase"
)

// StatsHandler обрабатывает запросы для статистики
type StatsHandler struct {
	mapUC  *usecase.MapUseCase
	logger *zap.Logger
}

// NewStatsHandler создает новый экземпляр StatsHandler
func NewStatsHandler(mapUC *usecase.MapUseCase, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		mapUC:  mapUC,
		logger: logger,
	}
}

// GetStatistics godoc
// @Summary Статистика набора точек
// @Description Количество точек по категориям, поколение индекса и охват набора
// @Tags Statistics
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=domain.DatasetStats}
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/stats [get]
func (h *StatsHandler) GetStatistics(c *fiber.Ctx) error {
	h.logger.Debug("Handling get statistics request")

	stats, err := h.mapUC.Stats(c.Context())
	if err != nil {
		h.logger.Error("Failed to get statistics", zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, stats, nil)
}
