package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/poi-cluster-service/internal/usecase"
)

// VisibilityHandler - синхронный вариант запроса getHiddenPointNames
type VisibilityHandler struct {
	mapUC  *usecase.MapUseCase
	logger *zap.Logger
}

// NewVisibilityHandler - создание нового VisibilityHandler
func NewVisibilityHandler(mapUC *usecase.MapUseCase, logger *zap.Logger) *VisibilityHandler {
	return &VisibilityHandler{
		mapUC:  mapUC,
		logger: logger,
	}
}

// Compute godoc
// @Summary Вычисление скрытых имён по переданному набору точек
// @Description Принимает сообщение {command, dataArray, zoomLevel, taskId} и отвечает тем же контрактом, что и воркер: {result, taskId, zoomLevel} либо {error, taskId}.
// @Tags Visibility
// @Accept json
// @Produce json
// @Param request body domain.VisibilityRequest true "Запрос видимости"
// @Success 200 {object} domain.VisibilityResponse
// @Failure 422 {object} domain.VisibilityResponse
// @Router /api/v1/visibility [post]
func (h *VisibilityHandler) Compute(c *fiber.Ctx) error {
	resp := h.mapUC.Visibility(c.Context(), c.Body())
	if resp.Failed() {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(resp)
	}
	return c.JSON(resp)
}
