package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/poi-cluster-service/internal/pkg/errors"
	"github.com/poi-cluster-service/internal/pkg/utils"
	"github.com/poi-cluster-service/internal/pkg/validator"
	"github.com/poi-cluster-service/internal/usecase"
	"github.com/poi-cluster-service/internal/usecase/dto"
)

// OverlayHandler - круги поиска и маршруты поверх карты
type OverlayHandler struct {
	mapUC  *usecase.MapUseCase
	logger *zap.Logger
}

// NewOverlayHandler - создание нового OverlayHandler
func NewOverlayHandler(mapUC *usecase.MapUseCase, logger *zap.Logger) *OverlayHandler {
	return &OverlayHandler{
		mapUC:  mapUC,
		logger: logger,
	}
}

// SearchRing godoc
// @Summary Круг поиска
// @Description Создаёт круг поиска и возвращает точки набора внутри него, отсортированные по расстоянию от центра
// @Tags Overlays
// @Accept json
// @Produce json
// @Param request body dto.SearchRingRequest true "Центр и радиус"
// @Success 200 {object} utils.SuccessResponse{data=dto.SearchRingResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/search-rings [post]
func (h *OverlayHandler) SearchRing(c *fiber.Ctx) error {
	var req dto.SearchRingRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithMessage("Invalid request body"))
	}
	if err := validator.ValidateRequest(&req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.mapUC.SearchRing(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: len(result.Matches)})
}

// Route godoc
// @Summary Маршрут через точки
// @Description Строит маршрут через внешний сервис маршрутизации (от 2 до 25 точек)
// @Tags Overlays
// @Accept json
// @Produce json
// @Param request body dto.RouteRequest true "Точки маршрута"
// @Success 200 {object} utils.SuccessResponse{data=domain.RouteSegment}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/routes [post]
func (h *OverlayHandler) Route(c *fiber.Ctx) error {
	var req dto.RouteRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithMessage("Invalid request body"))
	}
	if err := validator.ValidateRequest(&req); err != nil {
		return utils.SendError(c, err)
	}

	route, err := h.mapUC.Route(c.Context(), req)
	if err != nil {
		h.logger.Error("Failed to build route", zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, route, nil)
}
