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

// LayersHandler - композиция отрисовываемых слоёв и взаимодействие с ними
type LayersHandler struct {
	mapUC  *usecase.MapUseCase
	logger *zap.Logger
}

// NewLayersHandler - создание нового LayersHandler
func NewLayersHandler(mapUC *usecase.MapUseCase, logger *zap.Logger) *LayersHandler {
	return &LayersHandler{
		mapUC:  mapUC,
		logger: logger,
	}
}

// Compose godoc
// @Summary Слои карты для видимой области
// @Description Возвращает упорядоченный список слоёв (кластеры, иконки, подписи, прокси выбора, маршруты, круги поиска) в зависимости от зума.
// @Tags Layers
// @Accept json
// @Produce json
// @Param request body dto.LayersRequest true "Состояние карты"
// @Success 200 {object} utils.SuccessResponse{data=dto.LayersResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/layers [post]
func (h *LayersHandler) Compose(c *fiber.Ctx) error {
	var req dto.LayersRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithMessage("Invalid request body"))
	}
	if err := validator.ValidateRequest(&req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.mapUC.Layers(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	h.logger.Debug("Layers composed",
		zap.Float64("zoom", result.Zoom),
		zap.Int("layers", len(result.Layers)))

	return utils.SendSuccess(c, result, &utils.Meta{
		Total:      len(result.Layers),
		Generation: result.Generation,
	})
}

// Tooltip godoc
// @Summary Подсказка при наведении
// @Tags Interaction
// @Accept json
// @Produce json
// @Param request body dto.FeatureRequest true "Объект под указателем"
// @Success 200 {object} utils.SuccessResponse{data=interaction.Tooltip}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/interaction/tooltip [post]
func (h *LayersHandler) Tooltip(c *fiber.Ctx) error {
	req, err := parseFeatureRequest(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.mapUC.Tooltip(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, result, nil)
}

// Popup godoc
// @Summary Карточка объекта по клику
// @Tags Interaction
// @Accept json
// @Produce json
// @Param request body dto.FeatureRequest true "Выбранный объект"
// @Success 200 {object} utils.SuccessResponse{data=interaction.Popup}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/interaction/popup [post]
func (h *LayersHandler) Popup(c *fiber.Ctx) error {
	req, err := parseFeatureRequest(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.mapUC.Popup(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, result, nil)
}

func parseFeatureRequest(c *fiber.Ctx) (dto.FeatureRequest, error) {
	var req dto.FeatureRequest
	if err := c.BodyParser(&req); err != nil {
		return req, errors.ErrInvalidRequest.WithMessage("Invalid request body")
	}
	if err := validator.ValidateRequest(&req); err != nil {
		return req, err
	}
	return req, nil
}
