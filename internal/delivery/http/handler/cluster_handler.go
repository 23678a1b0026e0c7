package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/poi-cluster-service/internal/pkg/errors"
	"github.com/poi-cluster-service/internal/pkg/utils"
	"github.com/poi-cluster-service/internal/pkg/validator"
	"github.com/poi-cluster-service/internal/usecase"
	"github.com/poi-cluster-service/internal/usecase/dto"
)

// ClusterHandler - обработчик запросов к кластерному индексу
type ClusterHandler struct {
	mapUC  *usecase.MapUseCase
	logger *zap.Logger
}

// NewClusterHandler - создание нового ClusterHandler
func NewClusterHandler(mapUC *usecase.MapUseCase, logger *zap.Logger) *ClusterHandler {
	return &ClusterHandler{
		mapUC:  mapUC,
		logger: logger,
	}
}

// GetClusters godoc
// @Summary Кластеры и точки в области
// @Description Возвращает кластеры и одиночные точки в bbox на уровне floor(zoom). Рамка с west > east пересекает антимеридиан, без bbox берётся весь мир.
// @Tags Clusters
// @Produce json
// @Param bbox query string false "west,south,east,north" example(2.0,41.2,2.3,41.5)
// @Param zoom query number true "Уровень зума (0-24)"
// @Success 200 {object} utils.SuccessResponse{data=dto.ClustersResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/clusters [get]
func (h *ClusterHandler) GetClusters(c *fiber.Ctx) error {
	req := dto.ClustersRequest{West: -180, South: -90, East: 180, North: 90}

	if raw := c.Query("bbox"); raw != "" {
		bbox, err := parseBBox(raw)
		if err != nil {
			return utils.SendError(c, err)
		}
		req.West, req.South, req.East, req.North = bbox[0], bbox[1], bbox[2], bbox[3]
	}

	zoom, err := parseZoom(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	req.Zoom = zoom

	result, err := h.mapUC.Clusters(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total:      len(result.Features),
		Zoom:       result.Zoom,
		Generation: result.Generation,
	})
}

// GetLeaves godoc
// @Summary Исходные точки кластера
// @Description Постраничная выдача точек кластера в детерминированном порядке. Устаревший ID даёт пустой список.
// @Tags Clusters
// @Produce json
// @Param id path int true "ID кластера"
// @Param limit query int false "Размер страницы (0 - все)" default(0)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} utils.SuccessResponse{data=dto.LeavesResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/clusters/{id}/leaves [get]
func (h *ClusterHandler) GetLeaves(c *fiber.Ctx) error {
	id, err := parseClusterID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	req := dto.LeavesRequest{
		ClusterID: id,
		Limit:     c.QueryInt("limit", 0),
		Offset:    c.QueryInt("offset", 0),
	}
	if err := validator.ValidateRequest(&req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.mapUC.Leaves(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: len(result.Points)})
}

// GetChildren godoc
// @Summary Потомки кластера
// @Description Кластеры и точки, на которые кластер распадается на следующем уровне зума
// @Tags Clusters
// @Produce json
// @Param id path int true "ID кластера"
// @Success 200 {object} utils.SuccessResponse{data=dto.ChildrenResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/clusters/{id}/children [get]
func (h *ClusterHandler) GetChildren(c *fiber.Ctx) error {
	id, err := parseClusterID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.mapUC.Children(c.Context(), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: len(result.Children)})
}

// GetExpansionZoom godoc
// @Summary Зум раскрытия кластера
// @Tags Clusters
// @Produce json
// @Param id path int true "ID кластера"
// @Success 200 {object} utils.SuccessResponse{data=dto.ExpansionZoomResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/clusters/{id}/expansion-zoom [get]
func (h *ClusterHandler) GetExpansionZoom(c *fiber.Ctx) error {
	id, err := parseClusterID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.mapUC.ExpansionZoom(c.Context(), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, nil)
}

// GetHiddenNames godoc
// @Summary Имена точек, скрытых в кластерах
// @Description Множество имён точек, входящих в кластеры размера > 1 на уровне зума. Результат кэшируется по целому зуму.
// @Tags Clusters
// @Produce json
// @Param zoom query number true "Уровень зума (0-24)"
// @Success 200 {object} utils.SuccessResponse{data=dto.HiddenNamesResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/hidden [get]
func (h *ClusterHandler) GetHiddenNames(c *fiber.Ctx) error {
	zoom, err := parseZoom(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.mapUC.HiddenNames(c.Context(), dto.HiddenNamesRequest{Zoom: zoom})
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total:      len(result.Names),
		Generation: result.Generation,
	})
}

func parseZoom(c *fiber.Ctx) (float64, error) {
	raw := c.Query("zoom")
	if raw == "" {
		return 0, errors.ErrInvalidZoom.WithMessage("zoom is required")
	}
	zoom, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.ErrInvalidZoom.WithDetails(map[string]interface{}{"zoom": raw})
	}
	return zoom, nil
}

func parseClusterID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{"id": raw})
	}
	return id, nil
}

// parseBBox разбирает "west,south,east,north"
func parseBBox(raw string) ([4]float64, error) {
	var bbox [4]float64
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return bbox, errors.ErrInvalidBBox
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return bbox, errors.ErrInvalidBBox.WithDetails(map[string]interface{}{"bbox": raw})
		}
		bbox[i] = v
	}
	return bbox, nil
}
