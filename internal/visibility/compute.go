package visibility

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/poi-cluster-service/internal/clustering"
	"github.com/poi-cluster-service/internal/domain"
)

var worldBound = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

// Compute строит индекс по точкам и собирает имена всех точек,
// поглощённых кластерами размера > 1 на уровне floor(zoom).
// Паника внутри кластеризации возвращается как ошибка.
func Compute(points []domain.Point, zoom float64, opts clustering.Options) (hidden domain.HiddenSet, err error) {
	defer func() {
		if r := recover(); r != nil {
			hidden = nil
			err = fmt.Errorf("cluster computation panicked: %v", r)
		}
	}()

	if math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		return nil, fmt.Errorf("zoom must be finite, got %v", zoom)
	}

	hidden = make(domain.HiddenSet)
	if len(points) == 0 {
		return hidden, nil
	}

	idx, err := clustering.Build(points, opts, nil)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	return HiddenIn(idx, zoom), nil
}

// HiddenIn собирает скрытые имена по уже построенному индексу
func HiddenIn(idx *clustering.Index, zoom float64) domain.HiddenSet {
	hidden := make(domain.HiddenSet)
	for _, f := range idx.Query(worldBound, zoom) {
		if !f.IsCluster || f.PointCount <= 1 {
			continue
		}
		for _, leaf := range idx.Expand(f.ClusterID, 0) {
			hidden[leaf.Name] = struct{}{}
		}
	}
	return hidden
}

// Handle - тотальная функция над сырым сообщением воркера: любой вход
// превращается в ответ с результатом или с ошибкой.
func Handle(raw []byte, opts clustering.Options) domain.VisibilityResponse {
	var req domain.VisibilityRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return domain.VisibilityResponse{
			TaskID: extractTaskID(raw),
			Error:  fmt.Sprintf("malformed message: %v", err),
		}
	}
	return HandleRequest(&req, opts)
}

// HandleRequest обрабатывает уже декодированный запрос
func HandleRequest(req *domain.VisibilityRequest, opts clustering.Options) domain.VisibilityResponse {
	resp := domain.VisibilityResponse{TaskID: req.TaskID}

	if req.Command != domain.CommandGetHiddenPointNames {
		resp.Error = fmt.Sprintf("unknown command %q", req.Command)
		return resp
	}

	zoom, err := parseZoom(req.ZoomLevel)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	points, err := parsePoints(req.DataArray)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	hidden, err := Compute(points, zoom, opts)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	resp.ZoomLevel = &zoom
	resp.Result = hidden.Names()
	return resp
}

func parseZoom(raw json.RawMessage) (float64, error) {
	if isMissing(raw) {
		return 0, fmt.Errorf("zoomLevel is required")
	}
	var zoom float64
	if err := json.Unmarshal(raw, &zoom); err != nil {
		return 0, fmt.Errorf("zoomLevel must be a number, got %s", string(raw))
	}
	return zoom, nil
}

func parsePoints(raw json.RawMessage) ([]domain.Point, error) {
	if isMissing(raw) {
		return nil, fmt.Errorf("dataArray is required")
	}
	var points []domain.Point
	if err := json.Unmarshal(raw, &points); err != nil {
		return nil, fmt.Errorf("dataArray is malformed: %v", err)
	}
	if err := domain.ValidatePoints(points); err != nil {
		return nil, fmt.Errorf("dataArray is invalid: %w", err)
	}
	return points, nil
}

func isMissing(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// extractTaskID пытается достать taskId из сообщения, которое не декодировалось целиком
func extractTaskID(raw []byte) string {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	var taskID string
	if err := json.Unmarshal(envelope["taskId"], &taskID); err != nil {
		return ""
	}
	return taskID
}
