package domain

import (
	"encoding/json"
	"fmt"
)

// Stream names для фонового вычисления видимости
const (
	StreamVisibilityRequest  = "stream:visibility:request"
	StreamVisibilityResponse = "stream:visibility:response"
)

// CommandGetHiddenPointNames - единственная поддерживаемая команда воркера
const CommandGetHiddenPointNames = "getHiddenPointNames"

// VisibilityRequest - входящее сообщение воркеру видимости.
// ZoomLevel и DataArray хранятся как сырой JSON, чтобы ошибки формата
// превращались в ответ с ошибкой, а не терялись при декодировании.
type VisibilityRequest struct {
	Command   string          `json:"command"`
	DataArray json.RawMessage `json:"dataArray"`
	ZoomLevel json.RawMessage `json:"zoomLevel"`
	TaskID    string          `json:"taskId"`
}

// NewVisibilityRequest собирает запрос из точек и зума
func NewVisibilityRequest(taskID string, points []Point, zoom float64) (*VisibilityRequest, error) {
	data, err := json.Marshal(points)
	if err != nil {
		return nil, fmt.Errorf("marshal points: %w", err)
	}
	zoomRaw, err := json.Marshal(zoom)
	if err != nil {
		return nil, fmt.Errorf("marshal zoom: %w", err)
	}

	return &VisibilityRequest{
		Command:   CommandGetHiddenPointNames,
		DataArray: data,
		ZoomLevel: zoomRaw,
		TaskID:    taskID,
	}, nil
}

// VisibilityResponse - результат вычисления: Result при успехе, Error при ошибке
type VisibilityResponse struct {
	TaskID    string   `json:"taskId"`
	ZoomLevel *float64 `json:"zoomLevel,omitempty"`
	Result    []string `json:"result,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// MarshalJSON: успешный ответ всегда содержит result, даже пустой
func (r VisibilityResponse) MarshalJSON() ([]byte, error) {
	type wire struct {
		TaskID    string    `json:"taskId"`
		ZoomLevel *float64  `json:"zoomLevel,omitempty"`
		Result    *[]string `json:"result,omitempty"`
		Error     string    `json:"error,omitempty"`
	}

	w := wire{TaskID: r.TaskID, ZoomLevel: r.ZoomLevel, Error: r.Error}
	if r.Error == "" {
		result := r.Result
		if result == nil {
			result = []string{}
		}
		w.Result = &result
	}
	return json.Marshal(w)
}

// Failed сообщает, завершилась ли задача ошибкой
func (r *VisibilityResponse) Failed() bool {
	return r.Error != ""
}

// HiddenSet собирает множество скрытых имён из ответа
func (r *VisibilityResponse) HiddenSet() HiddenSet {
	set := make(HiddenSet, len(r.Result))
	for _, name := range r.Result {
		set[name] = struct{}{}
	}
	return set
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
