package domain

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVisibilityRequest(t *testing.T) {
	points := []Point{
		{Coordinates: orb.Point{2.17, 41.38}, Name: "Cafe A", Category: CategoryCafe},
	}

	req, err := NewVisibilityRequest("task-1", points, 12.5)
	require.NoError(t, err)

	assert.Equal(t, CommandGetHiddenPointNames, req.Command)
	assert.Equal(t, "task-1", req.TaskID)
	assert.JSONEq(t, "12.5", string(req.ZoomLevel))

	var decoded []Point
	require.NoError(t, json.Unmarshal(req.DataArray, &decoded))
	assert.Equal(t, points, decoded)
}

func TestVisibilityRequest_WireFormat(t *testing.T) {
	req, err := NewVisibilityRequest("t", nil, 3)
	require.NoError(t, err)

	raw, err := json.Marshal(req)
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, "getHiddenPointNames", generic["command"])
	assert.Equal(t, "t", generic["taskId"])
	assert.Contains(t, generic, "dataArray")
	assert.Contains(t, generic, "zoomLevel")
}

func TestVisibilityResponse(t *testing.T) {
	zoom := 10.0
	tests := []struct {
		name       string
		response   VisibilityResponse
		wantFailed bool
		wantHidden []string
	}{
		{
			name:       "success with hidden names",
			response:   VisibilityResponse{TaskID: "a", ZoomLevel: &zoom, Result: []string{"b", "a"}},
			wantFailed: false,
			wantHidden: []string{"a", "b"},
		},
		{
			name:       "success with nothing hidden",
			response:   VisibilityResponse{TaskID: "a", ZoomLevel: &zoom, Result: []string{}},
			wantFailed: false,
			wantHidden: []string{},
		},
		{
			name:       "error response",
			response:   VisibilityResponse{TaskID: "a", Error: "bad zoom"},
			wantFailed: true,
			wantHidden: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantFailed, tt.response.Failed())
			assert.Equal(t, tt.wantHidden, tt.response.HiddenSet().Names())
		})
	}
}

func TestVisibilityResponse_OmitsEmptyFields(t *testing.T) {
	raw, err := json.Marshal(VisibilityResponse{TaskID: "x", Error: "boom"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"taskId":"x","error":"boom"}`, string(raw))
}

func TestVisibilityResponse_EmptyResultIsPresent(t *testing.T) {
	zoom := 4.0
	raw, err := json.Marshal(VisibilityResponse{TaskID: "x", ZoomLevel: &zoom})
	require.NoError(t, err)
	assert.JSONEq(t, `{"taskId":"x","zoomLevel":4,"result":[]}`, string(raw))
}
