package visibility

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poi-cluster-service/internal/clustering"
	"github.com/poi-cluster-service/internal/domain"
)

// coffeeAndRestaurant: три кофейни рядом и один ресторан далеко
func coffeeAndRestaurant() []domain.Point {
	return []domain.Point{
		{Coordinates: orb.Point{2.1700, 41.3800}, Name: "Cafe Uno", Category: domain.CategoryCafe},
		{Coordinates: orb.Point{2.1712, 41.3806}, Name: "Cafe Dos", Category: domain.CategoryCafe},
		{Coordinates: orb.Point{2.1721, 41.3795}, Name: "Cafe Tres", Category: domain.CategoryCafe},
		{Coordinates: orb.Point{3.2000, 41.9000}, Name: "Can Roca", Category: domain.CategoryRestaurant},
	}
}

func rawRequest(t *testing.T, fields map[string]interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(fields)
	require.NoError(t, err)
	return raw
}

func TestCompute_HidesClusteredPoints(t *testing.T) {
	hidden, err := Compute(coffeeAndRestaurant(), 8, clustering.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"Cafe Dos", "Cafe Tres", "Cafe Uno"}, hidden.Names())
	assert.False(t, hidden.Has("Can Roca"))
}

func TestCompute_NothingHiddenAtHighZoom(t *testing.T) {
	hidden, err := Compute(coffeeAndRestaurant(), 18, clustering.DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, hidden)
}

func TestCompute_EmptyDataset(t *testing.T) {
	hidden, err := Compute(nil, 5, clustering.DefaultOptions())
	require.NoError(t, err)
	assert.NotNil(t, hidden)
	assert.Empty(t, hidden)
}

func TestCompute_Errors(t *testing.T) {
	opts := clustering.DefaultOptions()
	opts.Radius = 0
	_, err := Compute(coffeeAndRestaurant(), 5, opts)
	assert.Error(t, err)
}

// Имя скрыто тогда и только тогда, когда точка внутри кластера размера > 1
func TestCompute_ConsistentWithQuery(t *testing.T) {
	points := coffeeAndRestaurant()
	for i := 0; i < 20; i++ {
		points = append(points, domain.Point{
			Coordinates: orb.Point{-3.7 + float64(i%5)*0.01, 40.4 + float64(i/5)*0.01},
			Name:        fmt.Sprintf("madrid-%d", i),
		})
	}

	idx, err := clustering.Build(points, clustering.DefaultOptions(), nil)
	require.NoError(t, err)

	for z := 0; z <= 17; z++ {
		hidden, err := Compute(points, float64(z), clustering.DefaultOptions())
		require.NoError(t, err)

		expected := make(map[string]bool)
		for _, f := range idx.Query(worldBound, float64(z)) {
			if f.IsCluster && f.PointCount > 1 {
				for _, leaf := range idx.Expand(f.ClusterID, 0) {
					expected[leaf.Name] = true
				}
			}
		}
		for _, p := range points {
			assert.Equal(t, expected[p.Name], hidden.Has(p.Name), "zoom %d point %s", z, p.Name)
		}
	}
}

func TestHandle(t *testing.T) {
	points := coffeeAndRestaurant()
	opts := clustering.DefaultOptions()

	tests := []struct {
		name       string
		raw        []byte
		wantTaskID string
		wantError  string
		wantResult []string
	}{
		{
			name: "valid request",
			raw: rawRequest(t, map[string]interface{}{
				"command": "getHiddenPointNames", "dataArray": points, "zoomLevel": 8, "taskId": "t1",
			}),
			wantTaskID: "t1",
			wantResult: []string{"Cafe Dos", "Cafe Tres", "Cafe Uno"},
		},
		{
			name: "empty dataset",
			raw: rawRequest(t, map[string]interface{}{
				"command": "getHiddenPointNames", "dataArray": []domain.Point{}, "zoomLevel": 8, "taskId": "t2",
			}),
			wantTaskID: "t2",
			wantResult: []string{},
		},
		{
			name: "non-numeric zoom",
			raw: rawRequest(t, map[string]interface{}{
				"command": "getHiddenPointNames", "dataArray": points, "zoomLevel": "abc", "taskId": "t3",
			}),
			wantTaskID: "t3",
			wantError:  "zoomLevel must be a number",
		},
		{
			name: "missing zoom",
			raw: rawRequest(t, map[string]interface{}{
				"command": "getHiddenPointNames", "dataArray": points, "taskId": "t4",
			}),
			wantTaskID: "t4",
			wantError:  "zoomLevel is required",
		},
		{
			name: "missing dataset",
			raw: rawRequest(t, map[string]interface{}{
				"command": "getHiddenPointNames", "zoomLevel": 3, "taskId": "t5",
			}),
			wantTaskID: "t5",
			wantError:  "dataArray is required",
		},
		{
			name:       "null dataset",
			raw:        []byte(`{"command":"getHiddenPointNames","dataArray":null,"zoomLevel":3,"taskId":"t6"}`),
			wantTaskID: "t6",
			wantError:  "dataArray is required",
		},
		{
			name:       "dataset is not an array",
			raw:        []byte(`{"command":"getHiddenPointNames","dataArray":{"a":1},"zoomLevel":3,"taskId":"t7"}`),
			wantTaskID: "t7",
			wantError:  "dataArray is malformed",
		},
		{
			name:       "duplicate names",
			raw:        []byte(`{"command":"getHiddenPointNames","dataArray":[{"name":"a","coordinates":[1,1]},{"name":"a","coordinates":[2,2]}],"zoomLevel":3,"taskId":"t8"}`),
			wantTaskID: "t8",
			wantError:  "dataArray is invalid",
		},
		{
			name:       "unknown command",
			raw:        []byte(`{"command":"dropTables","dataArray":[],"zoomLevel":3,"taskId":"t9"}`),
			wantTaskID: "t9",
			wantError:  "unknown command",
		},
		{
			name:       "not json",
			raw:        []byte(`{{{`),
			wantTaskID: "",
			wantError:  "malformed message",
		},
		{
			name:       "wrong field types keep task id",
			raw:        []byte(`{"command":42,"taskId":"t10"}`),
			wantTaskID: "t10",
			wantError:  "malformed message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp domain.VisibilityResponse
			assert.NotPanics(t, func() {
				resp = Handle(tt.raw, opts)
			})

			assert.Equal(t, tt.wantTaskID, resp.TaskID)
			if tt.wantError != "" {
				assert.True(t, resp.Failed())
				assert.Contains(t, resp.Error, tt.wantError)
				assert.Nil(t, resp.Result)
				return
			}
			assert.False(t, resp.Failed())
			assert.Equal(t, tt.wantResult, resp.Result)
			require.NotNil(t, resp.ZoomLevel)
		})
	}
}
