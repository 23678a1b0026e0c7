package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/poi-cluster-service/internal/domain"
)

const testGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [2.17, 41.38]},
     "properties": {"name": "Cafe Uno", "category": "cafe", "address": "Carrer 1"}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [2.18, 41.39]},
     "properties": {"name": "Forn", "category": "bakery", "note": "fresh bread"}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [200, 41.39]},
     "properties": {"name": "Nowhere", "category": "bar"}}
  ]
}`

const testYAML = `points:
  - name: Cafe Uno
    category: cafe
    coordinates: [2.17, 41.38]
  - name: Hotel Arts
    category: hotel
    address: Carrer de la Marina 19
    coordinates: [2.196, 41.386]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"data/points.geojson", FormatGeoJSON, false},
		{"points.JSON", FormatJSON, false},
		{"points.yml", FormatYAML, false},
		{"points.yaml", FormatYAML, false},
		{"points.csv", "", true},
	}

	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if tt.wantErr {
			assert.Error(t, err, tt.path)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestPointRepository_LoadGeoJSON(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	repo := NewPointRepository(writeFile(t, "points.geojson", testGeoJSON), zap.New(core))

	points, err := repo.LoadAll(context.Background())
	require.NoError(t, err)

	require.Len(t, points, 2)
	assert.Equal(t, domain.Point{
		Coordinates: orb.Point{2.17, 41.38},
		Name:        "Cafe Uno",
		Address:     "Carrer 1",
		Category:    domain.CategoryCafe,
	}, points[0])
	assert.Equal(t, "fresh bread", points[1].Note)

	// точка с неверной долготой отброшена с предупреждением
	assert.Equal(t, 1, logs.FilterMessage("Skipping invalid point").Len())
}

func TestPointRepository_LoadYAML(t *testing.T) {
	repo := NewPointRepository(writeFile(t, "points.yaml", testYAML), zap.NewNop())

	points, err := repo.LoadAll(context.Background())
	require.NoError(t, err)

	require.Len(t, points, 2)
	assert.Equal(t, orb.Point{2.196, 41.386}, points[1].Coordinates)
	assert.Equal(t, domain.CategoryHotel, points[1].Category)
	assert.Equal(t, "Carrer de la Marina 19", points[1].Address)
}

func TestPointRepository_LoadJSONArray(t *testing.T) {
	content := `[{"name":"a","category":"bar","coordinates":[1,2]},{"name":"b","coordinates":[3,4]}]`
	repo := NewPointRepository(writeFile(t, "points.json", content), zap.NewNop())

	points, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, orb.Point{3, 4}, points[1].Coordinates)
}

func TestPointRepository_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewPointRepository(filepath.Join(t.TempDir(), "missing.geojson"), zap.NewNop()).LoadAll(ctx)
	assert.Error(t, err)

	_, err = NewPointRepository(writeFile(t, "points.csv", "a,b"), zap.NewNop()).LoadAll(ctx)
	assert.Error(t, err)

	_, err = NewPointRepository(writeFile(t, "points.geojson", "{not json"), zap.NewNop()).LoadAll(ctx)
	assert.Error(t, err)

	line := `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]},"properties":{}}]}`
	_, err = NewPointRepository(writeFile(t, "points.geojson", line), zap.NewNop()).LoadAll(ctx)
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewPointRepository(writeFile(t, "points.yaml", testYAML), zap.NewNop()).LoadAll(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestToFeatureCollection_RoundTrip(t *testing.T) {
	points, err := Parse([]byte(testYAML), FormatYAML)
	require.NoError(t, err)

	raw, err := ToFeatureCollection(points).MarshalJSON()
	require.NoError(t, err)

	back, err := Parse(raw, FormatGeoJSON)
	require.NoError(t, err)
	assert.Equal(t, points, back)
}
