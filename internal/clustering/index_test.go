package clustering

import (
	"fmt"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/poi-cluster-service/internal/domain"
)

var world = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

// tightGroup - n точек в пределах ~50 м друг от друга
func tightGroup(prefix string, center orb.Point, n int) []domain.Point {
	points := make([]domain.Point, n)
	for i := range points {
		points[i] = domain.Point{
			Coordinates: orb.Point{center[0] + float64(i)*0.00004, center[1] + float64(i%3)*0.00003},
			Name:        fmt.Sprintf("%s-%d", prefix, i),
			Category:    domain.CategoryCafe,
		}
	}
	return points
}

func mixedDataset() []domain.Point {
	var points []domain.Point
	points = append(points, tightGroup("barcelona", orb.Point{2.17, 41.38}, 12)...)
	points = append(points, tightGroup("madrid", orb.Point{-3.70, 40.42}, 7)...)
	points = append(points, tightGroup("lisbon", orb.Point{-9.14, 38.72}, 3)...)
	points = append(points,
		domain.Point{Coordinates: orb.Point{13.40, 52.52}, Name: "berlin", Category: domain.CategoryBar},
		domain.Point{Coordinates: orb.Point{179.9, -16.5}, Name: "fiji-east", Category: domain.CategoryHotel},
		domain.Point{Coordinates: orb.Point{-179.9, -16.6}, Name: "fiji-west", Category: domain.CategoryHotel},
	)
	return points
}

func buildIndex(t *testing.T, points []domain.Point) *Index {
	t.Helper()
	idx, err := Build(points, DefaultOptions(), zap.NewNop())
	require.NoError(t, err)
	return idx
}

// collectNames раскрывает результат запроса в имена исходных точек
func collectNames(t *testing.T, idx *Index, features []domain.ClusterFeature) []string {
	t.Helper()
	var names []string
	for _, f := range features {
		if f.IsCluster {
			leaves := idx.Expand(f.ClusterID, 0)
			require.Len(t, leaves, f.PointCount)
			for _, l := range leaves {
				names = append(names, l.Name)
			}
			continue
		}
		require.NotNil(t, f.Point)
		names = append(names, f.Point.Name)
	}
	return names
}

func TestBuild_InvalidRadius(t *testing.T) {
	for _, radius := range []float64{0, -5} {
		opts := DefaultOptions()
		opts.Radius = radius
		_, err := Build(nil, opts, zap.NewNop())
		assert.Error(t, err)
	}
}

func TestBuild_ZoomRange(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxZoom = 40
	idx, err := Build(mixedDataset(), opts, nil)
	require.NoError(t, err)
	assert.Equal(t, MaxSupportedZoom, idx.Options().MaxZoom)

	opts = DefaultOptions()
	opts.MinZoom, opts.MaxZoom = 10, 5
	_, err = Build(nil, opts, nil)
	assert.Error(t, err)
}

func TestBuild_EmptyDataset(t *testing.T) {
	idx := buildIndex(t, nil)

	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.Query(world, 5))
	assert.Empty(t, idx.All(0))
	assert.Empty(t, idx.Expand(1, 10))
}

func TestBuild_UniqueGenerations(t *testing.T) {
	a := buildIndex(t, mixedDataset())
	b := buildIndex(t, mixedDataset())
	assert.NotEqual(t, a.Generation(), b.Generation())
}

func TestQuery_TightGroupFormsSingleCluster(t *testing.T) {
	idx := buildIndex(t, tightGroup("shop", orb.Point{2.17, 41.38}, 10))

	features := idx.Query(world, 5)

	require.Len(t, features, 1)
	assert.True(t, features[0].IsCluster)
	assert.Equal(t, 10, features[0].PointCount)
	assert.InDelta(t, 2.17, features[0].Coordinates.Lon(), 0.001)
	assert.InDelta(t, 41.38, features[0].Coordinates.Lat(), 0.001)
}

func TestQuery_SplitsAtHigherZoom(t *testing.T) {
	// ~2 км друг от друга на экваторе
	idx := buildIndex(t, []domain.Point{
		{Coordinates: orb.Point{10.0, 0}, Name: "a"},
		{Coordinates: orb.Point{10.018, 0}, Name: "b"},
	})

	low := idx.Query(world, 10)
	require.Len(t, low, 1)
	assert.True(t, low[0].IsCluster)
	assert.Equal(t, 2, low[0].PointCount)

	high := idx.Query(world, 15)
	require.Len(t, high, 2)
	for _, f := range high {
		assert.False(t, f.IsCluster)
		assert.True(t, f.RendersAsPoint())
	}
}

func TestQuery_Determinism(t *testing.T) {
	idx := buildIndex(t, mixedDataset())

	for z := 0; z <= 17; z++ {
		first := idx.Query(world, float64(z))
		second := idx.Query(world, float64(z))
		assert.Equal(t, first, second, "zoom %d", z)
	}

	// одинаковый вход даёт одинаковое разбиение в другом поколении
	other := buildIndex(t, mixedDataset())
	for z := 0; z <= 17; z++ {
		assert.Equal(t,
			collectNames(t, idx, idx.Query(world, float64(z))),
			collectNames(t, other, other.Query(world, float64(z))),
		)
	}
}

func TestQuery_Partition(t *testing.T) {
	points := mixedDataset()
	idx := buildIndex(t, points)

	for z := 0; z <= 17; z++ {
		names := collectNames(t, idx, idx.Query(world, float64(z)))
		assert.Len(t, names, len(points), "zoom %d", z)

		seen := make(map[string]int)
		for _, n := range names {
			seen[n]++
		}
		for _, p := range points {
			assert.Equal(t, 1, seen[p.Name], "zoom %d point %s", z, p.Name)
		}
	}
}

func TestQuery_ZoomMonotonicity(t *testing.T) {
	idx := buildIndex(t, mixedDataset())

	prevCount := 0
	prevMax := 1 << 30
	for z := 0; z <= 17; z++ {
		features := idx.Query(world, float64(z))
		maxSize := 0
		for _, f := range features {
			if f.PointCount > maxSize {
				maxSize = f.PointCount
			}
		}
		assert.GreaterOrEqual(t, len(features), prevCount, "zoom %d", z)
		assert.LessOrEqual(t, maxSize, prevMax, "zoom %d", z)
		prevCount, prevMax = len(features), maxSize
	}

	// выше MaxZoom только исходные точки
	for _, f := range idx.Query(world, 30) {
		assert.False(t, f.IsCluster)
	}
}

func TestQuery_FloorsZoom(t *testing.T) {
	idx := buildIndex(t, mixedDataset())
	assert.Equal(t, idx.Query(world, 7), idx.Query(world, 7.9))
}

func TestQuery_BBoxFilter(t *testing.T) {
	idx := buildIndex(t, mixedDataset())

	germany := orb.Bound{Min: orb.Point{5, 47}, Max: orb.Point{15, 55}}
	features := idx.Query(germany, 10)
	require.Len(t, features, 1)
	assert.Equal(t, "berlin", features[0].Point.Name)
}

func TestQuery_Antimeridian(t *testing.T) {
	idx := buildIndex(t, mixedDataset())

	// west > east: рамка через 180-й меридиан
	fiji := orb.Bound{Min: orb.Point{179, -18}, Max: orb.Point{-179, -15}}
	names := collectNames(t, idx, idx.Query(fiji, 14))
	assert.ElementsMatch(t, []string{"fiji-east", "fiji-west"}, names)

	// рамка шире мира
	wide := orb.Bound{Min: orb.Point{-200, -90}, Max: orb.Point{200, 90}}
	assert.Len(t, collectNames(t, idx, idx.Query(wide, 3)), len(mixedDataset()))
}

func TestQuery_OrderClustersFirst(t *testing.T) {
	idx := buildIndex(t, mixedDataset())

	features := idx.Query(world, 8)
	seenPoint := false
	var lastID int64
	for _, f := range features {
		if !f.IsCluster {
			seenPoint = true
			continue
		}
		assert.False(t, seenPoint, "cluster after point")
		assert.Greater(t, f.ClusterID, lastID)
		lastID = f.ClusterID
	}
}
