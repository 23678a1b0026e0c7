package clustering

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/poi-cluster-service/internal/domain"
)

func firstCluster(t *testing.T, idx *Index, zoom float64) domain.ClusterFeature {
	t.Helper()
	for _, f := range idx.Query(world, zoom) {
		if f.IsCluster {
			return f
		}
	}
	t.Fatalf("no cluster at zoom %v", zoom)
	return domain.ClusterFeature{}
}

func TestExpand_LimitAndDeterminism(t *testing.T) {
	idx := buildIndex(t, mixedDataset())
	cluster := firstCluster(t, idx, 5)

	all := idx.Expand(cluster.ClusterID, 0)
	assert.Len(t, all, cluster.PointCount)
	assert.Equal(t, all, idx.Expand(cluster.ClusterID, -1))

	limited := idx.Expand(cluster.ClusterID, 3)
	require.Len(t, limited, 3)
	assert.Equal(t, all[:3], limited)

	// повторные вызовы возвращают тот же порядок
	for i := 0; i < 5; i++ {
		assert.Equal(t, all, idx.Expand(cluster.ClusterID, 0))
	}
}

func TestLeaves_Pagination(t *testing.T) {
	idx := buildIndex(t, tightGroup("p", orb.Point{2.17, 41.38}, 12))
	cluster := firstCluster(t, idx, 3)
	all := idx.Leaves(cluster.ClusterID, 0, 0)
	require.Len(t, all, 12)

	var paged []domain.Point
	for offset := 0; offset < 12; offset += 5 {
		paged = append(paged, idx.Leaves(cluster.ClusterID, 5, offset)...)
	}
	assert.Equal(t, all, paged)
	assert.Empty(t, idx.Leaves(cluster.ClusterID, 5, 100))
}

func TestExpand_StaleID(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	points := mixedDataset()

	old, err := Build(points, DefaultOptions(), zap.New(core))
	require.NoError(t, err)
	staleID := firstCluster(t, old, 5).ClusterID

	rebuilt, err := Build(points, DefaultOptions(), zap.New(core))
	require.NoError(t, err)

	assert.False(t, rebuilt.Contains(staleID))
	leaves := rebuilt.Expand(staleID, 10)
	assert.NotNil(t, leaves)
	assert.Empty(t, leaves)
	assert.Empty(t, rebuilt.Children(staleID))
	_, ok := rebuilt.ExpansionZoom(staleID)
	assert.False(t, ok)

	assert.Equal(t, 3, logs.FilterMessage("Unknown or stale cluster ID").Len())
}

func TestExpand_GarbageIDs(t *testing.T) {
	idx := buildIndex(t, mixedDataset())
	gen := int64(idx.Generation()) << 32

	for _, id := range []int64{0, -1, 42, gen | 1<<20<<zoomBits | 3, gen | 31} {
		assert.NotPanics(t, func() {
			assert.Empty(t, idx.Expand(id, 0))
			assert.Empty(t, idx.Children(id))
		})
	}
}

func TestChildren(t *testing.T) {
	idx := buildIndex(t, mixedDataset())
	cluster := firstCluster(t, idx, 2)

	children := idx.Children(cluster.ClusterID)
	require.NotEmpty(t, children)

	total := 0
	for _, c := range children {
		total += c.PointCount
	}
	assert.Equal(t, cluster.PointCount, total)
}

func TestFeature(t *testing.T) {
	idx := buildIndex(t, mixedDataset())
	cluster := firstCluster(t, idx, 4)

	got, ok := idx.Feature(cluster.ClusterID)
	require.True(t, ok)
	assert.Equal(t, cluster, got)

	_, ok = idx.Feature(-1)
	assert.False(t, ok)
}

func TestExpansionZoom(t *testing.T) {
	idx := buildIndex(t, []domain.Point{
		{Coordinates: orb.Point{10.0, 0}, Name: "a"},
		{Coordinates: orb.Point{10.018, 0}, Name: "b"},
	})

	cluster := firstCluster(t, idx, 4)
	zoom, ok := idx.ExpansionZoom(cluster.ClusterID)
	require.True(t, ok)
	assert.Equal(t, 11, zoom)
	assert.Equal(t, 11, cluster.ExpansionZoom)

	// на зуме раскрытия кластер распадается
	assert.Len(t, idx.Query(world, float64(zoom)), 2)
}

func TestExpansionZoom_GreaterThanQueryZoom(t *testing.T) {
	idx := buildIndex(t, mixedDataset())
	for z := 0; z <= 16; z++ {
		for _, f := range idx.Query(world, float64(z)) {
			if f.IsCluster {
				assert.Greater(t, f.ExpansionZoom, z)
			}
		}
	}
}

func TestRebuild(t *testing.T) {
	points := mixedDataset()
	opts := DefaultOptions()

	first, built, err := Rebuild(nil, points, opts, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, built)

	same, built, err := Rebuild(first, append([]domain.Point(nil), points...), opts, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, built)
	assert.Same(t, first, same)

	opts.Radius = 60
	wider, built, err := Rebuild(first, points, opts, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, built)
	assert.NotEqual(t, first.Generation(), wider.Generation())

	changed := append([]domain.Point(nil), points...)
	changed[0].Note = "renovated"
	next, built, err := Rebuild(wider, changed, opts, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, built)
	assert.NotSame(t, wider, next)

	// предыдущее поколение остаётся рабочим
	assert.NotEmpty(t, first.Query(world, 5))
}

func TestRebuild_InputSnapshot(t *testing.T) {
	points := mixedDataset()
	idx, _, err := Rebuild(nil, points, DefaultOptions(), nil)
	require.NoError(t, err)

	// изменение исходного среза не влияет на индекс
	points[0].Name = "mutated"
	assert.NotEqual(t, "mutated", idx.Points()[0].Name)

	_, built, err := Rebuild(idx, points, DefaultOptions(), nil)
	require.NoError(t, err)
	assert.True(t, built)
}

func TestRebuild_InvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Radius = 0
	_, _, err := Rebuild(nil, nil, opts, nil)
	assert.Error(t, err)
}
