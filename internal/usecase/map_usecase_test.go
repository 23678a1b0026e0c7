package usecase_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/poi-cluster-service/internal/clustering"
	"github.com/poi-cluster-service/internal/domain"
	"github.com/poi-cluster-service/internal/layers"
	"github.com/poi-cluster-service/internal/pkg/errors"
	"github.com/poi-cluster-service/internal/usecase"
	"github.com/poi-cluster-service/internal/usecase/dto"
)

const hiddenTTL = 10 * time.Minute

func dataset() []domain.Point {
	return []domain.Point{
		{Coordinates: orb.Point{2.1700, 41.3800}, Name: "Cafe Uno", Category: domain.CategoryCafe, Address: "Carrer 1"},
		{Coordinates: orb.Point{2.1712, 41.3806}, Name: "Cafe Dos", Category: domain.CategoryCafe},
		{Coordinates: orb.Point{2.1721, 41.3795}, Name: "Cafe Tres", Category: domain.CategoryCafe},
		{Coordinates: orb.Point{3.2000, 41.9000}, Name: "Can Roca", Category: domain.CategoryRestaurant},
	}
}

type fixture struct {
	uc      *usecase.MapUseCase
	points  *MockPointRepository
	cache   *MockCacheRepository
	routing *MockRoutingRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		points:  new(MockPointRepository),
		cache:   new(MockCacheRepository),
		routing: new(MockRoutingRepository),
	}
	f.uc = usecase.NewMapUseCase(f.points, f.cache, f.routing,
		clustering.DefaultOptions(), layers.DefaultConfig(), hiddenTTL, zap.NewNop())
	return f
}

func loadedFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.points.On("LoadAll", mock.Anything).Return(dataset(), nil)
	require.NoError(t, f.uc.Load(context.Background()))
	return f
}

func assertAppError(t *testing.T, err error, target *errors.AppError) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, target), "expected %s, got %v", target.Code, err)
}

func TestMapUseCase_NotLoaded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Clusters(ctx, dto.ClustersRequest{West: -180, South: -90, East: 180, North: 90, Zoom: 3})
	assertAppError(t, err, errors.ErrDatasetMissing)

	_, err = f.uc.Stats(ctx)
	assertAppError(t, err, errors.ErrDatasetMissing)

	_, err = f.uc.Tooltip(ctx, dto.FeatureRequest{Kind: domain.FeatureKindPoint, Name: "x"})
	assertAppError(t, err, errors.ErrDatasetMissing)
}

func TestMapUseCase_Load(t *testing.T) {
	f := newFixture(t)
	points := append(dataset(), domain.Point{Coordinates: orb.Point{999, 0}, Name: "broken"})
	f.points.On("LoadAll", mock.Anything).Return(points, nil)

	ctx := context.Background()
	require.NoError(t, f.uc.Load(ctx))

	stats, err := f.uc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalPoints)
	assert.Equal(t, 3, stats.ByCategory[domain.CategoryCafe])

	// повторная загрузка того же набора не меняет поколение
	gen := stats.Generation
	require.NoError(t, f.uc.Load(ctx))
	stats, err = f.uc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, gen, stats.Generation)
}

func TestMapUseCase_LoadError(t *testing.T) {
	f := newFixture(t)
	f.points.On("LoadAll", mock.Anything).Return(nil, stderrors.New("disk on fire"))

	err := f.uc.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestMapUseCase_Clusters(t *testing.T) {
	f := loadedFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     dto.ClustersRequest
		wantErr *errors.AppError
		wantLen int
	}{
		{
			name:    "world at zoom 8",
			req:     dto.ClustersRequest{West: -180, South: -90, East: 180, North: 90, Zoom: 8.7},
			wantLen: 2,
		},
		{
			name:    "world at zoom 18",
			req:     dto.ClustersRequest{West: -180, South: -90, East: 180, North: 90, Zoom: 18},
			wantLen: 4,
		},
		{
			name:    "empty area",
			req:     dto.ClustersRequest{West: 10, South: 10, East: 11, North: 11, Zoom: 8},
			wantLen: 0,
		},
		{
			name:    "south above north",
			req:     dto.ClustersRequest{West: 0, South: 50, East: 10, North: 40, Zoom: 8},
			wantErr: errors.ErrInvalidBBox,
		},
		{
			name:    "zoom out of range",
			req:     dto.ClustersRequest{West: 0, South: 40, East: 10, North: 50, Zoom: 30},
			wantErr: errors.ErrInvalidZoom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.uc.Clusters(ctx, tt.req)
			if tt.wantErr != nil {
				assertAppError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, resp.Features, tt.wantLen)
			assert.NotZero(t, resp.Generation)
		})
	}
}

func clusterID(t *testing.T, f *fixture) int64 {
	t.Helper()
	resp, err := f.uc.Clusters(context.Background(), dto.ClustersRequest{West: -180, South: -90, East: 180, North: 90, Zoom: 8})
	require.NoError(t, err)
	require.True(t, resp.Features[0].IsCluster)
	return resp.Features[0].ClusterID
}

func TestMapUseCase_ClusterNavigation(t *testing.T) {
	f := loadedFixture(t)
	ctx := context.Background()
	id := clusterID(t, f)

	leaves, err := f.uc.Leaves(ctx, dto.LeavesRequest{ClusterID: id, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, leaves.Points, 2)

	children, err := f.uc.Children(ctx, id)
	require.NoError(t, err)
	assert.NotEmpty(t, children.Children)

	expansion, err := f.uc.ExpansionZoom(ctx, id)
	require.NoError(t, err)
	assert.Greater(t, expansion.ExpansionZoom, 8)

	// устаревший ID: пустой результат для листьев, 404 для зума раскрытия
	stale, err := f.uc.Leaves(ctx, dto.LeavesRequest{ClusterID: 12345})
	require.NoError(t, err)
	assert.Empty(t, stale.Points)

	_, err = f.uc.ExpansionZoom(ctx, 12345)
	assertAppError(t, err, errors.ErrInvalidClusterID)
}

func TestMapUseCase_HiddenNames(t *testing.T) {
	t.Run("cache miss computes and stores", func(t *testing.T) {
		f := loadedFixture(t)
		f.cache.On("GetHiddenNames", mock.Anything, mock.Anything, 8).Return(nil, nil)
		f.cache.On("SetHiddenNames", mock.Anything, mock.Anything, 8, mock.Anything, hiddenTTL).Return(nil)

		resp, err := f.uc.HiddenNames(context.Background(), dto.HiddenNamesRequest{Zoom: 8.4})
		require.NoError(t, err)

		assert.Equal(t, 8, resp.Zoom)
		assert.False(t, resp.Cached)
		assert.Equal(t, []string{"Cafe Dos", "Cafe Tres", "Cafe Uno"}, resp.Names)
		f.cache.AssertExpectations(t)
	})

	t.Run("cache hit", func(t *testing.T) {
		f := loadedFixture(t)
		f.cache.On("GetHiddenNames", mock.Anything, mock.Anything, 8).
			Return(domain.HiddenSet{"from-cache": {}}, nil)

		resp, err := f.uc.HiddenNames(context.Background(), dto.HiddenNamesRequest{Zoom: 8})
		require.NoError(t, err)

		assert.True(t, resp.Cached)
		assert.Equal(t, []string{"from-cache"}, resp.Names)
		f.cache.AssertNotCalled(t, "SetHiddenNames", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cache failure falls back to computation", func(t *testing.T) {
		f := loadedFixture(t)
		f.cache.On("GetHiddenNames", mock.Anything, mock.Anything, 18).Return(nil, stderrors.New("redis down"))
		f.cache.On("SetHiddenNames", mock.Anything, mock.Anything, 18, mock.Anything, hiddenTTL).Return(stderrors.New("redis down"))

		resp, err := f.uc.HiddenNames(context.Background(), dto.HiddenNamesRequest{Zoom: 18})
		require.NoError(t, err)
		assert.NotNil(t, resp.Names)
		assert.Empty(t, resp.Names)
	})

	t.Run("invalid zoom", func(t *testing.T) {
		f := loadedFixture(t)
		_, err := f.uc.HiddenNames(context.Background(), dto.HiddenNamesRequest{Zoom: -1})
		assertAppError(t, err, errors.ErrInvalidZoom)
	})
}

func TestMapUseCase_Visibility(t *testing.T) {
	f := newFixture(t)

	resp := f.uc.Visibility(context.Background(), []byte(`{"command":"getHiddenPointNames","dataArray":[],"zoomLevel":"abc","taskId":"t1"}`))
	assert.Equal(t, "t1", resp.TaskID)
	assert.True(t, resp.Failed())

	req, err := domain.NewVisibilityRequest("t2", dataset(), 8)
	require.NoError(t, err)
	raw, err := json.Marshal(req)
	require.NoError(t, err)

	resp = f.uc.Visibility(context.Background(), raw)
	assert.False(t, resp.Failed())
	assert.Len(t, resp.Result, 3)
}

func TestMapUseCase_Layers(t *testing.T) {
	f := loadedFixture(t)
	f.cache.On("GetHiddenNames", mock.Anything, mock.Anything, 10).Return(nil, nil)
	f.cache.On("SetHiddenNames", mock.Anything, mock.Anything, 10, mock.Anything, hiddenTTL).Return(nil)

	resp, err := f.uc.Layers(context.Background(), dto.LayersRequest{
		Viewport: domain.ViewportState{Longitude: 2.17, Latitude: 41.38, Zoom: 10},
	})
	require.NoError(t, err)

	require.Len(t, resp.Layers, 2)
	assert.Equal(t, layers.LayerClusters, resp.Layers[0].ID)
	assert.Less(t, resp.BBox[0], 2.17)
	assert.Greater(t, resp.BBox[2], 2.17)

	// в детальном режиме кеш скрытых имён не нужен
	resp, err = f.uc.Layers(context.Background(), dto.LayersRequest{
		Viewport: domain.ViewportState{Longitude: 2.17, Latitude: 41.38, Zoom: 16},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Layers, 3)
	f.cache.AssertNumberOfCalls(t, "GetHiddenNames", 1)

	_, err = f.uc.Layers(context.Background(), dto.LayersRequest{
		Viewport: domain.ViewportState{Longitude: 200, Latitude: 41.38, Zoom: 16},
	})
	assertAppError(t, err, errors.ErrInvalidCoordinates)
}

func TestMapUseCase_TooltipAndPopup(t *testing.T) {
	f := loadedFixture(t)
	ctx := context.Background()

	tooltip, err := f.uc.Tooltip(ctx, dto.FeatureRequest{Kind: domain.FeatureKindPoint, Name: "Cafe Uno"})
	require.NoError(t, err)
	assert.Equal(t, "Cafe Uno", tooltip.Title)

	popup, err := f.uc.Popup(ctx, dto.FeatureRequest{Kind: domain.FeatureKindPoint, Name: "Cafe Uno"})
	require.NoError(t, err)
	assert.Equal(t, "marker-cafe", popup.Icon)

	tooltip, err = f.uc.Tooltip(ctx, dto.FeatureRequest{Kind: domain.FeatureKindCluster, ClusterID: clusterID(t, f)})
	require.NoError(t, err)
	assert.Equal(t, 3, tooltip.Count)
	assert.NotEmpty(t, tooltip.Hint)

	ring := domain.SearchRing{ID: "s", RadiusMeters: 100, MatchCount: 1}
	tooltip, err = f.uc.Tooltip(ctx, dto.FeatureRequest{Kind: domain.FeatureKindSearchRing, SearchRing: &ring})
	require.NoError(t, err)
	assert.Equal(t, "ring:s", tooltip.FeatureID)

	_, err = f.uc.Tooltip(ctx, dto.FeatureRequest{Kind: domain.FeatureKindPoint, Name: "nope"})
	assertAppError(t, err, errors.ErrInvalidFeature)

	_, err = f.uc.Popup(ctx, dto.FeatureRequest{Kind: domain.FeatureKindCluster, ClusterID: 1})
	assertAppError(t, err, errors.ErrInvalidClusterID)

	_, err = f.uc.Popup(ctx, dto.FeatureRequest{Kind: domain.FeatureKindRoute})
	assertAppError(t, err, errors.ErrInvalidFeature)

	_, err = f.uc.Popup(ctx, dto.FeatureRequest{Kind: "polygon"})
	assertAppError(t, err, errors.ErrInvalidFeature)
}

func TestMapUseCase_SearchRing(t *testing.T) {
	f := loadedFixture(t)
	ctx := context.Background()

	resp, err := f.uc.SearchRing(ctx, dto.SearchRingRequest{Lon: 2.1721, Lat: 41.3795, RadiusMeters: 500})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Ring.MatchCount)
	require.Len(t, resp.Matches, 3)
	assert.Equal(t, "Cafe Tres", resp.Matches[0].Name)

	resp, err = f.uc.SearchRing(ctx, dto.SearchRingRequest{Lon: 2.1721, Lat: 41.3795, RadiusMeters: 500, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Ring.MatchCount)
	assert.Len(t, resp.Matches, 1)

	_, err = f.uc.SearchRing(ctx, dto.SearchRingRequest{Lon: 2, Lat: 41, RadiusMeters: 0.5})
	assertAppError(t, err, errors.ErrInvalidRadius)

	_, err = f.uc.SearchRing(ctx, dto.SearchRingRequest{Lon: 2, Lat: 95, RadiusMeters: 50})
	assertAppError(t, err, errors.ErrInvalidCoordinates)
}

func TestMapUseCase_Route(t *testing.T) {
	ctx := context.Background()
	req := dto.RouteRequest{Waypoints: []dto.Coordinate{{Lon: 2.17, Lat: 41.38}, {Lon: 2.18, Lat: 41.39}}}

	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		route := &domain.RouteSegment{ID: "r1", DistanceMeters: 1400}
		f.routing.On("GetRoute", mock.Anything, []orb.Point{{2.17, 41.38}, {2.18, 41.39}}).Return(route, nil)

		got, err := f.uc.Route(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, route, got)
	})

	t.Run("upstream failure", func(t *testing.T) {
		f := newFixture(t)
		f.routing.On("GetRoute", mock.Anything, mock.Anything).Return(nil, stderrors.New("timeout"))

		_, err := f.uc.Route(ctx, req)
		assertAppError(t, err, errors.ErrRoutingFailed)
	})

	t.Run("invalid waypoint", func(t *testing.T) {
		f := newFixture(t)
		bad := dto.RouteRequest{Waypoints: []dto.Coordinate{{Lon: 2.17, Lat: 41.38}, {Lon: 500, Lat: 41.39}}}

		_, err := f.uc.Route(ctx, bad)
		assertAppError(t, err, errors.ErrInvalidCoordinates)
		f.routing.AssertNotCalled(t, "GetRoute", mock.Anything, mock.Anything)
	})

	t.Run("routing not configured", func(t *testing.T) {
		uc := usecase.NewMapUseCase(new(MockPointRepository), nil, nil,
			clustering.DefaultOptions(), layers.DefaultConfig(), hiddenTTL, zap.NewNop())
		_, err := uc.Route(ctx, req)
		assertAppError(t, err, errors.ErrRoutingFailed)
	})
}
