package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/poi-cluster-service/internal/clustering"
	"github.com/poi-cluster-service/internal/domain"
	"github.com/poi-cluster-service/internal/domain/repository"
	"github.com/poi-cluster-service/internal/interaction"
	"github.com/poi-cluster-service/internal/layers"
	"github.com/poi-cluster-service/internal/pkg/errors"
	"github.com/poi-cluster-service/internal/pkg/utils"
	"github.com/poi-cluster-service/internal/usecase/dto"
	"github.com/poi-cluster-service/internal/visibility"
)

const defaultSearchRingLimit = 50

// MapUseCase - операции карты над загруженным набором точек
type MapUseCase struct {
	pointRepo   repository.PointRepository
	cacheRepo   repository.CacheRepository
	routingRepo repository.RoutingRepository
	opts        clustering.Options
	layersCfg   layers.Config
	hiddenTTL   time.Duration
	logger      *zap.Logger

	mu     sync.RWMutex
	points []domain.Point
	byName map[string]domain.Point
	index  *clustering.Index
}

// NewMapUseCase - создание нового MapUseCase. cacheRepo и routingRepo могут быть nil.
func NewMapUseCase(
	pointRepo repository.PointRepository,
	cacheRepo repository.CacheRepository,
	routingRepo repository.RoutingRepository,
	opts clustering.Options,
	layersCfg layers.Config,
	hiddenTTL time.Duration,
	logger *zap.Logger,
) *MapUseCase {
	return &MapUseCase{
		pointRepo:   pointRepo,
		cacheRepo:   cacheRepo,
		routingRepo: routingRepo,
		opts:        opts,
		layersCfg:   layersCfg,
		hiddenTTL:   hiddenTTL,
		logger:      logger,
	}
}

// Load читает набор точек и перестраивает индекс, если вход изменился
func (uc *MapUseCase) Load(ctx context.Context) error {
	points, err := uc.pointRepo.LoadAll(ctx)
	if err != nil {
		uc.logger.Error("Failed to load dataset", zap.Error(err))
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	points, rejected := domain.FilterValid(points)
	if len(rejected) > 0 {
		uc.logger.Warn("Dataset contains invalid points", zap.Int("rejected", len(rejected)))
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	idx, built, err := clustering.Rebuild(uc.index, points, uc.opts, uc.logger)
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}
	if !built {
		uc.logger.Info("Dataset unchanged, index reused", zap.Uint32("generation", idx.Generation()))
		return nil
	}

	byName := make(map[string]domain.Point, len(points))
	for _, p := range points {
		byName[p.Name] = p
	}

	uc.points = idx.Points()
	uc.byName = byName
	uc.index = idx

	uc.logger.Info("Spatial index built",
		zap.Int("points", idx.Len()),
		zap.Uint32("generation", idx.Generation()))
	return nil
}

func (uc *MapUseCase) current() (*clustering.Index, []domain.Point, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	if uc.index == nil {
		return nil, nil, errors.ErrDatasetMissing
	}
	return uc.index, uc.points, nil
}

// Clusters - кластеры и точки в bbox на уровне floor(zoom)
func (uc *MapUseCase) Clusters(ctx context.Context, req dto.ClustersRequest) (*dto.ClustersResponse, error) {
	if !utils.ValidateBBox(req.West, req.South, req.East, req.North) {
		return nil, errors.ErrInvalidBBox
	}
	if !validZoom(req.Zoom) {
		return nil, errors.ErrInvalidZoom
	}

	idx, _, err := uc.current()
	if err != nil {
		return nil, err
	}

	bbox := orb.Bound{
		Min: orb.Point{req.West, req.South},
		Max: orb.Point{req.East, req.North},
	}

	return &dto.ClustersResponse{
		Features:   idx.Query(bbox, req.Zoom),
		Zoom:       int(math.Floor(req.Zoom)),
		Generation: idx.Generation(),
	}, nil
}

// Leaves - исходные точки кластера. Устаревший ID даёт пустой список.
func (uc *MapUseCase) Leaves(ctx context.Context, req dto.LeavesRequest) (*dto.LeavesResponse, error) {
	idx, _, err := uc.current()
	if err != nil {
		return nil, err
	}

	return &dto.LeavesResponse{
		ClusterID: req.ClusterID,
		Points:    idx.Leaves(req.ClusterID, req.Limit, req.Offset),
		Limit:     req.Limit,
		Offset:    req.Offset,
	}, nil
}

// Children - потомки кластера. Устаревший ID даёт пустой список.
func (uc *MapUseCase) Children(ctx context.Context, clusterID int64) (*dto.ChildrenResponse, error) {
	idx, _, err := uc.current()
	if err != nil {
		return nil, err
	}

	return &dto.ChildrenResponse{
		ClusterID: clusterID,
		Children:  idx.Children(clusterID),
	}, nil
}

// ExpansionZoom - зум распада кластера
func (uc *MapUseCase) ExpansionZoom(ctx context.Context, clusterID int64) (*dto.ExpansionZoomResponse, error) {
	idx, _, err := uc.current()
	if err != nil {
		return nil, err
	}

	zoom, ok := idx.ExpansionZoom(clusterID)
	if !ok {
		return nil, errors.ErrInvalidClusterID.WithDetails(map[string]interface{}{
			"cluster_id": clusterID,
		})
	}

	return &dto.ExpansionZoomResponse{ClusterID: clusterID, ExpansionZoom: zoom}, nil
}

// HiddenNames - скрытые имена уровня зума; кешируются по поколению индекса и уровню
func (uc *MapUseCase) HiddenNames(ctx context.Context, req dto.HiddenNamesRequest) (*dto.HiddenNamesResponse, error) {
	if !validZoom(req.Zoom) {
		return nil, errors.ErrInvalidZoom
	}

	idx, _, err := uc.current()
	if err != nil {
		return nil, err
	}

	tier := int(math.Floor(req.Zoom))
	hidden, cached := uc.hiddenSet(ctx, idx, tier)

	return &dto.HiddenNamesResponse{
		Zoom:       tier,
		Generation: idx.Generation(),
		Names:      hidden.Names(),
		Cached:     cached,
	}, nil
}

// hiddenSet: ошибки кеша не фатальны, множество просто вычисляется заново
func (uc *MapUseCase) hiddenSet(ctx context.Context, idx *clustering.Index, tier int) (domain.HiddenSet, bool) {
	if uc.cacheRepo != nil {
		hidden, err := uc.cacheRepo.GetHiddenNames(ctx, idx.Generation(), tier)
		if err != nil {
			uc.logger.Warn("Failed to read hidden names from cache", zap.Int("zoom", tier), zap.Error(err))
		} else if hidden != nil {
			return hidden, true
		}
	}

	hidden := visibility.HiddenIn(idx, float64(tier))

	if uc.cacheRepo != nil {
		if err := uc.cacheRepo.SetHiddenNames(ctx, idx.Generation(), tier, hidden, uc.hiddenTTL); err != nil {
			uc.logger.Warn("Failed to cache hidden names", zap.Int("zoom", tier), zap.Error(err))
		}
	}
	return hidden, false
}

// Visibility обрабатывает сообщение воркера видимости; ответ есть всегда
func (uc *MapUseCase) Visibility(ctx context.Context, raw []byte) domain.VisibilityResponse {
	resp := visibility.Handle(raw, uc.opts)
	if resp.Failed() {
		uc.logger.Warn("Visibility request failed",
			zap.String("task_id", resp.TaskID),
			zap.String("error", resp.Error))
	}
	return resp
}

// Layers компонует слои для видимой области
func (uc *MapUseCase) Layers(ctx context.Context, req dto.LayersRequest) (*dto.LayersResponse, error) {
	v := req.Viewport
	if !validZoom(v.Zoom) {
		return nil, errors.ErrInvalidZoom
	}
	if !domain.ValidCoordinates(v.Longitude, v.Latitude) {
		return nil, errors.ErrInvalidCoordinates
	}

	idx, points, err := uc.current()
	if err != nil {
		return nil, err
	}

	var hidden domain.HiddenSet
	if v.Zoom < uc.layersCfg.ClusterMaxZoom {
		hidden, _ = uc.hiddenSet(ctx, idx, v.ZoomTier())
	}

	bbox := v.Bounds()
	return &dto.LayersResponse{
		Layers: layers.Compose(layers.Input{
			Points:   points,
			Viewport: v,
			Index:    idx,
			Hidden:   hidden,
			Routes:   req.Routes,
			Rings:    req.SearchRings,
		}, uc.layersCfg),
		BBox:       [4]float64{bbox.Min.Lon(), bbox.Min.Lat(), bbox.Max.Lon(), bbox.Max.Lat()},
		Zoom:       v.Zoom,
		Generation: idx.Generation(),
	}, nil
}

// Tooltip - подсказка для объекта под указателем
func (uc *MapUseCase) Tooltip(ctx context.Context, req dto.FeatureRequest) (*interaction.Tooltip, error) {
	f, err := uc.resolveFeature(req)
	if err != nil {
		return nil, err
	}
	return interaction.TooltipFor(f), nil
}

// Popup - карточка объекта по клику
func (uc *MapUseCase) Popup(ctx context.Context, req dto.FeatureRequest) (*interaction.Popup, error) {
	f, err := uc.resolveFeature(req)
	if err != nil {
		return nil, err
	}
	return interaction.PopupFor(f), nil
}

func (uc *MapUseCase) resolveFeature(req dto.FeatureRequest) (domain.Feature, error) {
	switch req.Kind {
	case domain.FeatureKindPoint:
		uc.mu.RLock()
		p, ok := uc.byName[req.Name]
		loaded := uc.index != nil
		uc.mu.RUnlock()
		if !loaded {
			return nil, errors.ErrDatasetMissing
		}
		if !ok {
			return nil, errors.ErrInvalidFeature.WithDetails(map[string]interface{}{"name": req.Name})
		}
		return domain.PointFeature{Point: p}, nil
	case domain.FeatureKindCluster:
		idx, _, err := uc.current()
		if err != nil {
			return nil, err
		}
		f, ok := idx.Feature(req.ClusterID)
		if !ok {
			return nil, errors.ErrInvalidClusterID.WithDetails(map[string]interface{}{"cluster_id": req.ClusterID})
		}
		return f, nil
	case domain.FeatureKindRoute:
		if req.Route == nil {
			return nil, errors.ErrInvalidFeature.WithMessage("route is required")
		}
		return *req.Route, nil
	case domain.FeatureKindSearchRing:
		if req.SearchRing == nil {
			return nil, errors.ErrInvalidFeature.WithMessage("search_ring is required")
		}
		return *req.SearchRing, nil
	default:
		return nil, errors.ErrInvalidFeature.WithDetails(map[string]interface{}{"kind": req.Kind})
	}
}

// SearchRing строит круг поиска и возвращает точки внутри, ближайшие первыми
func (uc *MapUseCase) SearchRing(ctx context.Context, req dto.SearchRingRequest) (*dto.SearchRingResponse, error) {
	if !domain.ValidCoordinates(req.Lon, req.Lat) {
		return nil, errors.ErrInvalidCoordinates
	}
	if !utils.ValidateRadius(req.RadiusMeters) {
		return nil, errors.ErrInvalidRadius
	}
	if req.Limit == 0 {
		req.Limit = defaultSearchRingLimit
	}

	_, points, err := uc.current()
	if err != nil {
		return nil, err
	}

	center := orb.Point{req.Lon, req.Lat}
	ring := domain.NewSearchRing(uuid.NewString(), center, req.RadiusMeters, points)

	type match struct {
		point    domain.Point
		distance float64
	}
	matches := make([]match, 0, ring.MatchCount)
	for _, p := range points {
		if d := utils.PointDistance(center, p.Coordinates); d <= req.RadiusMeters {
			matches = append(matches, match{point: p, distance: d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})
	if len(matches) > req.Limit {
		matches = matches[:req.Limit]
	}

	out := make([]domain.Point, len(matches))
	for i, m := range matches {
		out[i] = m.point
	}

	return &dto.SearchRingResponse{Ring: ring, Matches: out}, nil
}

// Route запрашивает маршрут у внешнего сервиса
func (uc *MapUseCase) Route(ctx context.Context, req dto.RouteRequest) (*domain.RouteSegment, error) {
	if uc.routingRepo == nil {
		return nil, errors.ErrRoutingFailed.WithMessage("Routing is not configured")
	}

	waypoints := make([]orb.Point, len(req.Waypoints))
	for i, w := range req.Waypoints {
		if !domain.ValidCoordinates(w.Lon, w.Lat) {
			return nil, errors.ErrInvalidCoordinates.WithDetails(map[string]interface{}{
				"waypoint_index": i,
			})
		}
		waypoints[i] = orb.Point{w.Lon, w.Lat}
	}

	route, err := uc.routingRepo.GetRoute(ctx, waypoints)
	if err != nil {
		uc.logger.Error("Failed to get route", zap.Int("waypoints", len(waypoints)), zap.Error(err))
		return nil, errors.ErrRoutingFailed
	}
	return route, nil
}

// Stats - статистика набора данных
func (uc *MapUseCase) Stats(ctx context.Context) (*domain.DatasetStats, error) {
	idx, points, err := uc.current()
	if err != nil {
		return nil, err
	}

	stats := domain.NewDatasetStats(points, idx.Generation())
	return &stats, nil
}

func validZoom(zoom float64) bool {
	return !math.IsNaN(zoom) && zoom >= 0 && zoom <= clustering.MaxSupportedZoom
}
