package mapview

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/poi-cluster-service/internal/clustering"
	"github.com/poi-cluster-service/internal/domain"
	"github.com/poi-cluster-service/internal/interaction"
	"github.com/poi-cluster-service/internal/layers"
	"github.com/poi-cluster-service/internal/visibility"
)

// Config - параметры одной карты
type Config struct {
	Cluster clustering.Options
	Layers  layers.Config
}

// DefaultConfig returns the default clustering options and layer thresholds
func DefaultConfig() Config {
	return Config{
		Cluster: clustering.DefaultOptions(),
		Layers:  layers.DefaultConfig(),
	}
}

// Session - состояние одного экземпляра карты: набор точек, активный индекс,
// видимая область, подписка на скрытые точки и интерактивность.
// Создаётся при открытии карты и закрывается вместе с ней.
type Session struct {
	logger      *zap.Logger
	sub         *visibility.Subscription
	coordinator *interaction.Coordinator

	mu            sync.RWMutex
	cfg           Config
	points        []domain.Point
	index         *clustering.Index
	viewport      domain.ViewportState
	hasViewport   bool
	requestedTier int
	routes        []domain.RouteSegment
	rings         []domain.SearchRing
}

// NewSession строит первый индекс. Невалидные точки отбрасываются с предупреждением.
func NewSession(points []domain.Point, cfg Config, transport visibility.Transport, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{
		logger:        logger,
		sub:           visibility.NewSubscription(transport, logger),
		coordinator:   interaction.NewCoordinator(logger),
		cfg:           cfg,
		requestedTier: -1,
	}

	s.points = s.filter(points)
	idx, _, err := clustering.Rebuild(nil, s.points, cfg.Cluster, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}
	s.index = idx

	return s, nil
}

// Start подключает подписку на ответы воркера
func (s *Session) Start(ctx context.Context) {
	s.sub.Start(ctx)
	s.logger.Debug("Map session started", zap.Uint32("generation", s.Index().Generation()))
}

// Close отписывается от ответов. Транспорт закрывает его владелец.
func (s *Session) Close() {
	s.sub.Close()
	s.logger.Debug("Map session closed")
}

// SetViewport сохраняет видимую область и запрашивает пересчёт скрытых точек
// при смене целочисленного уровня зума
func (s *Session) SetViewport(ctx context.Context, v domain.ViewportState) error {
	s.mu.Lock()
	s.viewport = v
	s.hasViewport = true
	tier := v.ZoomTier()
	tierChanged := tier != s.requestedTier
	if tierChanged {
		s.requestedTier = tier
	}
	points := s.points
	s.mu.Unlock()

	if !tierChanged {
		return nil
	}
	return s.request(ctx, points, v.Zoom, tier)
}

// SetDataset заменяет набор точек. Индекс перестраивается только при изменении входа.
func (s *Session) SetDataset(ctx context.Context, points []domain.Point) error {
	points = s.filter(points)

	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()

	return s.rebuild(ctx, points, cfg)
}

// SetRadius меняет радиус кластеризации
func (s *Session) SetRadius(ctx context.Context, radius float64) error {
	s.mu.Lock()
	cfg := s.cfg
	points := s.points
	s.mu.Unlock()

	cfg.Cluster.Radius = radius
	return s.rebuild(ctx, points, cfg)
}

func (s *Session) rebuild(ctx context.Context, points []domain.Point, cfg Config) error {
	s.mu.Lock()
	idx, built, err := clustering.Rebuild(s.index, points, cfg.Cluster, s.logger)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to rebuild index: %w", err)
	}
	if !built {
		s.mu.Unlock()
		return nil
	}

	s.index = idx
	s.points = points
	s.cfg = cfg
	hasViewport, zoom, tier := s.hasViewport, s.viewport.Zoom, s.viewport.ZoomTier()
	if hasViewport {
		s.requestedTier = tier
	}
	s.mu.Unlock()

	s.closeStalePopup(points)

	if !hasViewport {
		return nil
	}
	return s.request(ctx, points, zoom, tier)
}

// request отправляет запрос для уровня tier. Если отправка не удалась,
// уровень снова считается незапрошенным и следующий SetViewport повторит запрос.
func (s *Session) request(ctx context.Context, points []domain.Point, zoom float64, tier int) error {
	if _, err := s.sub.Request(ctx, points, zoom); err != nil {
		s.mu.Lock()
		if s.requestedTier == tier {
			s.requestedTier = -1
		}
		s.mu.Unlock()

		s.logger.Error("Failed to request hidden points", zap.Float64("zoom", zoom), zap.Error(err))
		return err
	}
	return nil
}

// Layers компонует слои по последнему применённому множеству скрытых точек
func (s *Session) Layers() []layers.RenderableLayer {
	hidden, _, _ := s.sub.Hidden()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return layers.Compose(layers.Input{
		Points:   s.points,
		Viewport: s.viewport,
		Index:    s.index,
		Hidden:   hidden,
		Routes:   s.routes,
		Rings:    s.rings,
	}, s.cfg.Layers)
}

// Hidden возвращает применённое множество скрытых имён и зум, для которого оно посчитано
func (s *Session) Hidden() (domain.HiddenSet, float64, bool) {
	return s.sub.Hidden()
}

// Updates - уведомления о новых множествах скрытых точек
func (s *Session) Updates() <-chan visibility.Update {
	return s.sub.Updates()
}

// Coordinator returns the interaction state of this map
func (s *Session) Coordinator() *interaction.Coordinator {
	return s.coordinator
}

// Index returns the active index generation
func (s *Session) Index() *clustering.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Viewport returns the last stored viewport
func (s *Session) Viewport() domain.ViewportState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewport
}

// AddSearchRing добавляет круг поиска вокруг center
func (s *Session) AddSearchRing(center orb.Point, radiusMeters float64) domain.SearchRing {
	s.mu.Lock()
	defer s.mu.Unlock()

	ring := domain.NewSearchRing(uuid.NewString(), center, radiusMeters, s.points)
	s.rings = append(s.rings, ring)
	return ring
}

// AddRoute добавляет маршрут на карту
func (s *Session) AddRoute(route domain.RouteSegment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.routes = append(s.routes, route)
}

// RemoveFeature удаляет маршрут или круг поиска по FeatureID
// и закрывает его карточку
func (s *Session) RemoveFeature(featureID string) bool {
	s.mu.Lock()
	removed := false
	for i, r := range s.rings {
		if r.FeatureID() == featureID {
			s.rings = append(s.rings[:i:i], s.rings[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		for i, r := range s.routes {
			if r.FeatureID() == featureID {
				s.routes = append(s.routes[:i:i], s.routes[i+1:]...)
				removed = true
				break
			}
		}
	}
	s.mu.Unlock()

	if removed {
		s.coordinator.OnFeatureDeleted(featureID)
	}
	return removed
}

// closeStalePopup: ID кластеров прежнего поколения недействительны,
// удалённые точки тоже закрывают свою карточку
func (s *Session) closeStalePopup(points []domain.Point) {
	popup := s.coordinator.Popup()
	if popup == nil {
		return
	}

	switch popup.Kind {
	case domain.FeatureKindCluster:
		s.coordinator.OnFeatureDeleted(popup.FeatureID)
	case domain.FeatureKindPoint:
		for _, p := range points {
			if (domain.PointFeature{Point: p}).FeatureID() == popup.FeatureID {
				return
			}
		}
		s.coordinator.OnFeatureDeleted(popup.FeatureID)
	}
}

func (s *Session) filter(points []domain.Point) []domain.Point {
	valid, rejected := domain.FilterValid(points)
	for _, r := range rejected {
		s.logger.Warn("Skipping invalid point",
			zap.Int("index", r.Index),
			zap.String("name", r.Name),
			zap.String("reason", r.Reason))
	}
	return valid
}
