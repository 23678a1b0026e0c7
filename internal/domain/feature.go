package domain

import (
	"strconv"

	"github.com/paulmach/orb"

	"github.com/poi-cluster-service/internal/pkg/utils"
)

// FeatureKind - тег объекта, выбранного указателем на карте
type FeatureKind string

const (
	FeatureKindPoint      FeatureKind = "point"
	FeatureKindCluster    FeatureKind = "cluster"
	FeatureKindRoute      FeatureKind = "route"
	FeatureKindSearchRing FeatureKind = "search_ring"
)

// Feature - объект под указателем. Закрытое объединение:
// реализуют только PointFeature, ClusterFeature, RouteSegment и SearchRing.
type Feature interface {
	Kind() FeatureKind
	FeatureID() string
	sealed()
}

// PointFeature - одиночная точка интереса под указателем
type PointFeature struct {
	Point Point `json:"point"`
}

func (PointFeature) Kind() FeatureKind { return FeatureKindPoint }
func (f PointFeature) FeatureID() string { return "point:" + f.Point.Name }
func (PointFeature) sealed() {}
func (ClusterFeature) Kind() FeatureKind { return FeatureKindCluster }
func (ClusterFeature) sealed() {}
func (RouteSegment) Kind() FeatureKind { return FeatureKindRoute }
func (f RouteSegment) FeatureID() string { return "route:" + f.ID }
func (RouteSegment) sealed() {}
func (SearchRing) Kind() FeatureKind { return FeatureKindSearchRing }
func (f SearchRing) FeatureID() string { return "ring:" + f.ID }
func (SearchRing) sealed() {}

// FeatureID для кластера из одной точки совпадает с идентификатором точки
func (f ClusterFeature) FeatureID() string {
	if f.RendersAsPoint() && f.Point != nil {
		return "point:" + f.Point.Name
	}
	return "cluster:" + strconv.FormatInt(f.ClusterID, 10)
}

// RouteSegment - геометрия маршрута от внешнего сервиса маршрутизации
type RouteSegment struct {
	ID              string         `json:"id"`
	Profile         string         `json:"profile"`
	Geometry        orb.LineString `json:"geometry"`
	DistanceMeters  float64        `json:"distance_m"`
	DurationSeconds float64        `json:"duration_s"`
}

// SearchRing - круг поиска вокруг точки
type SearchRing struct {
	ID           string    `json:"id"`
	Center       orb.Point `json:"center"`
	RadiusMeters float64   `json:"radius_m"`
	MatchCount   int       `json:"match_count"`
}

// NewSearchRing создаёт круг поиска и считает точки внутри него
func NewSearchRing(id string, center orb.Point, radiusMeters float64, points []Point) SearchRing {
	ring := SearchRing{
		ID:           id,
		Center:       center,
		RadiusMeters: radiusMeters,
	}
	for _, p := range points {
		if ring.Contains(p.Coordinates) {
			ring.MatchCount++
		}
	}
	return ring
}

// Contains проверяет попадание точки в круг (по дуге большого круга)
func (r SearchRing) Contains(p orb.Point) bool {
	return utils.PointDistance(r.Center, p) <= r.RadiusMeters
}
