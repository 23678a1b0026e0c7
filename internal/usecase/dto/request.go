package dto

import "github.com/poi-cluster-service/internal/domain"

// ClustersRequest - запрос кластеров в bbox [w,s,e,n].
// west > east означает рамку через антимеридиан.
type ClustersRequest struct {
	West  float64 `json:"west" validate:"min=-180,max=180"`
	South float64 `json:"south" validate:"min=-90,max=90"`
	East  float64 `json:"east" validate:"min=-180,max=180"`
	North float64 `json:"north" validate:"min=-90,max=90"`
	Zoom  float64 `json:"zoom" validate:"min=0,max=24"`
}

// LeavesRequest - постраничная выдача листьев кластера
type LeavesRequest struct {
	ClusterID int64 `json:"cluster_id"`
	Limit     int   `json:"limit" validate:"min=0,max=1000"`
	Offset    int   `json:"offset" validate:"min=0"`
}

// HiddenNamesRequest - запрос множества скрытых имён для уровня зума
type HiddenNamesRequest struct {
	Zoom float64 `json:"zoom" validate:"min=0,max=24"`
}

// LayersRequest - состояние карты для композиции слоёв
type LayersRequest struct {
	Viewport    domain.ViewportState  `json:"viewport"`
	Routes      []domain.RouteSegment `json:"routes,omitempty" validate:"max=20"`
	SearchRings []domain.SearchRing   `json:"search_rings,omitempty" validate:"max=20"`
}

// FeatureRequest - объект под указателем.
// Для point нужен name, для cluster - cluster_id, для route и search_ring - сам объект.
type FeatureRequest struct {
	Kind       domain.FeatureKind   `json:"kind" validate:"required,oneof=point cluster route search_ring"`
	Name       string               `json:"name,omitempty"`
	ClusterID  int64                `json:"cluster_id,omitempty"`
	Route      *domain.RouteSegment `json:"route,omitempty"`
	SearchRing *domain.SearchRing   `json:"search_ring,omitempty"`
}

// SearchRingRequest - круг поиска вокруг точки
type SearchRingRequest struct {
	Lon          float64 `json:"lon" validate:"min=-180,max=180"`
	Lat          float64 `json:"lat" validate:"min=-90,max=90"`
	RadiusMeters float64 `json:"radius_m" validate:"required,min=1,max=100000"`
	Limit        int     `json:"limit" validate:"omitempty,min=1,max=500"`
}

// Coordinate - точка маршрута
type Coordinate struct {
	Lon float64 `json:"lon" validate:"min=-180,max=180"`
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
}

// RouteRequest - запрос маршрута через прокси маршрутизации
type RouteRequest struct {
	Waypoints []Coordinate `json:"waypoints" validate:"required,min=2,max=25,dive"`
}
