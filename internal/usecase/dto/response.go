package dto

import (
	"github.com/poi-cluster-service/internal/domain"
	"github.com/poi-cluster-service/internal/layers"
)

// ClustersResponse - кластеры и одиночные точки уровня зума
type ClustersResponse struct {
	Features   []domain.ClusterFeature `json:"features"`
	Zoom       int                     `json:"zoom"`
	Generation uint32                  `json:"generation"`
}

// LeavesResponse - исходные точки кластера
type LeavesResponse struct {
	ClusterID int64          `json:"cluster_id"`
	Points    []domain.Point `json:"points"`
	Limit     int            `json:"limit"`
	Offset    int            `json:"offset"`
}

// ChildrenResponse - потомки кластера на следующем уровне
type ChildrenResponse struct {
	ClusterID int64                   `json:"cluster_id"`
	Children  []domain.ClusterFeature `json:"children"`
}

// ExpansionZoomResponse - зум, на котором кластер распадается
type ExpansionZoomResponse struct {
	ClusterID     int64 `json:"cluster_id"`
	ExpansionZoom int   `json:"expansion_zoom"`
}

// HiddenNamesResponse - имена точек, поглощённых кластерами
type HiddenNamesResponse struct {
	Zoom       int      `json:"zoom"`
	Generation uint32   `json:"generation"`
	Names      []string `json:"names"`
	Cached     bool     `json:"cached"`
}

// LayersResponse - описания слоёв для клиента отрисовки
type LayersResponse struct {
	Layers     []layers.RenderableLayer `json:"layers"`
	BBox       [4]float64               `json:"bbox"`
	Zoom       float64                  `json:"zoom"`
	Generation uint32                   `json:"generation"`
}

// SearchRingResponse - круг поиска и найденные точки (ближайшие первыми)
type SearchRingResponse struct {
	Ring    domain.SearchRing `json:"ring"`
	Matches []domain.Point    `json:"matches"`
}
