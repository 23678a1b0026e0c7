package domain

import (
	"sort"

	"github.com/paulmach/orb"
)

// ClusterFeature - узел агрегации, возвращаемый пространственным индексом.
// ClusterID действителен только для поколения индекса, который его создал.
type ClusterFeature struct {
	IsCluster   bool      `json:"cluster"`
	ClusterID   int64     `json:"cluster_id,omitempty"`
	PointCount  int       `json:"point_count"`
	Coordinates orb.Point `json:"coordinates"`

	// Point заполнен для одиночных точек
	Point *Point `json:"point,omitempty"`

	// ExpansionZoom - зум, на котором кластер распадается (0 для точек)
	ExpansionZoom int `json:"expansion_zoom,omitempty"`
}

// RendersAsPoint - кластер из одной точки рисуется как обычная точка
func (f ClusterFeature) RendersAsPoint() bool {
	return !f.IsCluster || f.PointCount <= 1
}

// HiddenSet - множество имён точек, поглощённых кластерами на текущем зуме
type HiddenSet map[string]struct{}

// Has проверяет, скрыта ли точка
func (s HiddenSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names возвращает отсортированный список имён
func (s HiddenSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
