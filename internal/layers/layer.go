package layers

import (
	"github.com/paulmach/orb"
)

// Kind - тип слоя для клиента отрисовки
type Kind string

const (
	KindClusterIcon Kind = "cluster-icon"
	KindPointIcon   Kind = "point-icon"
	KindLabel       Kind = "label"
	KindPickProxy   Kind = "pick-proxy"
	KindRoute       Kind = "route"
	KindSearchRing  Kind = "search-ring"
)

// Layer IDs
const (
	LayerClusters    = "clusters"
	LayerPoints      = "points"
	LayerLabels      = "labels"
	LayerProxy       = "points-proxy"
	LayerRoutes      = "routes"
	LayerSearchRings = "search-rings"
)

// RenderableLayer - инертное описание слоя. Отрисовка происходит на клиенте.
type RenderableLayer struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	Visible  bool   `json:"visible"`
	Pickable bool   `json:"pickable"`
	Items    []Item `json:"items"`
}

// Item - элемент слоя. Заполняются только поля, нужные его виду слоя.
type Item struct {
	FeatureID string         `json:"feature_id"`
	Position  orb.Point      `json:"position"`
	Icon      string         `json:"icon,omitempty"`
	Size      float64        `json:"size,omitempty"`
	Text      string         `json:"text,omitempty"`
	Count     int            `json:"count,omitempty"`
	Radius    float64        `json:"radius,omitempty"`
	Path      orb.LineString `json:"path,omitempty"`

	// ExpansionZoom для кластеров: куда приблизить по клику
	ExpansionZoom int `json:"expansion_zoom,omitempty"`
}
