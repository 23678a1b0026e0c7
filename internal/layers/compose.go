package layers

import (
	"github.com/paulmach/orb"

	"github.com/poi-cluster-service/internal/clustering"
	"github.com/poi-cluster-service/internal/domain"
)

// Input - всё, от чего зависит набор слоёв
type Input struct {
	Points   []domain.Point
	Viewport domain.ViewportState

	// Index может быть nil: тогда слоя кластеров нет
	Index  *clustering.Index
	Hidden domain.HiddenSet

	Routes []domain.RouteSegment
	Rings  []domain.SearchRing
}

// Compose строит описания слоёв для текущего состояния карты.
// Чистая функция: не меняет вход и не имеет побочных эффектов.
func Compose(in Input, cfg Config) []RenderableLayer {
	zoom := in.Viewport.Zoom
	bbox := in.Viewport.Bounds()
	// скрытые точки нарисованы кластером, поэтому фильтр действует только вместе со слоем кластеров
	clustered := zoom < cfg.ClusterMaxZoom && in.Index != nil
	visible := visiblePoints(in, bbox, clustered)

	var out []RenderableLayer
	switch {
	case zoom < cfg.ClusterMaxZoom:
		if clustered {
			out = append(out, clusterLayer(in.Index.Query(bbox, zoom), cfg))
		}
		out = append(out, iconLayer(visible, true))
	case zoom < cfg.DetailMinZoom:
		if zoom >= cfg.IconMinZoom {
			out = append(out, iconLayer(visible, true))
		}
		if zoom >= cfg.LabelMinZoom {
			out = append(out, labelLayer(visible))
		}
	default:
		// иконки мельче минимальной зоны попадания, целью выбора служит прокси
		out = append(out, iconLayer(visible, false), labelLayer(visible), proxyLayer(visible, cfg))
	}

	if len(in.Routes) > 0 {
		out = append(out, routeLayer(in.Routes))
	}
	if len(in.Rings) > 0 {
		out = append(out, ringLayer(in.Rings))
	}
	return out
}

// visiblePoints - точки в рамке; при skipHidden без точек, поглощённых кластерами.
// С индексом выборка идёт через дерево уровня одиночных точек.
func visiblePoints(in Input, bbox orb.Bound, skipHidden bool) []domain.Point {
	var candidates []domain.Point
	if in.Index != nil {
		for _, f := range in.Index.Query(bbox, float64(in.Index.Options().MaxZoom+1)) {
			if f.Point != nil {
				candidates = append(candidates, *f.Point)
			}
		}
	} else {
		for _, p := range in.Points {
			if inBound(bbox, p.Coordinates) {
				candidates = append(candidates, p)
			}
		}
	}

	if !skipHidden {
		return candidates
	}
	out := candidates[:0]
	for _, p := range candidates {
		if !in.Hidden.Has(p.Name) {
			out = append(out, p)
		}
	}
	return out
}

// inBound учитывает рамки через антимеридиан (west > east)
func inBound(b orb.Bound, p orb.Point) bool {
	if p.Lat() < b.Min.Lat() || p.Lat() > b.Max.Lat() {
		return false
	}
	if b.Min.Lon() <= b.Max.Lon() {
		return p.Lon() >= b.Min.Lon() && p.Lon() <= b.Max.Lon()
	}
	return p.Lon() >= b.Min.Lon() || p.Lon() <= b.Max.Lon()
}

func clusterLayer(features []domain.ClusterFeature, cfg Config) RenderableLayer {
	items := make([]Item, 0, len(features))
	for _, f := range features {
		if f.RendersAsPoint() {
			continue
		}
		items = append(items, Item{
			FeatureID:     f.FeatureID(),
			Position:      f.Coordinates,
			Icon:          ClusterIcon(f.PointCount),
			Size:          ClusterScale(f.PointCount, cfg.MaxClusterScale),
			Count:         f.PointCount,
			ExpansionZoom: f.ExpansionZoom,
		})
	}
	return RenderableLayer{ID: LayerClusters, Kind: KindClusterIcon, Visible: true, Pickable: true, Items: items}
}

func iconLayer(points []domain.Point, pickable bool) RenderableLayer {
	items := make([]Item, len(points))
	for i, p := range points {
		items[i] = Item{
			FeatureID: pointFeatureID(p),
			Position:  p.Coordinates,
			Icon:      IconFor(p.Category),
			Size:      1,
		}
	}
	return RenderableLayer{ID: LayerPoints, Kind: KindPointIcon, Visible: true, Pickable: pickable, Items: items}
}

func labelLayer(points []domain.Point) RenderableLayer {
	items := make([]Item, len(points))
	for i, p := range points {
		items[i] = Item{FeatureID: pointFeatureID(p), Position: p.Coordinates, Text: p.Name}
	}
	return RenderableLayer{ID: LayerLabels, Kind: KindLabel, Visible: true, Items: items}
}

func proxyLayer(points []domain.Point, cfg Config) RenderableLayer {
	items := make([]Item, len(points))
	for i, p := range points {
		items[i] = Item{FeatureID: pointFeatureID(p), Position: p.Coordinates, Radius: cfg.ProxyRadiusPixels}
	}
	return RenderableLayer{ID: LayerProxy, Kind: KindPickProxy, Visible: false, Pickable: true, Items: items}
}

func routeLayer(routes []domain.RouteSegment) RenderableLayer {
	items := make([]Item, len(routes))
	for i, r := range routes {
		items[i] = Item{FeatureID: r.FeatureID(), Path: r.Geometry}
		if len(r.Geometry) > 0 {
			items[i].Position = r.Geometry[0]
		}
	}
	return RenderableLayer{ID: LayerRoutes, Kind: KindRoute, Visible: true, Pickable: true, Items: items}
}

func ringLayer(rings []domain.SearchRing) RenderableLayer {
	items := make([]Item, len(rings))
	for i, r := range rings {
		items[i] = Item{FeatureID: r.FeatureID(), Position: r.Center, Radius: r.RadiusMeters, Count: r.MatchCount}
	}
	return RenderableLayer{ID: LayerSearchRings, Kind: KindSearchRing, Visible: true, Pickable: true, Items: items}
}

func pointFeatureID(p domain.Point) string {
	return domain.PointFeature{Point: p}.FeatureID()
}
