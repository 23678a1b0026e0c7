package clustering

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/poi-cluster-service/internal/domain"
)

// Query возвращает кластеры и одиночные точки в bbox на уровне floor(zoom).
// Кластеры идут первыми по возрастанию ID, затем точки в порядке входного набора.
func (idx *Index) Query(bbox orb.Bound, zoom float64) []domain.ClusterFeature {
	z := idx.limitZoom(zoom)

	west, east := bbox.Min.Lon(), bbox.Max.Lon()
	south, north := bbox.Min.Lat(), bbox.Max.Lat()

	var nodes []*node
	switch {
	case east-west >= 360:
		nodes = idx.rangeNodes(z, -180, south, 180, north)
	default:
		west = normalizeLng(west)
		east = normalizeLng(east)
		if west > east {
			// bbox пересекает антимеридиан
			nodes = idx.rangeNodes(z, west, south, 180, north)
			nodes = append(nodes, idx.rangeNodes(z, -180, south, east, north)...)
			nodes = dedupe(nodes)
		} else {
			nodes = idx.rangeNodes(z, west, south, east, north)
		}
	}

	sortNodes(nodes)
	return idx.features(nodes)
}

// All возвращает все элементы уровня floor(zoom)
func (idx *Index) All(zoom float64) []domain.ClusterFeature {
	level := idx.levels[idx.limitZoom(zoom)]
	nodes := append([]*node(nil), level...)
	sortNodes(nodes)
	return idx.features(nodes)
}

// Expand возвращает до limit исходных точек кластера (limit <= 0 - все).
// Устаревший или неизвестный ID даёт пустой результат.
func (idx *Index) Expand(clusterID int64, limit int) []domain.Point {
	return idx.Leaves(clusterID, limit, 0)
}

// Leaves - постраничный обход листьев кластера в детерминированном порядке
func (idx *Index) Leaves(clusterID int64, limit, offset int) []domain.Point {
	n, ok := idx.lookup(clusterID)
	if !ok {
		idx.logStale("leaves", clusterID)
		return []domain.Point{}
	}
	if limit <= 0 {
		limit = n.count
	}
	if offset < 0 {
		offset = 0
	}

	leaves := make([]domain.Point, 0, minInt(limit, n.count))
	skipped := 0
	idx.appendLeaves(n, &leaves, limit, offset, &skipped)
	return leaves
}

func (idx *Index) appendLeaves(n *node, out *[]domain.Point, limit, offset int, skipped *int) {
	for _, child := range n.children {
		if len(*out) >= limit {
			return
		}
		if child.isCluster() {
			if *skipped+child.count <= offset {
				// весь подкластер до начала страницы
				*skipped += child.count
				continue
			}
			idx.appendLeaves(child, out, limit, offset, skipped)
			continue
		}
		if *skipped < offset {
			*skipped++
			continue
		}
		*out = append(*out, idx.points[child.point])
	}
}

// Children возвращает непосредственных потомков кластера на следующем уровне зума
func (idx *Index) Children(clusterID int64) []domain.ClusterFeature {
	n, ok := idx.lookup(clusterID)
	if !ok {
		idx.logStale("children", clusterID)
		return []domain.ClusterFeature{}
	}
	return idx.features(n.children)
}

// Feature возвращает кластер по ID текущего поколения
func (idx *Index) Feature(clusterID int64) (domain.ClusterFeature, bool) {
	n, ok := idx.lookup(clusterID)
	if !ok {
		idx.logStale("feature", clusterID)
		return domain.ClusterFeature{}, false
	}
	return idx.features([]*node{n})[0], true
}

// ExpansionZoom возвращает зум, на котором кластер распадается на части
func (idx *Index) ExpansionZoom(clusterID int64) (int, bool) {
	n, ok := idx.lookup(clusterID)
	if !ok {
		idx.logStale("expansion zoom", clusterID)
		return 0, false
	}
	return idx.expansionZoom(n), true
}

func (idx *Index) expansionZoom(n *node) int {
	z := int(n.id&zoomMask) + 1
	for len(n.children) == 1 && n.children[0].isCluster() && z <= idx.opts.MaxZoom {
		n = n.children[0]
		z++
	}
	return z
}

func (idx *Index) logStale(op string, clusterID int64) {
	idx.logger.Warn("Unknown or stale cluster ID",
		zap.String("operation", op),
		zap.Int64("cluster_id", clusterID),
		zap.Uint32("generation", idx.generation),
	)
}

func (idx *Index) rangeNodes(z int, west, south, east, north float64) []*node {
	tree := idx.trees[z]
	if tree == nil {
		return nil
	}
	b := orb.Bound{
		Min: orb.Point{lngX(west), latY(north)},
		Max: orb.Point{lngX(east), latY(south)},
	}
	found := tree.InBound(nil, b)
	nodes := make([]*node, len(found))
	for i, p := range found {
		nodes[i] = p.(*node)
	}
	return nodes
}

func (idx *Index) features(nodes []*node) []domain.ClusterFeature {
	out := make([]domain.ClusterFeature, 0, len(nodes))
	for _, n := range nodes {
		if n.isCluster() {
			out = append(out, domain.ClusterFeature{
				IsCluster:     true,
				ClusterID:     n.id,
				PointCount:    n.count,
				Coordinates:   unproject(n.p),
				ExpansionZoom: idx.expansionZoom(n),
			})
			continue
		}
		p := idx.points[n.point]
		out = append(out, domain.ClusterFeature{
			PointCount:  1,
			Coordinates: p.Coordinates,
			Point:       &p,
		})
	}
	return out
}

// sortNodes: кластеры по ID, затем точки по порядку во входном наборе
func sortNodes(nodes []*node) {
	sort.Slice(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.isCluster() != b.isCluster() {
			return a.isCluster()
		}
		if a.isCluster() {
			return a.id < b.id
		}
		return a.point < b.point
	})
}

func dedupe(nodes []*node) []*node {
	seen := make(map[*node]struct{}, len(nodes))
	out := nodes[:0]
	for _, n := range nodes {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func normalizeLng(lng float64) float64 {
	if lng >= -180 && lng <= 180 {
		return lng
	}
	return math.Mod(math.Mod(lng+180, 360)+360, 360) - 180
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
