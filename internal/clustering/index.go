package clustering

import (
	"math"
	"sort"
	"sync/atomic"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"
	"go.uber.org/zap"

	"github.com/poi-cluster-service/internal/domain"
)

const (
	zoomBits = 5
	zoomMask = 1<<zoomBits - 1

	// notClustered - точка ещё не поглощена ни на одном уровне
	notClustered = math.MaxInt32

	generationMask = 0x7fffffff
)

// generations выдаёт уникальный номер поколения каждому индексу процесса
var generations atomic.Uint32

// node - элемент уровня: исходная точка или кластер.
// Один и тот же узел может переходить на несколько уровней без изменений.
type node struct {
	p     orb.Point // единичная меркаторская проекция
	zoom  int       // зум, на котором узел поглощён или обработан
	count int
	seq   int // порядок для детерминированной сортировки
	point int // индекс исходной точки, -1 для кластера
	id    int64

	children []*node
}

// Point реализует orb.Pointer для quadtree
func (n *node) Point() orb.Point {
	return n.p
}

func (n *node) isCluster() bool {
	return n.point < 0
}

// Index - неизменяемый иерархический индекс кластеров по уровням зума.
// Строится заново при смене набора точек или параметров.
type Index struct {
	opts       Options
	generation uint32
	points     []domain.Point

	// levels[z] и trees[z] для z в [MinZoom, MaxZoom+1]; MaxZoom+1 - исходные точки
	levels [][]*node
	trees  []*quadtree.Quadtree

	logger *zap.Logger
}

// Build строит индекс по снимку точек.
// Координаты должны быть провалидированы заранее (domain.FilterValid).
func Build(points []domain.Point, opts Options, logger *zap.Logger) (*Index, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	idx := &Index{
		opts:       opts,
		generation: nextGeneration(),
		points:     append([]domain.Point(nil), points...),
		levels:     make([][]*node, opts.MaxZoom+2),
		trees:      make([]*quadtree.Quadtree, opts.MaxZoom+2),
		logger:     logger,
	}

	leaves := make([]*node, len(idx.points))
	for i, p := range idx.points {
		leaves[i] = &node{
			p:     project(p.Coordinates),
			zoom:  notClustered,
			count: 1,
			seq:   i,
			point: i,
		}
	}

	seq := len(leaves)
	current := leaves
	for z := opts.MaxZoom; z >= opts.MinZoom; z-- {
		if err := idx.setLevel(z+1, current); err != nil {
			return nil, err
		}
		current = idx.clusterize(current, z, &seq)
	}
	if err := idx.setLevel(opts.MinZoom, current); err != nil {
		return nil, err
	}

	logger.Debug("Cluster index built",
		zap.Uint32("generation", idx.generation),
		zap.Int("points", len(idx.points)),
		zap.Int("top_level_features", len(current)),
	)

	return idx, nil
}

func nextGeneration() uint32 {
	for {
		if g := generations.Add(1) & generationMask; g != 0 {
			return g
		}
	}
}

func (idx *Index) setLevel(z int, nodes []*node) error {
	tree := quadtree.New(unitBound)
	for _, n := range nodes {
		if err := tree.Add(n); err != nil {
			return err
		}
	}
	idx.levels[z] = nodes
	idx.trees[z] = tree
	return nil
}

// clusterize greedily groups the nodes of level z+1 into level z.
func (idx *Index) clusterize(nodes []*node, z int, seq *int) []*node {
	r := idx.opts.radiusAt(z)
	tree := idx.trees[z+1]
	next := make([]*node, 0, len(nodes))

	var buf []orb.Pointer
	for _, p := range nodes {
		if p.zoom <= z {
			continue
		}
		p.zoom = z

		buf = tree.InBoundMatching(buf[:0], orb.Bound{
			Min: orb.Point{p.p[0] - r, p.p[1] - r},
			Max: orb.Point{p.p[0] + r, p.p[1] + r},
		}, func(o orb.Pointer) bool {
			b := o.(*node)
			return b.zoom > z && planarDist2(p.p, b.p) <= r*r
		})

		neighbours := make([]*node, 0, len(buf))
		total := p.count
		for _, o := range buf {
			b := o.(*node)
			neighbours = append(neighbours, b)
			total += b.count
		}
		sort.Slice(neighbours, func(i, j int) bool { return neighbours[i].seq < neighbours[j].seq })

		if len(neighbours) == 0 || total < idx.opts.MinPoints {
			// группа слишком мала: узлы переходят на уровень выше как есть
			next = append(next, p)
			for _, b := range neighbours {
				b.zoom = z
				next = append(next, b)
			}
			continue
		}

		wx := p.p[0] * float64(p.count)
		wy := p.p[1] * float64(p.count)
		children := make([]*node, 0, len(neighbours)+1)
		children = append(children, p)
		for _, b := range neighbours {
			b.zoom = z
			wx += b.p[0] * float64(b.count)
			wy += b.p[1] * float64(b.count)
			children = append(children, b)
		}

		cluster := &node{
			p:        orb.Point{wx / float64(total), wy / float64(total)},
			zoom:     notClustered,
			count:    total,
			seq:      *seq,
			point:    -1,
			id:       idx.encodeID(len(next), z),
			children: children,
		}
		*seq++
		next = append(next, cluster)
	}

	return next
}

func planarDist2(a, b orb.Point) float64 {
	dx, dy := a[0]-b[0], a[1]-b[1]
	return dx*dx + dy*dy
}

// encodeID: generation<<32 | position<<5 | zoom
func (idx *Index) encodeID(position, zoom int) int64 {
	return int64(idx.generation)<<32 | int64(position)<<zoomBits | int64(zoom)
}

// lookup находит кластер по идентификатору текущего поколения
func (idx *Index) lookup(id int64) (*node, bool) {
	if id <= 0 || uint32(id>>32) != idx.generation {
		return nil, false
	}
	low := id & 0xffffffff
	z := int(low & zoomMask)
	pos := int(low >> zoomBits)
	if z < idx.opts.MinZoom || z > idx.opts.MaxZoom {
		return nil, false
	}
	level := idx.levels[z]
	if pos >= len(level) {
		return nil, false
	}
	n := level[pos]
	if !n.isCluster() || n.id != id {
		return nil, false
	}
	return n, true
}

// Generation возвращает номер поколения индекса
func (idx *Index) Generation() uint32 {
	return idx.generation
}

// Options возвращает нормализованные параметры
func (idx *Index) Options() Options {
	return idx.opts
}

// Len - количество точек в индексе
func (idx *Index) Len() int {
	return len(idx.points)
}

// Points возвращает копию снимка точек
func (idx *Index) Points() []domain.Point {
	return append([]domain.Point(nil), idx.points...)
}

// Contains проверяет, принадлежит ли идентификатор кластера этому поколению
func (idx *Index) Contains(clusterID int64) bool {
	_, ok := idx.lookup(clusterID)
	return ok
}

func (idx *Index) limitZoom(zoom float64) int {
	if math.IsNaN(zoom) {
		return idx.opts.MinZoom
	}
	z := math.Floor(zoom)
	if z < float64(idx.opts.MinZoom) {
		return idx.opts.MinZoom
	}
	if z > float64(idx.opts.MaxZoom+1) {
		return idx.opts.MaxZoom + 1
	}
	return int(z)
}
