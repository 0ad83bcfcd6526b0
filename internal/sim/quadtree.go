package sim

import (
	"math"
	"sort"

	"github.com/mowerlab/gridcover/internal/geom"
)

// qtLeafCap is the obstacle count above which a leaf splits.
const qtLeafCap = 8

// QuadTree is a spatial index over obstacle bounding boxes. It stores
// obstacle indices into the map's list, never the obstacles themselves,
// so it can be rebuilt or discarded independently of the map.
//
// Guarantee: a query returns a superset of the obstacles whose geometry
// can intersect the query box. False positives are fine, false
// negatives are not.
type QuadTree struct {
	root    qtNode
	boxes   []geom.AABB
	minSide float64

	// Per-obstacle stamps deduplicate results within one query: an
	// obstacle straddling several leaves is reported once.
	stamps []uint64
	stamp  uint64
}

type qtNode struct {
	rect     geom.AABB
	items    []int
	children []*qtNode // nil for leaves, else exactly 4
}

// NewQuadTree indexes every obstacle of m. Nodes stop splitting when
// their side would drop below minSide, which callers set to
// max(minNodeFactor·r, cellSize) so subdivision stays productive.
func NewQuadTree(m *Map, minSide float64) *QuadTree {
	qt := &QuadTree{
		root:    qtNode{rect: m.Bounds()},
		boxes:   make([]geom.AABB, len(m.Obstacles)),
		minSide: minSide,
		stamps:  make([]uint64, len(m.Obstacles)),
	}
	for i := range m.Obstacles {
		qt.boxes[i] = m.Obstacles[i].AABB()
	}
	for i := range qt.boxes {
		qt.insert(&qt.root, i)
	}
	return qt
}

func (qt *QuadTree) insert(n *qtNode, idx int) {
	if !n.rect.Intersects(qt.boxes[idx]) {
		return
	}
	if n.children != nil {
		for _, c := range n.children {
			qt.insert(c, idx)
		}
		return
	}
	n.items = append(n.items, idx)
	if len(n.items) > qtLeafCap && qt.canSplit(n) {
		qt.split(n)
	}
}

// canSplit reports whether halving the node keeps sides above minSide.
func (qt *QuadTree) canSplit(n *qtNode) bool {
	side := math.Min(n.rect.Width(), n.rect.Height()) / 2
	return side >= qt.minSide
}

func (qt *QuadTree) split(n *qtNode) {
	midX := (n.rect.MinX + n.rect.MaxX) / 2
	midY := (n.rect.MinY + n.rect.MaxY) / 2
	n.children = []*qtNode{
		{rect: geom.AABB{MinX: n.rect.MinX, MinY: n.rect.MinY, MaxX: midX, MaxY: midY}},
		{rect: geom.AABB{MinX: midX, MinY: n.rect.MinY, MaxX: n.rect.MaxX, MaxY: midY}},
		{rect: geom.AABB{MinX: n.rect.MinX, MinY: midY, MaxX: midX, MaxY: n.rect.MaxY}},
		{rect: geom.AABB{MinX: midX, MinY: midY, MaxX: n.rect.MaxX, MaxY: n.rect.MaxY}},
	}
	items := n.items
	n.items = nil
	for _, idx := range items {
		for _, c := range n.children {
			qt.insert(c, idx)
		}
	}
}

// Query returns the indices of all obstacles whose AABB intersects box,
// each at most once, in ascending index order. Ascending order keeps
// collision tie-breaks stable (insertion order wins).
func (qt *QuadTree) Query(box geom.AABB, out []int) []int {
	qt.stamp++
	out = out[:0]
	out = qt.query(&qt.root, box, out)
	sort.Ints(out)
	return out
}

func (qt *QuadTree) query(n *qtNode, box geom.AABB, out []int) []int {
	if !n.rect.Intersects(box) {
		return out
	}
	if n.children != nil {
		for _, c := range n.children {
			out = qt.query(c, box, out)
		}
		return out
	}
	for _, idx := range n.items {
		if qt.stamps[idx] == qt.stamp {
			continue
		}
		if qt.boxes[idx].Intersects(box) {
			qt.stamps[idx] = qt.stamp
			out = append(out, idx)
		}
	}
	return out
}

// Walk visits every node top-down, parents before children. Used by the
// debug dump and the quad-tree image overlay.
func (qt *QuadTree) Walk(fn func(depth int, rect geom.AABB, items []int)) {
	walk(&qt.root, 0, fn)
}

func walk(n *qtNode, depth int, fn func(int, geom.AABB, []int)) {
	fn(depth, n.rect, n.items)
	for _, c := range n.children {
		walk(c, depth+1, fn)
	}
}

// NodeCount returns the total number of nodes in the tree.
func (qt *QuadTree) NodeCount() int {
	count := 0
	qt.Walk(func(int, geom.AABB, []int) { count++ })
	return count
}
