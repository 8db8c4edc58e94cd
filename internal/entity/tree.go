package entity

import (
	"math"

	"github.com/dart-bird/opensurge/internal/geom"
)

// Spatial partition for sleeping entities: a quadtree over world space.
// Each node owns an unawake container; entities live in the deepest node
// whose cell contains their position. Children are allocated lazily, so an
// empty region of the world costs nothing.
const (
	maxTreeDepth   = 5
	minWorldWidth  = 8192
	minWorldHeight = 4096
)

type treeNode struct {
	rect     geom.Rect
	depth    int
	children *[4]*treeNode // nil until first descent
	bucket   *Container
}

// Tree buckets unawake entities by world position. It supports bubble-down
// insertion, bubble-up relocation after movement, world-size growth with a
// full rebuild, and an ROI query over its containers.
type Tree struct {
	pool      *Pool
	root      *treeNode
	world     geom.Rect
	extentX   float64 // rightmost entity position seen
	extentY   float64 // bottommost entity position seen
	residence map[Handle]*treeNode
	owner     map[*Container]*treeNode
}

func NewTree(pool *Pool) *Tree {
	t := &Tree{
		pool:      pool,
		world:     geom.Rect{Left: 0, Top: 0, Right: minWorldWidth - 1, Bottom: minWorldHeight - 1},
		residence: make(map[Handle]*treeNode, 256),
		owner:     make(map[*Container]*treeNode, 64),
	}
	t.root = t.newNode(t.world, 0)
	return t
}

func (t *Tree) newNode(rect geom.Rect, depth int) *treeNode {
	n := &treeNode{
		rect:   rect,
		depth:  depth,
		bucket: NewContainer(KindUnawake, t.pool),
	}
	t.owner[n.bucket] = n
	return n
}

// World returns the current world rectangle.
func (t *Tree) World() geom.Rect { return t.world }

// BubbleDown inserts an entity into the deepest cell containing its
// position. Positions outside the world rectangle stay in the root bucket
// until a world-size refresh absorbs them.
func (t *Tree) BubbleDown(h Handle) {
	e := t.pool.Resolve(h)
	if e == nil {
		return
	}
	pos := e.Position()
	if pos.X > t.extentX {
		t.extentX = pos.X
	}
	if pos.Y > t.extentY {
		t.extentY = pos.Y
	}
	n := t.descend(pos)
	n.bucket.Store(h)
	t.residence[h] = n
}

// descend finds (allocating as needed) the deepest node containing pos.
func (t *Tree) descend(pos geom.Vector2) *treeNode {
	n := t.root
	if !n.rect.ContainsPoint(pos) {
		return n
	}
	for n.depth < maxTreeDepth {
		if n.children == nil {
			quads := n.rect.Quadrants()
			n.children = &[4]*treeNode{}
			for i, q := range quads {
				n.children[i] = t.newNode(q, n.depth+1)
			}
		}
		next := n
		for _, child := range n.children {
			if child.rect.ContainsPoint(pos) {
				next = child
				break
			}
		}
		if next == n {
			break // degenerate cell, cannot subdivide further
		}
		n = next
	}
	return n
}

// Remove takes an entity out of its bucket, wherever it is.
func (t *Tree) Remove(h Handle) {
	n := t.residence[h]
	if n == nil {
		return
	}
	n.bucket.Remove(h)
	delete(t.residence, h)
}

// Relocate re-buckets one entity after its position changed.
func (t *Tree) Relocate(h Handle) {
	t.Remove(h)
	t.BubbleDown(h)
}

// Bubble re-evaluates residence for every entity in one container:
// entities whose position no longer falls in the container's cell are
// pulled out and re-inserted from the root. Dead handles are dropped.
func (t *Tree) Bubble(c *Container) {
	n := t.owner[c]
	if n == nil {
		return
	}
	var moved []Handle
	kept := c.handles[:0]
	for _, h := range c.handles {
		e := t.pool.Resolve(h)
		if e == nil {
			delete(t.residence, h)
			continue
		}
		if t.descend(e.Position()) == n {
			kept = append(kept, h)
			continue
		}
		delete(t.residence, h)
		moved = append(moved, h)
	}
	c.handles = kept
	for _, h := range moved {
		t.BubbleDown(h)
	}
}

// BubbleAll forces residence re-evaluation for every container.
func (t *Tree) BubbleAll() {
	buckets := make([]*Container, 0, len(t.owner))
	t.EachContainer(func(c *Container) { buckets = append(buckets, c) })
	for _, c := range buckets {
		t.Bubble(c)
	}
}

// UpdateWorldSize recomputes the world rectangle from the extent of the
// entities seen so far. If it grew, the whole tree is rebuilt: cell
// boundaries derive from the world rectangle, so every entity must be
// re-bucketed. Returns whether a rebuild happened.
func (t *Tree) UpdateWorldSize() bool {
	width := int(math.Ceil(t.extentX)) + 1
	if width < minWorldWidth {
		width = minWorldWidth
	}
	height := int(math.Ceil(t.extentY)) + 1
	if height < minWorldHeight {
		height = minWorldHeight
	}
	world := geom.Rect{Left: 0, Top: 0, Right: width - 1, Bottom: height - 1}
	if world == t.world {
		return false
	}

	handles := make([]Handle, 0, len(t.residence))
	for h := range t.residence {
		handles = append(handles, h)
	}
	t.world = world
	t.residence = make(map[Handle]*treeNode, len(handles))
	t.owner = make(map[*Container]*treeNode, 64)
	t.root = t.newNode(world, 0)
	for _, h := range handles {
		t.BubbleDown(h)
	}
	return true
}

// Query visits the containers of every allocated node intersecting the
// ROI rectangle.
func (t *Tree) Query(roi geom.Rect, visit func(*Container)) {
	t.query(t.root, roi, visit)
}

func (t *Tree) query(n *treeNode, roi geom.Rect, visit func(*Container)) {
	if !n.rect.Intersects(roi) {
		return
	}
	visit(n.bucket)
	if n.children == nil {
		return
	}
	for _, child := range n.children {
		t.query(child, roi, visit)
	}
}

// EachContainer visits every allocated container, ROI-independent. Used
// for broadcasts and pause propagation.
func (t *Tree) EachContainer(visit func(*Container)) {
	var walk func(n *treeNode)
	walk = func(n *treeNode) {
		visit(n.bucket)
		if n.children == nil {
			return
		}
		for _, child := range n.children {
			walk(child)
		}
	}
	walk(t.root)
}
