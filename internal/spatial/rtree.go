// Package spatial implements the rectangle R-tree that backs sub-linear
// range queries over platform segments (spec.md §4.3). The container shape
// — Insert/Remove/Find/Clear over a node tree with leaf/branch variants and
// a union bounding rectangle per node — follows the teacher's QuadTree, but
// the split algorithm is Guttman's quadratic split: no repo in the
// retrieval pack implements an R-tree, so the split itself is built
// directly from the spec using stdlib math only.
package spatial

import (
	"math"
	"time"

	"platrace/internal/geom"
	"platrace/internal/rwlock"
)

// DefaultMaxEntries matches spec.md §4.3's default; the minimum entry count
// is derived from it by MinEntriesFor.
const (
	DefaultMaxEntries = 5
)

// MinEntriesFor returns max(2, floor(0.4*maxEntries)), spec.md §4.3's
// MinEntries formula.
func MinEntriesFor(maxEntries int) int {
	m := int(math.Floor(0.4 * float64(maxEntries)))
	if m < 2 {
		return 2
	}
	return m
}

// Item is one leaf entry: an integer key, the owning object reference, its
// bounding rectangle, and the geometry payload (a platform's top-face
// sub-segment) the rectangle was derived from.
type Item struct {
	Key      uint64
	Object   interface{}
	Rect     geom.Rect
	Geometry geom.Line
}

type node struct {
	bounds   geom.Rect
	leaf     bool
	items    []Item
	children []*node
}

// Rtree is a quadratic-split R-tree guarded by a reader-preferring timed
// lock (spec.md §5). A failed lock acquisition degrades to a benign empty
// result rather than blocking or erroring.
type Rtree struct {
	lock *rwlock.RWLock

	maxEntries int
	minEntries int

	root *node
	size int
}

// New returns an empty Rtree. maxEntries below 3 is clamped to 3, per
// spec.md §4.3 ("minimum 3"). minEntries below 1 is derived from maxEntries
// via MinEntriesFor instead of being taken literally — spec.md §6's
// RtreeMinEntries is "derived... when zero; set explicitly only to
// override." readerTimeout/writerTimeout are the configured lock timeouts
// (spec.md §6); a non-positive value falls back to rwlock's own package
// defaults, same as rwlock.New itself.
func New(maxEntries, minEntries int, readerTimeout, writerTimeout time.Duration) *Rtree {
	if maxEntries < 3 {
		maxEntries = 3
	}
	if minEntries < 1 {
		minEntries = MinEntriesFor(maxEntries)
	}
	return &Rtree{
		lock:       rwlock.New("rtree", readerTimeout, writerTimeout),
		maxEntries: maxEntries,
		minEntries: minEntries,
	}
}

// Stats reports the reader/writer lock timeout counters for diagnostics.
func (t *Rtree) Stats() (readTimeouts, writeTimeouts uint64) {
	return t.lock.Stats()
}

// Len returns the number of items currently stored.
func (t *Rtree) Len() int {
	if !t.lock.RLock() {
		return 0
	}
	defer t.lock.RUnlock()
	return t.size
}

// Clear resets the tree to a fresh empty root.
func (t *Rtree) Clear() {
	if !t.lock.Lock() {
		return
	}
	defer t.lock.Unlock()
	t.root = nil
	t.size = 0
}

// Insert adds an item under key/rect/object/geometry, splitting nodes as
// needed to keep entry counts within [minEntries, maxEntries]. On a writer
// lock timeout, Insert silently does nothing — the caller's subsequent
// Find calls simply won't see this item until a later successful Insert.
func (t *Rtree) Insert(key uint64, rect geom.Rect, object interface{}, geometry geom.Line) {
	if !t.lock.Lock() {
		return
	}
	defer t.lock.Unlock()

	item := Item{Key: key, Rect: rect, Object: object, Geometry: geometry}
	if t.root == nil {
		t.root = &node{leaf: true, bounds: rect}
	}
	if sibling := t.insertInto(t.root, item); sibling != nil {
		newRoot := &node{
			leaf:     false,
			children: []*node{t.root, sibling},
		}
		newRoot.bounds = t.root.bounds.Merge(sibling.bounds)
		t.root = newRoot
	}
	t.size++
}

// insertInto inserts item into the subtree rooted at n, returning a
// sibling node when n had to split. The caller is responsible for
// attaching the sibling (growing the tree up at the root, or wide
// everywhere else).
func (t *Rtree) insertInto(n *node, item Item) *node {
	if n.leaf {
		n.items = append(n.items, item)
		n.bounds = n.bounds.Merge(item.Rect)
		if len(n.items) > t.maxEntries {
			return t.splitLeaf(n)
		}
		return nil
	}

	best := t.chooseChild(n, item.Rect)
	sibling := t.insertInto(n.children[best], item)
	n.bounds = unionOfChildren(n.children)

	if sibling != nil {
		n.children = append(n.children, sibling)
		n.bounds = n.bounds.Merge(sibling.bounds)
		if len(n.children) > t.maxEntries {
			return t.splitBranch(n)
		}
	}
	return nil
}

// chooseChild picks the child whose MergeEnlargement(rect) is minimal,
// breaking ties by smallest resulting area, per spec.md §4.3.
func (t *Rtree) chooseChild(n *node, rect geom.Rect) int {
	best := 0
	bestEnl := n.children[0].bounds.MergeEnlargement(rect)
	bestArea := n.children[0].bounds.Area()
	for i := 1; i < len(n.children); i++ {
		enl := n.children[i].bounds.MergeEnlargement(rect)
		area := n.children[i].bounds.Area()
		if enl < bestEnl || (enl == bestEnl && area < bestArea) {
			best, bestEnl, bestArea = i, enl, area
		}
	}
	return best
}

func unionOfChildren(children []*node) geom.Rect {
	bounds := children[0].bounds
	for _, c := range children[1:] {
		bounds = bounds.Merge(c.bounds)
	}
	return bounds
}

func unionOfItems(items []Item) geom.Rect {
	bounds := items[0].Rect
	for _, it := range items[1:] {
		bounds = bounds.Merge(it.Rect)
	}
	return bounds
}

func (t *Rtree) splitLeaf(n *node) *node {
	rects := make([]geom.Rect, len(n.items))
	for i, it := range n.items {
		rects[i] = it.Rect
	}
	groupA, groupB := quadraticSplit(rects, t.minEntries)

	itemsA := make([]Item, 0, len(groupA))
	for _, i := range groupA {
		itemsA = append(itemsA, n.items[i])
	}
	itemsB := make([]Item, 0, len(groupB))
	for _, i := range groupB {
		itemsB = append(itemsB, n.items[i])
	}

	n.items = itemsA
	n.bounds = unionOfItems(itemsA)
	return &node{leaf: true, items: itemsB, bounds: unionOfItems(itemsB)}
}

func (t *Rtree) splitBranch(n *node) *node {
	rects := make([]geom.Rect, len(n.children))
	for i, c := range n.children {
		rects[i] = c.bounds
	}
	groupA, groupB := quadraticSplit(rects, t.minEntries)

	childrenA := make([]*node, 0, len(groupA))
	for _, i := range groupA {
		childrenA = append(childrenA, n.children[i])
	}
	childrenB := make([]*node, 0, len(groupB))
	for _, i := range groupB {
		childrenB = append(childrenB, n.children[i])
	}

	n.children = childrenA
	n.bounds = unionOfChildren(childrenA)
	return &node{leaf: false, children: childrenB, bounds: unionOfChildren(childrenB)}
}

// quadraticSplit implements Guttman's quadratic-cost split: pick the seed
// pair with maximum normalized separation on either axis, then greedily
// assign the remaining entries to whichever seed's group they least
// prefer leaving for the other (spec.md §4.3).
func quadraticSplit(rects []geom.Rect, minEntries int) (groupA, groupB []int) {
	seedA, seedB := pickSeeds(rects)

	boundsA, boundsB := rects[seedA], rects[seedB]
	groupA = []int{seedA}
	groupB = []int{seedB}

	remaining := make([]int, 0, len(rects)-2)
	for i := range rects {
		if i != seedA && i != seedB {
			remaining = append(remaining, i)
		}
	}

	for len(remaining) > 0 {
		if len(groupA)+len(remaining) <= minEntries {
			groupA = append(groupA, remaining...)
			break
		}
		if len(groupB)+len(remaining) <= minEntries {
			groupB = append(groupB, remaining...)
			break
		}

		pickPos, toA, enlA, enlB := 0, true, math.Inf(1), math.Inf(1)
		bestDiff := -1.0
		for pos, idx := range remaining {
			a := boundsA.MergeEnlargement(rects[idx])
			b := boundsB.MergeEnlargement(rects[idx])
			diff := math.Abs(a - b)
			if diff > bestDiff {
				bestDiff = diff
				pickPos = pos
				enlA, enlB = a, b
			}
		}

		switch {
		case enlA < enlB:
			toA = true
		case enlB < enlA:
			toA = false
		default:
			areaA, areaB := boundsA.Area(), boundsB.Area()
			switch {
			case areaA < areaB:
				toA = true
			case areaB < areaA:
				toA = false
			default:
				toA = len(groupA) <= len(groupB)
			}
		}

		idx := remaining[pickPos]
		remaining = append(remaining[:pickPos], remaining[pickPos+1:]...)
		if toA {
			groupA = append(groupA, idx)
			boundsA = boundsA.Merge(rects[idx])
		} else {
			groupB = append(groupB, idx)
			boundsB = boundsB.Merge(rects[idx])
		}
	}

	return groupA, groupB
}

// pickSeeds finds, across both axes, the entry with the highest low
// coordinate and the entry with the lowest high coordinate, and returns
// whichever axis/pair maximizes the normalized separation
// (highestLow-lowestHigh)/(axisMax-axisMin), treating 0/0 as 0.
func pickSeeds(rects []geom.Rect) (int, int) {
	bestSep := math.Inf(-1)
	bestA, bestB := 0, 1

	for _, axis := range []geom.Axis{geom.Horizontal, geom.Vertical} {
		axisMin := rects[0].AxisMinimum(axis)
		axisMax := rects[0].AxisMaximum(axis)
		highestLow, highestLowIdx := rects[0].AxisMinimum(axis), 0
		lowestHigh, lowestHighIdx := rects[0].AxisMaximum(axis), 0

		for i, r := range rects {
			lo, hi := r.AxisMinimum(axis), r.AxisMaximum(axis)
			if lo < axisMin {
				axisMin = lo
			}
			if hi > axisMax {
				axisMax = hi
			}
			if lo > highestLow {
				highestLow, highestLowIdx = lo, i
			}
			if hi < lowestHigh {
				lowestHigh, lowestHighIdx = hi, i
			}
		}

		width := axisMax - axisMin
		var sep float64
		if width == 0 {
			sep = 0
		} else {
			sep = (highestLow - lowestHigh) / width
		}
		if sep > bestSep && highestLowIdx != lowestHighIdx {
			bestSep, bestA, bestB = sep, highestLowIdx, lowestHighIdx
		}
	}

	if bestA == bestB {
		bestB = (bestA + 1) % len(rects)
	}
	return bestA, bestB
}

// Find returns every inserted item whose rectangle intersects query,
// descending only into children whose bounding rectangle also intersects.
// A reader-lock timeout degrades to an empty result.
func (t *Rtree) Find(query geom.Rect) []Item {
	if !t.lock.RLock() {
		return nil
	}
	defer t.lock.RUnlock()

	if t.root == nil {
		return nil
	}
	var results []Item
	findInto(t.root, query, &results)
	return results
}

func findInto(n *node, query geom.Rect, results *[]Item) {
	if !n.bounds.IntersectsWith(query) {
		return
	}
	if n.leaf {
		for _, it := range n.items {
			if it.Rect.IntersectsWith(query) {
				*results = append(*results, it)
			}
		}
		return
	}
	for _, c := range n.children {
		findInto(c, query, results)
	}
}

// Remove deletes the item with the given key, if present. It does not
// redistribute an underflowing node's siblings (Refresh always rebuilds
// the tree wholesale per tick, so Remove's only callers are tests and
// ad-hoc single-item corrections).
func (t *Rtree) Remove(key uint64) bool {
	if !t.lock.Lock() {
		return false
	}
	defer t.lock.Unlock()

	if t.root == nil {
		return false
	}
	if removeFrom(t.root, key) {
		t.size--
		return true
	}
	return false
}

func removeFrom(n *node, key uint64) bool {
	if n.leaf {
		for i, it := range n.items {
			if it.Key == key {
				n.items = append(n.items[:i], n.items[i+1:]...)
				if len(n.items) > 0 {
					n.bounds = unionOfItems(n.items)
				}
				return true
			}
		}
		return false
	}
	for _, c := range n.children {
		if removeFrom(c, key) {
			if len(c.children) > 0 {
				c.bounds = unionOfChildren(c.children)
			} else if len(c.items) > 0 {
				c.bounds = unionOfItems(c.items)
			}
			n.bounds = unionOfChildren(n.children)
			return true
		}
	}
	return false
}
