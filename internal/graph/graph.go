package graph

import (
	"fmt"
	"time"

	"platrace/internal/geom"
	"platrace/internal/rwlock"
)

// Graph is the traversal graph (spec.md §3, §4.4): a node table keyed by
// point key, an edge table keyed by edge identity, and the two maps tying
// edges to the scene object that produced them. It is generic over the
// caller's object-handle type O, which must be comparable so it can key a
// map — the same parametric-payload approach spec.md §9 calls for in the
// R-tree, applied here too instead of modeling objects through an
// interface.
//
// Concurrency follows spec.md §5: every call acquires the reader-
// preferring timed lock (internal/rwlock) and degrades to a benign default
// (nil, false, 0) on timeout rather than blocking indefinitely or
// propagating an error.
type Graph[O comparable] struct {
	lock *rwlock.RWLock

	nodes       map[NodeKey]*Node
	edges       map[EdgeKey]*Link
	edgeObject  map[EdgeKey]O
	objectEdges map[O][]*Link
}

// New returns an empty Graph. readerTimeout/writerTimeout are the
// configured lock timeouts (spec.md §6); a non-positive value falls back
// to rwlock's own package defaults, same as rwlock.New itself.
func New[O comparable](readerTimeout, writerTimeout time.Duration) *Graph[O] {
	g := &Graph[O]{lock: rwlock.New("graph", readerTimeout, writerTimeout)}
	g.resetLocked()
	return g
}

func (g *Graph[O]) resetLocked() {
	g.nodes = make(map[NodeKey]*Node)
	g.edges = make(map[EdgeKey]*Link)
	g.edgeObject = make(map[EdgeKey]O)
	g.objectEdges = make(map[O][]*Link)
}

// Stats reports the lock's timeout counters for diagnostics.
func (g *Graph[O]) Stats() (readTimeouts, writeTimeouts uint64) {
	return g.lock.Stats()
}

// Count returns the number of edges in the graph.
func (g *Graph[O]) Count() int {
	if !g.lock.RLock() {
		return 0
	}
	defer g.lock.RUnlock()
	return len(g.edges)
}

// IsEmpty reports whether the graph has no edges.
func (g *Graph[O]) IsEmpty() bool {
	return g.Count() == 0
}

// Clear empties the graph.
func (g *Graph[O]) Clear() {
	if !g.lock.Lock() {
		return
	}
	defer g.lock.Unlock()
	g.resetLocked()
}

// Nodes returns a snapshot of the current node table, for diagnostics and
// tests only.
func (g *Graph[O]) Nodes() []*Node {
	if !g.lock.RLock() {
		return nil
	}
	defer g.lock.RUnlock()
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// Edges returns a snapshot of the current edge table, for diagnostics and
// tests only.
func (g *Graph[O]) Edges() []*Link {
	if !g.lock.RLock() {
		return nil
	}
	defer g.lock.RUnlock()
	out := make([]*Link, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, e)
	}
	return out
}

// ContainsNode reports whether a node with loc's key exists.
func (g *Graph[O]) ContainsNode(loc geom.Point) bool {
	if !g.lock.RLock() {
		return false
	}
	defer g.lock.RUnlock()
	_, ok := g.nodes[geom.Key(loc)]
	return ok
}

// ContainsLink reports whether edge is present and allows actionMask.
func (g *Graph[O]) ContainsLink(edge *Link, actionMask Action) bool {
	if !g.lock.RLock() {
		return false
	}
	defer g.lock.RUnlock()
	existing, ok := g.edges[edge.Key()]
	if !ok {
		return false
	}
	return existing.AllowsAction(actionMask)
}

// Add idempotently merges edge's endpoints with existing node-table
// entries by key, reassigning edge.Start/End to the canonical node
// instances, appends edge to both endpoints' adjacency lists, inserts it
// into the edge table, and updates the object<->edges maps. When an edge
// with the same key is already present, only the endpoint reassignment
// happens: the stored edge stays in the tables and adjacency lists, and the
// caller's edge is not added to them.
//
// It returns whether the edge's endpoint adjacency holds the documented
// invariant afterward — edge is in the edge table iff both of its nodes
// list it as adjacent (spec.md §7's "structural invariant violation").
// Re-adding an edge that's already present by key (the orchestrator does
// this every tick for unchanged connectors) re-checks the invariant
// against the edge already stored, not the fresh caller-supplied one, so
// drift introduced since that edge was last added is still caught.
// A failed lock acquisition reports true: nothing was mutated, so there
// is nothing to have violated; that degrade path is spec.md §5's, not §7's.
func (g *Graph[O]) Add(edge *Link, object O) bool {
	if !g.lock.Lock() {
		return true
	}
	defer g.lock.Unlock()
	return g.addLocked(edge, object)
}

func (g *Graph[O]) addLocked(edge *Link, object O) bool {
	key := edge.Key()
	if existing, exists := g.edges[key]; exists {
		edge.Start, edge.End = existing.Start, existing.End
		return edgeInAdjacency(existing.Start, existing) && edgeInAdjacency(existing.End, existing)
	}

	edge.Start = g.internNode(edge.Line.Start)
	edge.End = g.internNode(edge.Line.End)
	edge.Start.addEdge(edge)
	edge.End.addEdge(edge)

	g.edges[key] = edge
	g.edgeObject[key] = object
	g.objectEdges[object] = append(g.objectEdges[object], edge)

	return edgeInAdjacency(edge.Start, edge) && edgeInAdjacency(edge.End, edge)
}

func (g *Graph[O]) internNode(loc geom.Point) *Node {
	k := geom.Key(loc)
	if existing, ok := g.nodes[k]; ok {
		return existing
	}
	n := newNode(fmt.Sprintf("node(%.2f,%.2f)", loc.X, loc.Y), loc)
	g.nodes[k] = n
	return n
}

// Remove detaches edge from both endpoints and, when removeConnected is
// true, cascades to every edge still adjacent to either endpoint whose
// action set intersects connectedMask. A node left with no adjacency is
// deleted from the node table.
//
// It returns whether every edge actually removed (edge itself, plus any
// cascade) cleared its endpoint adjacency — the mirror of Add's invariant
// check. A failed lock acquisition reports true for the same reason Add's
// does.
func (g *Graph[O]) Remove(edge *Link, removeConnected bool, connectedMask Action) bool {
	if !g.lock.Lock() {
		return true
	}
	defer g.lock.Unlock()
	return g.removeLocked(edge, removeConnected, connectedMask)
}

func (g *Graph[O]) removeLocked(edge *Link, removeConnected bool, connectedMask Action) bool {
	key := edge.Key()
	if _, ok := g.edges[key]; !ok {
		return true
	}

	startNode, endNode := edge.Start, edge.End
	delete(g.edges, key)
	if obj, ok := g.edgeObject[key]; ok {
		delete(g.edgeObject, key)
		g.objectEdges[obj] = removeLink(g.objectEdges[obj], edge)
		if len(g.objectEdges[obj]) == 0 {
			delete(g.objectEdges, obj)
		}
	}
	startNode.removeEdge(edge)
	endNode.removeEdge(edge)
	ok := !edgeInAdjacency(startNode, edge) && !edgeInAdjacency(endNode, edge)
	g.pruneNodeIfEmpty(startNode)
	g.pruneNodeIfEmpty(endNode)

	if !removeConnected {
		return ok
	}

	seen := map[EdgeKey]bool{key: true}
	var cascade []*Link
	cascade = append(cascade, startNode.Edges...)
	cascade = append(cascade, endNode.Edges...)
	for _, adj := range cascade {
		ak := adj.Key()
		if seen[ak] {
			continue
		}
		seen[ak] = true
		if adj.Action.AllowsAny(connectedMask) {
			if !g.removeLocked(adj, false, 0) {
				ok = false
			}
		}
	}
	return ok
}

func (g *Graph[O]) pruneNodeIfEmpty(n *Node) {
	if len(n.Edges) == 0 {
		delete(g.nodes, n.Key)
	}
}

func removeLink(edges []*Link, target *Link) []*Link {
	for i, e := range edges {
		if e == target {
			return append(edges[:i], edges[i+1:]...)
		}
	}
	return edges
}

// edgeInAdjacency reports whether n's adjacency list references edge.
func edgeInAdjacency(n *Node, edge *Link) bool {
	for _, e := range n.Edges {
		if e == edge {
			return true
		}
	}
	return false
}

// AdjacentEdges returns every edge touching edge.Start or edge.End,
// excluding edge itself — the A* solver's neighbor expansion (spec.md
// §4.5).
func (g *Graph[O]) AdjacentEdges(edge *Link) []*Link {
	if !g.lock.RLock() {
		return nil
	}
	defer g.lock.RUnlock()

	seen := map[EdgeKey]bool{edge.Key(): true}
	var out []*Link
	for _, adj := range edge.Start.Edges {
		if !seen[adj.Key()] {
			seen[adj.Key()] = true
			out = append(out, adj)
		}
	}
	for _, adj := range edge.End.Edges {
		if !seen[adj.Key()] {
			seen[adj.Key()] = true
			out = append(out, adj)
		}
	}
	return out
}

// ObjectOf returns the scene object that produced edge, if any.
func (g *Graph[O]) ObjectOf(edge *Link) (object O, ok bool) {
	if !g.lock.RLock() {
		return object, false
	}
	defer g.lock.RUnlock()
	object, ok = g.edgeObject[edge.Key()]
	return object, ok
}

// ObjectEdges returns the edges currently attributed to object.
func (g *Graph[O]) ObjectEdges(object O) []*Link {
	if !g.lock.RLock() {
		return nil
	}
	defer g.lock.RUnlock()
	edges := g.objectEdges[object]
	out := make([]*Link, len(edges))
	copy(out, edges)
	return out
}

// FindObjectLinks returns the best representative edge for a platform
// object: its only edge if it has exactly one; otherwise the edge among
// those overlapping otherRect on the horizontal axis whose line is
// closest to otherRect's bottom-center (among all its edges when none
// overlap). otherRect stands in for "otherObj's
// bounding rectangle" in spec.md §4.4 — Graph has no geometry provider of
// its own, so callers resolve the rectangle before calling in.
func (g *Graph[O]) FindObjectLinks(platformObject O, otherRect geom.Rect) (*Link, bool) {
	if !g.lock.RLock() {
		return nil, false
	}
	defer g.lock.RUnlock()

	edges := g.objectEdges[platformObject]
	if len(edges) == 0 {
		return nil, false
	}
	if len(edges) == 1 {
		return edges[0], true
	}

	var candidates []*Link
	for _, e := range edges {
		if otherRect.OverlapsLineOnAxis(e.Line, geom.Horizontal) {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		candidates = edges
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}

	target := otherRect.BottomCenter()
	best := candidates[0]
	bestDist := best.Line.Distance(target)
	for _, e := range candidates[1:] {
		if d := e.Line.Distance(target); d < bestDist {
			best, bestDist = e, d
		}
	}
	return best, true
}

// FindClosestLink returns the edge in the graph whose line is closest to
// point.
func (g *Graph[O]) FindClosestLink(point geom.Point) (*Link, bool) {
	if !g.lock.RLock() {
		return nil, false
	}
	defer g.lock.RUnlock()

	var best *Link
	bestDist := 0.0
	for _, e := range g.edges {
		d := e.Line.Distance(point)
		if best == nil || d < bestDist {
			best, bestDist = e, d
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

// ResetSolverFields clears every edge's transient A* fields ahead of a new
// solve (spec.md §3, §4.5). Holds the write lock for the duration, as the
// solver itself does not release it mid-loop (spec.md §5).
func (g *Graph[O]) ResetSolverFields() {
	if !g.lock.Lock() {
		return
	}
	defer g.lock.Unlock()
	for _, e := range g.edges {
		e.resetSolverFields()
	}
}
