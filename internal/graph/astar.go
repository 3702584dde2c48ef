package graph

import (
	"math"

	"platrace/internal/pq"
)

// Step is one hop of an A* path: the edge traversed and the scene object
// that owns it.
type Step[O comparable] struct {
	Edge   *Link
	Object O
}

// AStar returns the shortest path from origin to destination (both edges
// already present in the graph), or nil if no path exists. Per spec.md
// §5, the solve holds the graph's write lock for its entire duration
// rather than releasing it between steps — the graph must stay small
// enough that one solve fits inside a frame budget. A lock-acquisition
// timeout degrades to "no path found", same as genuine unreachability.
func (g *Graph[O]) AStar(origin, destination *Link) []Step[O] {
	if origin == nil || destination == nil {
		return nil
	}
	if !g.lock.Lock() {
		return nil
	}
	defer g.lock.Unlock()
	return g.astarLocked(origin, destination)
}

func (g *Graph[O]) astarLocked(origin, destination *Link) []Step[O] {
	for _, e := range g.edges {
		e.resetSolverFields()
	}
	origin.g = 0
	origin.f = heuristic(origin, destination)

	open := pq.New()
	entries := make(map[EdgeKey]*pq.Entry)
	closed := make(map[EdgeKey]bool)
	entries[origin.Key()] = open.Enqueue(origin, origin.f)

	for open.Count() > 0 {
		v, _ := open.Dequeue()
		cur := v.(*Link)
		curKey := cur.Key()
		delete(entries, curKey)
		closed[curKey] = true

		if cur == destination {
			return g.reconstructLocked(cur)
		}

		for _, n := range g.adjacentLocked(cur) {
			nKey := n.Key()
			if closed[nKey] {
				continue
			}
			candidate := cur.g + edgeCost(n, cur)
			if candidate < n.g {
				n.pred = cur
				n.g = candidate
				n.f = candidate + heuristic(n, destination)
				if e, ok := entries[nKey]; ok {
					open.Update(e, n.f)
				} else {
					entries[nKey] = open.Enqueue(n, n.f)
				}
			}
		}
	}
	return nil
}

// adjacentLocked returns every edge touching cur.Start or cur.End other
// than cur, without acquiring the lock (the caller already holds it).
func (g *Graph[O]) adjacentLocked(cur *Link) []*Link {
	seen := map[EdgeKey]bool{cur.Key(): true}
	var out []*Link
	for _, adj := range cur.Start.Edges {
		if !seen[adj.Key()] {
			seen[adj.Key()] = true
			out = append(out, adj)
		}
	}
	for _, adj := range cur.End.Edges {
		if !seen[adj.Key()] {
			seen[adj.Key()] = true
			out = append(out, adj)
		}
	}
	return out
}

func (g *Graph[O]) reconstructLocked(dest *Link) []Step[O] {
	var path []*Link
	for cur := dest; cur != nil; cur = cur.pred {
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	steps := make([]Step[O], len(path))
	for i, e := range path {
		steps[i] = Step[O]{Edge: e, Object: g.edgeObject[e.Key()]}
	}
	return steps
}

// heuristic is the Euclidean distance between two edges' line centroids —
// admissible and consistent for this geometric graph (spec.md §4.5).
func heuristic(a, b *Link) float64 {
	return a.Line.Centroid().Distance(b.Line.Centroid())
}

// edgeCost is n's line length, penalized to +Inf when the transition from
// pred into n arrives via a side n's flow direction forbids.
func edgeCost(n, pred *Link) float64 {
	cost := n.Line.Length()

	enteredViaStart := n.Start == pred.Start || n.Start == pred.End
	enteredViaEnd := n.End == pred.Start || n.End == pred.End

	if enteredViaStart && !n.AllowsFlow(FlowStartToEnd) {
		cost += math.Inf(1)
	}
	if enteredViaEnd && !n.AllowsFlow(FlowEndToStart) {
		cost += math.Inf(1)
	}
	return cost
}
