package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"platrace/internal/geom"
	"platrace/internal/graph"
	"platrace/internal/logging"
	"platrace/internal/ports"
)

// rtreeRefreshInflation tolerates edge coincidence between a sub-segment's
// bounding rect and an R-tree query rect (spec.md §4.6 step 1), and is
// reused by the jump/fall linkers' own R-tree queries for the same reason:
// a same-height landing candidate's rect otherwise only touches, never
// strictly intersects, the query rect built from the arc provider's
// bounding box.
const rtreeRefreshInflation = 0.01

// refresh is the diff-based per-tick graph maintenance path (spec.md §4.6).
// It returns false if any mutation it made left the graph's documented
// adjacency invariant broken (spec.md §7).
func (o *Orchestrator) refresh(ctx context.Context) bool {
	handles, err := o.scene.EnumerateObjects(ctx, o.cfg.LayerMask)
	if err != nil {
		if logging.Log != nil {
			logging.Warn("scene enumeration failed during refresh", zap.Error(err))
		}
		return true
	}

	current := make(map[ports.ObjectHandle]geom.Rect, len(handles))
	for _, h := range handles {
		current[h] = o.objects.BoundingRect(h)
	}

	// Step 1: rebuild the R-tree from scratch over the current scene,
	// inflating each entry's rect by rtreeRefreshInflation.
	o.rtree.Clear()
	for h := range current {
		topFace, ok := o.objects.TopFace(h)
		if !ok {
			continue
		}
		for i, seg := range o.splitTopFace(topFace) {
			name := edgeName(o.objects.Name(h), i)
			edge := graph.NewLink(name, seg, graph.Traversing, graph.FlowAll, 1.0)
			o.rtree.Insert(edge.Key(), seg.Bounds().Inflate(rtreeRefreshInflation, rtreeRefreshInflation), h, seg)
		}
	}

	// Step 2: diff against the prior tick's object map.
	var toRemove, toInsert []ports.ObjectHandle
	for h := range o.prior {
		if _, stillPresent := current[h]; !stillPresent {
			toRemove = append(toRemove, h)
		}
	}
	for h, rect := range current {
		prior, hadPrior := o.prior[h]
		switch {
		case !hadPrior:
			toInsert = append(toInsert, h)
		case !rect.Equal(prior.rect):
			toRemove = append(toRemove, h)
			toInsert = append(toInsert, h)
		}
	}

	ok := true
	for _, h := range toRemove {
		rec, found := o.prior[h]
		if !found {
			continue
		}
		for _, e := range rec.edges {
			if !o.graph.Remove(e, true, ^graph.Traversing) {
				ok = false
			}
		}
		delete(o.prior, h)
	}

	var refreshed []*graph.Link
	for _, h := range toInsert {
		edges, edgesOK := o.buildGraphEdges(h)
		if !edgesOK {
			ok = false
		}
		if len(edges) == 0 {
			continue
		}
		o.prior[h] = objectRecord{rect: current[h], edges: edges}
		refreshed = append(refreshed, edges...)
	}

	// Step 3: pull in edges of neighboring objects that the refreshed
	// edges' jump/fall neighborhoods overlap, so their connectors get
	// regenerated too.
	refreshed = o.expandNeighborhood(refreshed)

	// Step 4: regenerate jump/fall connectors for every Traversing edge in
	// the refresh set.
	if !o.linkNeighborhood(refreshed) {
		ok = false
	}
	return ok
}

// expandNeighborhood adds edges of any object whose jump- or fall-area
// rectangle (anchored at a refreshed edge's endpoints) overlaps the
// R-tree, in both directions, so indirectly-affected neighbors relink too.
func (o *Orchestrator) expandNeighborhood(refreshed []*graph.Link) []*graph.Link {
	seen := make(map[graph.EdgeKey]bool, len(refreshed))
	out := make([]*graph.Link, 0, len(refreshed))
	for _, e := range refreshed {
		seen[e.Key()] = true
		out = append(out, e)
	}

	add := func(e *graph.Link) {
		if !seen[e.Key()] {
			seen[e.Key()] = true
			out = append(out, e)
		}
	}

	for _, e := range refreshed {
		for _, dir := range []graph.Direction{graph.Left, graph.Right} {
			for _, rect := range o.linkAreaRects(e, dir) {
				for _, item := range o.rtree.Find(rect) {
					if obj, ok := item.Object.(ports.ObjectHandle); ok {
						for _, adj := range o.graph.ObjectEdges(obj) {
							add(adj)
						}
					}
				}
			}
		}
	}
	return out
}

// linkAreaRects returns the jump-area and fall-area query rectangles for
// e's endpoint in dir, used to expand the refresh neighborhood. The linkers
// build their own, inflated query rects.
func (o *Orchestrator) linkAreaRects(e *graph.Link, dir graph.Direction) []geom.Rect {
	anchor := launchAnchor(e, dir, o.agentWidth)
	return []geom.Rect{
		o.arcs.JumpArcBoundingRect(dir).SetLocation(geom.AnchorBottomLeft, anchor),
		o.arcs.FallArcBoundingRect(dir).SetLocation(geom.AnchorTopLeft, anchor),
	}
}
