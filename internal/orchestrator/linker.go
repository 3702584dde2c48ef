package orchestrator

import (
	"sort"

	"platrace/internal/geom"
	"platrace/internal/graph"
	"platrace/internal/ports"
)

// launchNode returns e's left or right endpoint in dir — the point a new
// jump/fall edge must start from to stay attached to e's node, so the
// connector remains part of the same graph component as the walk segment
// it launches off of.
func launchNode(e *graph.Link, dir graph.Direction) geom.Point {
	if dir == graph.Right {
		return e.RightNode().Location
	}
	return e.LeftNode().Location
}

// launchAnchor returns the point the agent's arc is evaluated from:
// launchNode offset by agentWidth so the agent clears the platform edge
// before the sampled arc begins (spec.md §4.6). Used only to place the arc
// provider's sample rectangles and R-tree query rect — never as an edge
// endpoint, or the connector would never share a node with its source.
func launchAnchor(e *graph.Link, dir graph.Direction, agentWidth float64) geom.Point {
	p := launchNode(e, dir)
	if dir == graph.Right {
		return geom.Point{X: p.X + agentWidth, Y: p.Y}
	}
	return geom.Point{X: p.X - agentWidth, Y: p.Y}
}

// pointRect is a zero-area rectangle at p, standing in for "the agent's
// launch rectangle" — the arc provider is expected to read only a rect's
// Left/Bottom as a translation origin (testdoubles.StaticArcs does), so a
// degenerate rect at the anchor point carries everything the contract
// needs without requiring the agent's full collider shape as an input.
func pointRect(p geom.Point) geom.Rect {
	return geom.Rect{Left: p.X, Right: p.X, Bottom: p.Y, Top: p.Y}
}

// jumpLink implements spec.md §4.6's jump linker: it returns a new Jumping
// edge from e's dir endpoint to the closer endpoint of the first reachable
// candidate in R-tree query order, or false if no platform is reachable.
// Candidates are not ranked by distance.
func (o *Orchestrator) jumpLink(e *graph.Link, dir graph.Direction) (*graph.Link, ports.ObjectHandle, bool) {
	sourceObj, _ := o.graph.ObjectOf(e)
	jumpPoint := launchNode(e, dir)
	anchor := launchAnchor(e, dir, o.agentWidth)
	launchRect := pointRect(anchor)

	queryRect := o.arcs.JumpArcBoundingRect(dir).SetLocation(geom.AnchorBottomLeft, anchor).Inflate(rtreeRefreshInflation, rtreeRefreshInflation)
	samples := o.arcs.JumpArc(dir, launchRect)

	for _, item := range o.rtree.Find(queryRect) {
		candidateObj, ok := item.Object.(ports.ObjectHandle)
		if !ok || candidateObj == sourceObj {
			continue
		}
		candidateLine := item.Geometry
		candidateRect := candidateLine.Bounds()
		if candidateRect.Top < launchRect.Bottom {
			continue // candidate is already below the launch point — a fall, not a jump
		}

		reachable := false
		for _, sample := range samples {
			if sample.Above(candidateRect) && sample.OverlapsLineOnAxis(candidateLine, geom.Horizontal) {
				reachable = true
				break
			}
		}
		if !reachable {
			continue
		}

		landing := nearestEndpoint(candidateLine, jumpPoint)
		if geom.Key(landing) == geom.Key(jumpPoint) {
			continue
		}

		name := "jump:" + o.objects.Name(sourceObj) + "->" + o.objects.Name(candidateObj)
		link := graph.NewLink(name, geom.NewLine(jumpPoint, landing), graph.Jumping, graph.FlowStartToEnd, 1.0)
		return link, sourceObj, true
	}
	return nil, sourceObj, false
}

// fallLink implements spec.md §4.6's fall linker: candidates are ranked by
// distance of their bounding-rect center to the drop point, and only the
// nearest accepted candidate yields an edge.
func (o *Orchestrator) fallLink(e *graph.Link, dir graph.Direction) (*graph.Link, ports.ObjectHandle, bool) {
	sourceObj, _ := o.graph.ObjectOf(e)
	dropPoint := launchNode(e, dir)
	anchor := launchAnchor(e, dir, o.agentWidth)
	dropRect := pointRect(anchor)

	// FallArcBoundingRect is anchored at its top-left, not bottom-left: a
	// fall's candidates lie below the drop point, so the query rect must
	// extend downward from anchor instead of upward.
	queryRect := o.arcs.FallArcBoundingRect(dir).SetLocation(geom.AnchorTopLeft, anchor).Inflate(rtreeRefreshInflation, rtreeRefreshInflation)
	samples := o.arcs.FallArc(dir, dropRect)

	items := o.rtree.Find(queryRect)
	candidates := make([]spatialCandidate, 0, len(items))
	for _, item := range items {
		candidateObj, ok := item.Object.(ports.ObjectHandle)
		if !ok || candidateObj == sourceObj {
			continue
		}
		candidates = append(candidates, spatialCandidate{
			object: candidateObj,
			line:   item.Geometry,
			dist:   item.Geometry.Bounds().Center().Distance(dropPoint),
		})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })

	for _, c := range candidates {
		candidateRect := c.line.Bounds()
		if dropRect.Below(candidateRect) {
			continue // candidate is level with or above the drop point — a jump, not a fall
		}

		reachable := false
		for _, sample := range samples {
			if sample.Above(candidateRect) && sample.OverlapsLineOnAxis(c.line, geom.Horizontal) {
				reachable = true
				break
			}
		}
		if !reachable {
			continue
		}

		landing, ok := correctSideEndpoint(c.line, dropPoint, dir)
		if !ok {
			continue
		}
		if geom.Key(landing) == geom.Key(dropPoint) {
			continue
		}

		name := "fall:" + o.objects.Name(sourceObj) + "->" + o.objects.Name(c.object)
		link := graph.NewLink(name, geom.NewLine(dropPoint, landing), graph.Falling, graph.FlowStartToEnd, 1.0)
		return link, sourceObj, true
	}
	return nil, sourceObj, false
}

type spatialCandidate struct {
	object ports.ObjectHandle
	line   geom.Line
	dist   float64
}

// nearestEndpoint returns whichever of l's two endpoints is closer to p.
func nearestEndpoint(l geom.Line, p geom.Point) geom.Point {
	if l.Start.Distance(p) <= l.End.Distance(p) {
		return l.Start
	}
	return l.End
}

// correctSideEndpoint picks l's endpoint on the horizontal side a fall in
// dir requires — right-of the drop point for a left-direction fall,
// left-of it for a right-direction fall — preferring the closer endpoint
// when both sides qualify, and falling back to the farther one only if
// the closer one is on the wrong side.
func correctSideEndpoint(l geom.Line, dropPoint geom.Point, dir graph.Direction) (geom.Point, bool) {
	correctSide := func(p geom.Point) bool {
		if dir == graph.Left {
			return p.X > dropPoint.X
		}
		return p.X < dropPoint.X
	}

	closest, farthest := l.Start, l.End
	if l.End.Distance(dropPoint) < l.Start.Distance(dropPoint) {
		closest, farthest = l.End, l.Start
	}

	if correctSide(closest) {
		return closest, true
	}
	if correctSide(farthest) {
		return farthest, true
	}
	return geom.Point{}, false
}
