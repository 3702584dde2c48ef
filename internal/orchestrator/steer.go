package orchestrator

import (
	"context"

	"platrace/internal/geom"
	"platrace/internal/graph"
	"platrace/internal/ports"
)

// occupantRect approximates the character at who's bounding rectangle for
// FindObjectLinks (spec.md §4.4) as a zero-height rect centered on its
// reported Position, per SPEC_FULL.md's ControllerProvider.Position note.
func (o *Orchestrator) occupantRect(who ports.Who) geom.Rect {
	p := o.controller.Position(who)
	half := o.agentWidth / 2
	return geom.Rect{Left: p.X - half, Right: p.X + half, Bottom: p.Y, Top: p.Y}
}

// selectTrace resolves the platform beneath the agent and the platform
// beneath the target, runs A* between their representative edges, and
// replaces the stored trace. A failed resolution on either side keeps the
// previous trace (spec.md §4.6).
func (o *Orchestrator) selectTrace(ctx context.Context) {
	agentPlatform, okA := o.controller.StandingPlatform(ports.Agent)
	targetPlatform, okT := o.controller.StandingPlatform(ports.Target)
	if !okA || !okT {
		return
	}

	origin, ok := o.graph.FindObjectLinks(agentPlatform, o.occupantRect(ports.Agent))
	if !ok {
		return
	}
	destination, ok := o.graph.FindObjectLinks(targetPlatform, o.occupantRect(ports.Target))
	if !ok {
		return
	}

	o.lastTrace = o.graph.AStar(origin, destination)
}

// steer emits the agent's next directional input from the most recently
// computed trace, run on every frame regardless of the maintenance
// interval (spec.md §4.6).
func (o *Orchestrator) steer() {
	if len(o.lastTrace) == 0 {
		o.steering.SetDirectionalInput(geom.Point{})
		return
	}

	standingOn, ok := o.controller.StandingPlatform(ports.Agent)
	if !ok {
		o.steering.SetDirectionalInput(geom.Point{})
		return
	}

	idx := -1
	for i, step := range o.lastTrace {
		if step.Object == standingOn {
			idx = i
			break
		}
	}
	if idx < 0 || idx >= len(o.lastTrace)-1 {
		o.steering.SetDirectionalInput(geom.Point{})
		return
	}

	current := o.lastTrace[idx].Edge
	next := o.lastTrace[idx+1].Edge
	o.steering.SetDirectionalInput(directionTowards(current, next))
}

// directionTowards compares the distance from next's line to current's
// LeftNode versus RightNode and returns a unit step in the closer
// direction.
func directionTowards(current, next *graph.Link) geom.Point {
	distLeft := next.Line.Distance(current.LeftNode().Location)
	distRight := next.Line.Distance(current.RightNode().Location)
	if distLeft < distRight {
		return geom.Point{X: -1}
	}
	return geom.Point{X: 1}
}
