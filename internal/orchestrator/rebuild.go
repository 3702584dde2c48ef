package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"platrace/internal/graph"
	"platrace/internal/logging"
	"platrace/internal/ports"
)

// rebuildAll clears the object map, graph and R-tree, then re-enumerates
// every scene object and rebuilds everything from scratch (spec.md §4.6).
// It returns false if any mutation it made left the graph's documented
// adjacency invariant broken (spec.md §7).
func (o *Orchestrator) rebuildAll(ctx context.Context) bool {
	o.prior = make(map[ports.ObjectHandle]objectRecord)
	o.graph.Clear()
	o.rtree.Clear()

	handles, err := o.scene.EnumerateObjects(ctx, o.cfg.LayerMask)
	if err != nil {
		if logging.Log != nil {
			logging.Warn("scene enumeration failed during rebuild", zap.Error(err))
		}
		return true
	}

	ok := true
	var walkEdges []*graph.Link
	for _, h := range handles {
		edges, edgesOK := o.buildGraphEdges(h)
		if !edgesOK {
			ok = false
		}
		if len(edges) == 0 {
			continue
		}
		for _, e := range edges {
			o.rtree.Insert(e.Key(), e.Line.Bounds(), h, e.Line)
		}
		o.prior[h] = objectRecord{rect: o.objects.BoundingRect(h), edges: edges}
		walkEdges = append(walkEdges, edges...)
	}

	if !o.linkNeighborhood(walkEdges) {
		ok = false
	}
	return ok
}

// buildGraphEdges splits h's top face into Traversing sub-segments and adds
// each to the graph, returning the new edges and whether every Add upheld
// the graph's adjacency invariant. It does not touch the R-tree — callers
// insert separately, since Refresh's R-tree rebuild (step 1) already
// covers every current object before this runs.
func (o *Orchestrator) buildGraphEdges(h ports.ObjectHandle) ([]*graph.Link, bool) {
	topFace, ok := o.objects.TopFace(h)
	if !ok {
		return nil, true
	}
	name := o.objects.Name(h)
	segments := o.splitTopFace(topFace)

	ok = true
	edges := make([]*graph.Link, 0, len(segments))
	for i, seg := range segments {
		edge := graph.NewLink(edgeName(name, i), seg, graph.Traversing, graph.FlowAll, 1.0)
		if !o.graph.Add(edge, h) {
			ok = false
		}
		edges = append(edges, edge)
	}
	return edges, ok
}

// linkNeighborhood invokes the jump and fall linkers, in both directions,
// for every Traversing+FlowAll edge in edges, and adds every returned
// connector to the graph. It returns whether every Add upheld the graph's
// adjacency invariant.
func (o *Orchestrator) linkNeighborhood(edges []*graph.Link) bool {
	ok := true
	for _, e := range edges {
		if !e.AllowsAction(graph.Traversing) || e.FlowDir != graph.FlowAll {
			continue
		}
		for _, dir := range []graph.Direction{graph.Left, graph.Right} {
			if jump, obj, found := o.jumpLink(e, dir); found {
				if logging.Log != nil {
					logging.Debug("jump link generated", zap.String("name", jump.Name))
				}
				if !o.graph.Add(jump, obj) {
					ok = false
				}
			}
			if fall, obj, found := o.fallLink(e, dir); found {
				if logging.Log != nil {
					logging.Debug("fall link generated", zap.String("name", fall.Name))
				}
				if !o.graph.Add(fall, obj) {
					ok = false
				}
			}
		}
	}
	return ok
}
