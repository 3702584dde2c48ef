package graph

import (
	"fmt"
	"hash/fnv"
	"math"

	"platrace/internal/geom"
)

// EdgeKey is a Link's identity: a hash of its textual representation
// "{name} : [{start},{end}]" (spec.md §3).
type EdgeKey = uint64

// Link is a graph edge describing one feasible locomotion segment: a
// straight walk along a platform's top face, or a jump/fall connector
// between two platforms.
type Link struct {
	Name    string
	Line    geom.Line
	Action  Action
	FlowDir Flow
	Weight  float64

	Start *Node
	End   *Node

	// Transient A* fields, reset at the start of every solve (spec.md §3).
	g, f float64
	pred *Link
}

// NewLink builds an unattached Link; Graph.Add gives it Start/End Node
// instances and inserts it into the node/edge tables.
func NewLink(name string, line geom.Line, action Action, flow Flow, weight float64) *Link {
	return &Link{
		Name:    name,
		Line:    line,
		Action:  action,
		FlowDir: flow,
		Weight:  weight,
	}
}

// Key returns the Link's identity hash.
func (l *Link) Key() EdgeKey {
	return edgeKey(l.Name, l.Line.Start, l.Line.End)
}

func edgeKey(name string, start, end geom.Point) EdgeKey {
	text := fmt.Sprintf("%s : [%.2f,%.2f-%.2f,%.2f]", name, start.X, start.Y, end.X, end.Y)
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	return h.Sum64()
}

// AllowsAction reports whether l.Action contains every flag in mask.
func (l *Link) AllowsAction(mask Action) bool {
	return l.Action.Allows(mask)
}

// AllowsFlow reports whether entry via dir is permitted by l.FlowDir.
func (l *Link) AllowsFlow(dir Flow) bool {
	return l.FlowDir.Allows(dir)
}

// LeftNode and RightNode return the endpoint with the smaller/larger X
// coordinate.
func (l *Link) LeftNode() *Node {
	if l.Start.Location.X <= l.End.Location.X {
		return l.Start
	}
	return l.End
}

func (l *Link) RightNode() *Node {
	if l.Start.Location.X >= l.End.Location.X {
		return l.Start
	}
	return l.End
}

// resetSolverFields clears the transient A* fields ahead of a new solve.
func (l *Link) resetSolverFields() {
	l.g = math.Inf(1)
	l.f = math.Inf(1)
	l.pred = nil
}
