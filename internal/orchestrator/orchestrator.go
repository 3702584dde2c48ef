// Package orchestrator ties the R-tree, traversal graph and A* solver
// together into the per-tick pathfinding loop: incremental graph
// maintenance, jump/fall link generation in affected neighborhoods, trace
// selection, and agent steering output (spec.md §4.6).
package orchestrator

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"platrace/internal/config"
	"platrace/internal/geom"
	"platrace/internal/graph"
	"platrace/internal/logging"
	"platrace/internal/ports"
	"platrace/internal/spatial"
)

// Decision records which graph-maintenance path the last tick took, for
// test assertions only — it does not affect steering.
type Decision int

const (
	DecisionSkip Decision = iota
	DecisionRebuild
	DecisionRefresh
)

func (d Decision) String() string {
	switch d {
	case DecisionRebuild:
		return "Rebuild"
	case DecisionRefresh:
		return "Refresh"
	default:
		return "Skip"
	}
}

// objectRecord is the orchestrator's per-object bookkeeping used by the
// diff-based Refresh (spec.md §3's "Object→graph mapping").
type objectRecord struct {
	rect  geom.Rect
	edges []*graph.Link
}

// Orchestrator is component C6.
type Orchestrator struct {
	scene      ports.SceneProvider
	objects    ports.ObjectProvider
	controller ports.ControllerProvider
	arcs       ports.ArcProvider
	steering   ports.SteeringSink

	cfg         *config.Options
	agentWidth  float64
	fullRebuild bool

	graph *graph.Graph[ports.ObjectHandle]
	rtree *spatial.Rtree

	prior map[ports.ObjectHandle]objectRecord

	lastMaintenance time.Time
	lastTrace       []graph.Step[ports.ObjectHandle]
	lastDecision    Decision
}

// New builds an Orchestrator with an empty graph and R-tree sized from
// cfg.
func New(scene ports.SceneProvider, objects ports.ObjectProvider, controller ports.ControllerProvider, arcs ports.ArcProvider, steering ports.SteeringSink, cfg *config.Options, agentWidth float64) *Orchestrator {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Orchestrator{
		scene:      scene,
		objects:    objects,
		controller: controller,
		arcs:       arcs,
		steering:   steering,
		cfg:        cfg,
		agentWidth: agentWidth,
		graph:      graph.New[ports.ObjectHandle](cfg.ReaderTimeout, cfg.WriterTimeout),
		rtree:      spatial.New(cfg.RtreeMaxEntries, cfg.EffectiveMinEntries(), cfg.ReaderTimeout, cfg.WriterTimeout),
		prior:      make(map[ports.ObjectHandle]objectRecord),
	}
}

// Graph exposes the underlying traversal graph, for diagnostics and tests.
func (o *Orchestrator) Graph() *graph.Graph[ports.ObjectHandle] { return o.graph }

// Rtree exposes the underlying spatial index, for diagnostics and tests.
func (o *Orchestrator) Rtree() *spatial.Rtree { return o.rtree }

// LastTrace returns the trace computed by the most recent maintenance
// tick (spec.md §4.6's "Path selection and steering").
func (o *Orchestrator) LastTrace() []graph.Step[ports.ObjectHandle] { return o.lastTrace }

// LastDecision returns which graph-maintenance path the last call to
// Update took.
func (o *Orchestrator) LastDecision() Decision { return o.lastDecision }

// RequestFullRebuild sets the full-rebuild flag for the next maintenance
// tick, as spec.md §7 calls for after a detected structural invariant
// violation.
func (o *Orchestrator) RequestFullRebuild() { o.fullRebuild = true }

// Update runs one frame of the orchestrator. Graph maintenance (rebuild or
// refresh, followed by trace selection) only happens once graphUpdateInterval
// has elapsed since the last maintenance tick; steering output is emitted
// on every call regardless, using the most recently computed trace
// (spec.md §4.6, §5's ordering guarantees).
func (o *Orchestrator) Update(ctx context.Context, now time.Time) {
	if o.lastMaintenance.IsZero() || now.Sub(o.lastMaintenance) >= o.cfg.GraphUpdateInterval {
		o.maintain(ctx)
		o.selectTrace(ctx)
		o.lastMaintenance = now
	} else {
		o.lastDecision = DecisionSkip
	}
	o.steer()
}

// maintain runs the chosen graph-maintenance path and, if it reports a
// broken adjacency invariant, logs at error and schedules a full rebuild
// for the next tick (spec.md §7's structural-invariant-violation recovery).
func (o *Orchestrator) maintain(ctx context.Context) {
	var ok bool
	if o.graph.IsEmpty() || o.fullRebuild {
		o.lastDecision = DecisionRebuild
		o.fullRebuild = false
		ok = o.rebuildAll(ctx)
	} else {
		o.lastDecision = DecisionRefresh
		ok = o.refresh(ctx)
	}
	if !ok {
		if logging.Log != nil {
			logging.Error("graph structural invariant violated during maintenance; forcing full rebuild",
				zap.String("decision", o.lastDecision.String()))
		}
		o.RequestFullRebuild()
	}
}

// splitTopFace splits a platform's top face into Traversing sub-segments
// whose target length is agentWidth*SegmentWidthMultiplier (spec.md
// §4.6).
func (o *Orchestrator) splitTopFace(topFace geom.Line) []geom.Line {
	target := o.agentWidth * o.cfg.SegmentWidthMultiplier
	return topFace.Split(target, 100)
}

func edgeName(objectName string, index int) string {
	if index == 0 {
		return objectName
	}
	return objectName + "#seg" + strconv.Itoa(index)
}
