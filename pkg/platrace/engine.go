// Package platrace is the top-level embeddable API: it wires a host's five
// external collaborators (internal/ports) into an orchestrator.Orchestrator
// and exposes the per-tick Update call plus diagnostics, the way the
// teacher's pathweaver.Engine wraps its scene manager, collision detector
// and pathfinder behind one facade.
package platrace

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"platrace/internal/config"
	"platrace/internal/graph"
	"platrace/internal/logging"
	"platrace/internal/orchestrator"
	"platrace/internal/ports"
)

// Engine is the host-facing facade over the orchestrator (component C6) and
// its configuration.
type Engine struct {
	orchestrator *orchestrator.Orchestrator
	config       *config.Options
}

// NewEngine builds an Engine from the host's five collaborator
// implementations and cfg. A nil cfg uses config.Default(). agentWidth is
// the agent's collider width, used by the jump/fall linkers to offset the
// arc-evaluation anchor past the launch platform's edge.
func NewEngine(scene ports.SceneProvider, objects ports.ObjectProvider, controller ports.ControllerProvider, arcs ports.ArcProvider, steering ports.SteeringSink, cfg *config.Options, agentWidth float64) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logging.Log == nil {
		if err := logging.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
			return nil, fmt.Errorf("initializing logging: %w", err)
		}
	}

	return &Engine{
		orchestrator: orchestrator.New(scene, objects, controller, arcs, steering, cfg, agentWidth),
		config:       cfg,
	}, nil
}

// NewEngineFromFile builds an Engine after loading configuration from path
// (YAML on disk, overlaid by environment variables — see internal/config).
func NewEngineFromFile(path string, scene ports.SceneProvider, objects ports.ObjectProvider, controller ports.ControllerProvider, arcs ports.ArcProvider, steering ports.SteeringSink, agentWidth float64) (*Engine, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return NewEngine(scene, objects, controller, arcs, steering, cfg, agentWidth)
}

// Update runs one frame of graph maintenance, trace selection and steering
// (spec.md §4.6). The host calls this once per tick with the current time.
func (e *Engine) Update(ctx context.Context, now time.Time) {
	e.orchestrator.Update(ctx, now)

	if logging.Log != nil {
		logging.Debug("engine tick",
			zap.String("decision", e.orchestrator.LastDecision().String()),
			zap.Int("trace_hops", len(e.orchestrator.LastTrace())),
		)
	}
}

// RequestFullRebuild forces the next Update to rebuild the graph and
// R-tree from scratch instead of diffing. The orchestrator already calls
// this on the host's behalf whenever it detects a broken graph invariant
// (spec.md §7); exposing it here lets a host force the same recovery for
// its own reasons, e.g. after reloading the scene wholesale.
func (e *Engine) RequestFullRebuild() {
	e.orchestrator.RequestFullRebuild()
}

// GetConfig returns the engine's active configuration.
func (e *Engine) GetConfig() *config.Options {
	return e.config
}

// LastTrace returns the most recently computed agent-to-target path.
func (e *Engine) LastTrace() []graph.Step[ports.ObjectHandle] {
	return e.orchestrator.LastTrace()
}

// LastDecision reports which graph-maintenance path the last Update took.
func (e *Engine) LastDecision() orchestrator.Decision {
	return e.orchestrator.LastDecision()
}

// Stats represents engine performance and health statistics, mirroring the
// teacher's pathweaver.Stats shape.
type Stats struct {
	NodeCount          int
	EdgeCount          int
	RtreeEntries       int
	GraphReadTimeouts  uint64
	GraphWriteTimeouts uint64
	RtreeReadTimeouts  uint64
	RtreeWriteTimeouts uint64
	LastDecision       string
}

// GetStats returns a snapshot of the engine's current graph/R-tree size and
// lock-timeout counters (spec.md §5's degrade-on-timeout accounting).
func (e *Engine) GetStats() Stats {
	g := e.orchestrator.Graph()
	rt := e.orchestrator.Rtree()

	gRead, gWrite := g.Stats()
	rRead, rWrite := rt.Stats()

	return Stats{
		NodeCount:          len(g.Nodes()),
		EdgeCount:          len(g.Edges()),
		RtreeEntries:       rt.Len(),
		GraphReadTimeouts:  gRead,
		GraphWriteTimeouts: gWrite,
		RtreeReadTimeouts:  rRead,
		RtreeWriteTimeouts: rWrite,
		LastDecision:       e.orchestrator.LastDecision().String(),
	}
}
