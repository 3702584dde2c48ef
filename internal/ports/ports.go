// Package ports defines the thin, pure contracts to the host's scene,
// physics/arc and controller collaborators (spec.md §6, component C7). No
// business logic lives here — every method is a read of externally-owned
// state.
package ports

import (
	"context"

	"platrace/internal/geom"
	"platrace/internal/graph"
)

// ObjectHandle identifies a scene object. It is comparable so it can key
// the traversal graph's object<->edges maps (internal/graph.Graph is
// parametric over exactly this kind of handle).
type ObjectHandle struct {
	ID uint64
}

// Who distinguishes the agent from the target for collaborator calls that
// differ by which character they describe.
type Who int

const (
	Agent Who = iota
	Target
)

// SceneProvider enumerates the scene's platform objects on the enabled
// layers. Called once per orchestrator tick.
type SceneProvider interface {
	EnumerateObjects(ctx context.Context, layerMask uint32) ([]ObjectHandle, error)
}

// ObjectProvider resolves per-object geometry and identity.
type ObjectProvider interface {
	// BoundingRect returns obj's axis-aligned world-space bounding rect.
	BoundingRect(obj ObjectHandle) geom.Rect
	// TopFace returns the object's top long face, and false when the top
	// face is the shorter dimension (a vertical wall) — spec.md §6.
	TopFace(obj ObjectHandle) (geom.Line, bool)
	// Name returns a stable identifier used for edge-name prefixing; the
	// linkers detect the same object by comparing handles, not names.
	Name(obj ObjectHandle) string
}

// ControllerProvider reports which object the host's raycast character
// controller currently has the agent or target standing on, and where that
// character currently is.
type ControllerProvider interface {
	StandingPlatform(who Who) (ObjectHandle, bool)
	Position(who Who) geom.Point
}

// ArcProvider exposes the agent's pre-sampled ballistic arcs. Samples are
// read-only snapshots taken once at the start of the tick (spec.md §5).
type ArcProvider interface {
	JumpArc(dir graph.Direction, anchor geom.Rect) []geom.Rect
	FallArc(dir graph.Direction, anchor geom.Rect) []geom.Rect
	JumpArcBoundingRect(dir graph.Direction) geom.Rect
	FallArcBoundingRect(dir graph.Direction) geom.Rect
}

// SteeringSink receives the orchestrator's only output: the next
// directional input.
type SteeringSink interface {
	SetDirectionalInput(v geom.Point)
}
