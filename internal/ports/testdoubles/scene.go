// Package testdoubles implements every interface in internal/ports against
// plain in-memory state, the way the teacher's scene.Manager (RWMutex-
// guarded maps keyed by a monotonically increasing ID) and
// collision.Detector (query candidates, then a precise check) do, so the
// spec's end-to-end scenarios run as ordinary Go tests without a host game
// engine attached.
package testdoubles

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"platrace/internal/geom"
	"platrace/internal/graph"
	"platrace/internal/ports"
)

// Platform is one rectangular platform in the in-memory scene.
type Platform struct {
	Handle ports.ObjectHandle
	Name   string
	Rect   geom.Rect
}

// Scene is an in-memory ports.SceneProvider and ports.ObjectProvider.
type Scene struct {
	mu        sync.RWMutex
	platforms map[ports.ObjectHandle]*Platform
	nextID    uint64
}

// NewScene returns an empty scene.
func NewScene() *Scene {
	return &Scene{platforms: make(map[ports.ObjectHandle]*Platform)}
}

// AddPlatform registers a new platform and returns its handle.
func (s *Scene) AddPlatform(name string, rect geom.Rect) ports.ObjectHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := atomic.AddUint64(&s.nextID, 1)
	h := ports.ObjectHandle{ID: id}
	s.platforms[h] = &Platform{Handle: h, Name: name, Rect: rect}
	return h
}

// RemovePlatform deletes a platform from the scene.
func (s *Scene) RemovePlatform(h ports.ObjectHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.platforms, h)
}

// MovePlatform updates a platform's bounding rectangle in place, keeping
// its handle and name — this is what spec.md §4.6's "modify" diff bucket
// observes between ticks.
func (s *Scene) MovePlatform(h ports.ObjectHandle, rect geom.Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.platforms[h]; ok {
		p.Rect = rect
	}
}

// EnumerateObjects implements ports.SceneProvider.
func (s *Scene) EnumerateObjects(ctx context.Context, layerMask uint32) ([]ports.ObjectHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ports.ObjectHandle, 0, len(s.platforms))
	for h := range s.platforms {
		out = append(out, h)
	}
	return out, nil
}

// BoundingRect implements ports.ObjectProvider.
func (s *Scene) BoundingRect(obj ports.ObjectHandle) geom.Rect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.platforms[obj]
	if !ok {
		return geom.Rect{}
	}
	return p.Rect
}

// TopFace implements ports.ObjectProvider: it returns the rectangle's top
// edge, or false when the rect is at least as tall as it is wide (a vertical
// wall's "top" is its shorter dimension, per spec.md §6).
func (s *Scene) TopFace(obj ports.ObjectHandle) (geom.Line, bool) {
	r := s.BoundingRect(obj)
	if r.Height() >= r.Width() {
		return geom.Line{}, false
	}
	return geom.Line{
		Start: geom.Point{X: r.Left, Y: r.Top},
		End:   geom.Point{X: r.Right, Y: r.Top},
	}, true
}

// Name implements ports.ObjectProvider.
func (s *Scene) Name(obj ports.ObjectHandle) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.platforms[obj]; ok {
		return p.Name
	}
	return fmt.Sprintf("platform#%d", obj.ID)
}

// snapshot returns every platform, for the controller's raycast.
func (s *Scene) snapshot() []*Platform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Platform, 0, len(s.platforms))
	for _, p := range s.platforms {
		out = append(out, p)
	}
	return out
}

// Controller is an in-memory ports.ControllerProvider: it raycasts
// straight down from each character's tracked position and reports the
// nearest platform whose horizontal span contains the ray, mirroring the
// teacher's collision.Detector candidate-then-precise-check shape.
type Controller struct {
	mu       sync.RWMutex
	scene    *Scene
	agentPos geom.Point
	targetPos geom.Point
}

// NewController returns a Controller watching scene.
func NewController(scene *Scene) *Controller {
	return &Controller{scene: scene}
}

// SetAgentPosition updates the position the controller raycasts down from
// for ports.Agent.
func (c *Controller) SetAgentPosition(p geom.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.agentPos = p
}

// SetTargetPosition updates the position the controller raycasts down from
// for ports.Target.
func (c *Controller) SetTargetPosition(p geom.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targetPos = p
}

// Position implements ports.ControllerProvider.
func (c *Controller) Position(who ports.Who) geom.Point {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if who == ports.Target {
		return c.targetPos
	}
	return c.agentPos
}

// StandingPlatform implements ports.ControllerProvider.
func (c *Controller) StandingPlatform(who ports.Who) (ports.ObjectHandle, bool) {
	c.mu.RLock()
	pos := c.agentPos
	if who == ports.Target {
		pos = c.targetPos
	}
	c.mu.RUnlock()

	var best *Platform
	bestGap := 0.0
	for _, p := range c.scene.snapshot() {
		if pos.X < p.Rect.Left || pos.X > p.Rect.Right {
			continue
		}
		if p.Rect.Top > pos.Y+geom.Epsilon {
			continue // platform is above the character, can't be standing on it
		}
		gap := pos.Y - p.Rect.Top
		if best == nil || gap < bestGap {
			best, bestGap = p, gap
		}
	}
	if best == nil {
		return ports.ObjectHandle{}, false
	}
	return best.Handle, true
}

// StaticArcs is an in-memory ports.ArcProvider returning a fixed set of
// sample rectangles per direction, set up once by the test or example that
// constructs it.
type StaticArcs struct {
	JumpSamples map[graph.Direction][]geom.Rect
	FallSamples map[graph.Direction][]geom.Rect
}

// NewStaticArcs returns an ArcProvider with empty sample sets; callers
// populate JumpSamples/FallSamples directly.
func NewStaticArcs() *StaticArcs {
	return &StaticArcs{
		JumpSamples: make(map[graph.Direction][]geom.Rect),
		FallSamples: make(map[graph.Direction][]geom.Rect),
	}
}

func (a *StaticArcs) JumpArc(dir graph.Direction, anchor geom.Rect) []geom.Rect {
	return translateSamples(a.JumpSamples[dir], anchor)
}

func (a *StaticArcs) FallArc(dir graph.Direction, anchor geom.Rect) []geom.Rect {
	return translateSamples(a.FallSamples[dir], anchor)
}

func (a *StaticArcs) JumpArcBoundingRect(dir graph.Direction) geom.Rect {
	return boundingOf(a.JumpSamples[dir])
}

func (a *StaticArcs) FallArcBoundingRect(dir graph.Direction) geom.Rect {
	return boundingOf(a.FallSamples[dir])
}

// translateSamples re-anchors template samples (authored relative to the
// origin) by offsetting them onto anchor's bottom-left corner.
func translateSamples(templates []geom.Rect, anchor geom.Rect) []geom.Rect {
	out := make([]geom.Rect, len(templates))
	for i, t := range templates {
		out[i] = geom.Rect{
			Left:   anchor.Left + t.Left,
			Right:  anchor.Left + t.Right,
			Bottom: anchor.Bottom + t.Bottom,
			Top:    anchor.Bottom + t.Top,
		}
	}
	return out
}

func boundingOf(rects []geom.Rect) geom.Rect {
	if len(rects) == 0 {
		return geom.Rect{}
	}
	bounds := rects[0]
	for _, r := range rects[1:] {
		bounds = bounds.Merge(r)
	}
	return bounds
}

// SteeringRecorder is an in-memory ports.SteeringSink that remembers the
// last value it was given.
type SteeringRecorder struct {
	mu   sync.RWMutex
	last geom.Point
}

func (s *SteeringRecorder) SetDirectionalInput(v geom.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = v
}

// Last returns the most recently recorded steering input.
func (s *SteeringRecorder) Last() geom.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}
