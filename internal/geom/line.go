package geom

import "math"

// Line is a directed 2D segment. Start must differ from End by more than
// Epsilon; degenerate lines are a construction error in every caller in
// this module.
type Line struct {
	Start, End Point
}

// NewLine builds a Line, panicking if the endpoints coincide. Callers that
// derive lines from live scene geometry should check length first instead
// of relying on the panic.
func NewLine(start, end Point) Line {
	if start.Equal(end) {
		panic("geom: degenerate line, Start and End coincide")
	}
	return Line{Start: start, End: end}
}

// Delta returns End-Start.
func (l Line) Delta() Point {
	return l.End.Sub(l.Start)
}

// Length returns the Euclidean length of the segment.
func (l Line) Length() float64 {
	return l.Start.Distance(l.End)
}

// Unit returns the unit vector along Start->End.
func (l Line) Unit() Point {
	d := l.Delta()
	length := l.Length()
	if length == 0 {
		return Point{}
	}
	return Point{X: d.X / length, Y: d.Y / length}
}

// Normal returns the unit vector perpendicular to the segment.
func (l Line) Normal() Point {
	u := l.Unit()
	return Point{X: -u.Y, Y: u.X}
}

// MinX, MaxX, MinY, MaxY return the segment's axis-aligned extent.
func (l Line) MinX() float64 { return math.Min(l.Start.X, l.End.X) }
func (l Line) MaxX() float64 { return math.Max(l.Start.X, l.End.X) }
func (l Line) MinY() float64 { return math.Min(l.Start.Y, l.End.Y) }
func (l Line) MaxY() float64 { return math.Max(l.Start.Y, l.End.Y) }

// IsHorizontal reports whether the segment's Y extent is within Epsilon,
// i.e. it runs (close to) parallel to the X axis.
func (l Line) IsHorizontal() bool {
	return math.Abs(l.Start.Y-l.End.Y) < Epsilon
}

// IsVertical reports whether the segment runs (close to) parallel to the Y
// axis.
func (l Line) IsVertical() bool {
	return math.Abs(l.Start.X-l.End.X) < Epsilon
}

// Slope returns the line's slope, or +Inf for a vertical line.
func (l Line) Slope() float64 {
	dx := l.End.X - l.Start.X
	if math.Abs(dx) < Epsilon {
		return math.Inf(1)
	}
	return (l.End.Y - l.Start.Y) / dx
}

// Intercept returns the line's y-intercept (y = slope*x + intercept),
// undefined (0) for a vertical line.
func (l Line) Intercept() float64 {
	if l.IsVertical() {
		return 0
	}
	return l.Start.Y - l.Slope()*l.Start.X
}

// Centroid returns the segment's midpoint, used by the A* heuristic.
func (l Line) Centroid() Point {
	return Point{X: (l.Start.X + l.End.X) / 2, Y: (l.Start.Y + l.End.Y) / 2}
}

// LeftPoint and RightPoint return the endpoint with the smaller/larger X.
func (l Line) LeftPoint() Point {
	if l.Start.X <= l.End.X {
		return l.Start
	}
	return l.End
}

func (l Line) RightPoint() Point {
	if l.Start.X >= l.End.X {
		return l.Start
	}
	return l.End
}

// Bounds returns the Rect tightly enclosing the segment.
func (l Line) Bounds() Rect {
	return Rect{
		Left: l.MinX(), Right: l.MaxX(),
		Bottom: l.MinY(), Top: l.MaxY(),
	}
}

// Distance returns the perpendicular distance from p to the segment,
// clamped to the distance to the nearest endpoint when the foot of the
// perpendicular falls outside [Start,End].
func (l Line) Distance(p Point) float64 {
	d := l.Delta()
	lenSq := d.X*d.X + d.Y*d.Y
	if lenSq < Epsilon*Epsilon {
		return l.Start.Distance(p)
	}

	t := ((p.X-l.Start.X)*d.X + (p.Y-l.Start.Y)*d.Y) / lenSq
	if t < 0 {
		return l.Start.Distance(p)
	}
	if t > 1 {
		return l.End.Distance(p)
	}

	proj := Point{X: l.Start.X + t*d.X, Y: l.Start.Y + t*d.Y}
	return proj.Distance(p)
}

// Split divides the segment into equal colinear sub-segments so that every
// sub-segment's length is at most targetLength. It returns []Line{l}
// unchanged when l is already shorter than targetLength. The segment count
// doubles until it satisfies the target, capped at maxSegments.
func (l Line) Split(targetLength float64, maxSegments int) []Line {
	length := l.Length()
	if length < targetLength || targetLength <= 0 {
		return []Line{l}
	}
	if maxSegments <= 0 {
		maxSegments = 100
	}

	n := 2
	for {
		sub := length / float64(n)
		if sub*sub <= targetLength*targetLength || n >= maxSegments {
			break
		}
		n *= 2
	}
	if n > maxSegments {
		n = maxSegments
	}

	segments := make([]Line, 0, n)
	d := l.Delta()
	for i := 0; i < n; i++ {
		t0 := float64(i) / float64(n)
		t1 := float64(i+1) / float64(n)
		start := Point{X: l.Start.X + d.X*t0, Y: l.Start.Y + d.Y*t0}
		end := Point{X: l.Start.X + d.X*t1, Y: l.Start.Y + d.Y*t1}
		segments = append(segments, Line{Start: start, End: end})
	}
	return segments
}

// OverlapsOnAxis reports whether l and other share any extent on the given
// axis. The linkers' sample-over-platform check uses
// Rect.OverlapsLineOnAxis instead.
func (l Line) OverlapsOnAxis(other Line, axis Axis) bool {
	if axis == Horizontal {
		return l.MinX() < other.MaxX() && l.MaxX() > other.MinX()
	}
	return l.MinY() < other.MaxY() && l.MaxY() > other.MinY()
}
