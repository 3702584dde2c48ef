package geom

import "testing"

func TestRectIntersectsWithIsStrict(t *testing.T) {
	a := Rect{Left: 0, Right: 10, Bottom: 0, Top: 1}
	touching := Rect{Left: 10, Right: 20, Bottom: 0, Top: 1}

	if a.IntersectsWith(touching) {
		t.Fatalf("expected merely-touching rects not to intersect")
	}
	if !a.Inflate(0.01, 0.01).IntersectsWith(touching) {
		t.Fatalf("expected an inflated rect to intersect a touching neighbor")
	}

	overlapping := Rect{Left: 5, Right: 15, Bottom: 0, Top: 1}
	if !a.IntersectsWith(overlapping) {
		t.Fatalf("expected genuinely overlapping rects to intersect")
	}
}

func TestRectSetLocationPreservesSize(t *testing.T) {
	r := Rect{Left: 0, Right: 4, Bottom: 0, Top: 2}

	atBottomLeft := r.SetLocation(AnchorBottomLeft, Point{X: 10, Y: 10})
	if atBottomLeft.Left != 10 || atBottomLeft.Bottom != 10 || atBottomLeft.Width() != 4 || atBottomLeft.Height() != 2 {
		t.Fatalf("expected bottom-left anchor at (10,10) with size 4x2, got %+v", atBottomLeft)
	}

	atTopLeft := r.SetLocation(AnchorTopLeft, Point{X: 10, Y: 10})
	if atTopLeft.Left != 10 || atTopLeft.Top != 10 || atTopLeft.Width() != 4 || atTopLeft.Height() != 2 {
		t.Fatalf("expected top-left anchor at (10,10) with size 4x2, got %+v", atTopLeft)
	}
	if atTopLeft.Bottom != 8 {
		t.Fatalf("expected top-left anchor to extend downward from (10,10), got bottom=%v", atTopLeft.Bottom)
	}
}

func TestRectAboveAndBelowAreComplementaryAtTheGap(t *testing.T) {
	lower := Rect{Left: 0, Right: 10, Bottom: 0, Top: 1}
	upper := Rect{Left: 0, Right: 10, Bottom: 5, Top: 6}

	if !upper.Above(lower) {
		t.Fatalf("expected upper to be Above lower")
	}
	if !lower.Below(upper) {
		t.Fatalf("expected lower to be Below upper")
	}
	if upper.Below(lower) || lower.Above(upper) {
		t.Fatalf("expected the relation not to hold in the reverse direction")
	}
}

func TestPointKeyCollapsesJitteredCoordinates(t *testing.T) {
	a := Point{X: 1.001, Y: 2.002}
	b := Point{X: 1.004, Y: 1.999}

	if Key(a) != Key(b) {
		t.Fatalf("expected points within the rounding grid to share a key: %v vs %v", Key(a), Key(b))
	}

	c := Point{X: 1.1, Y: 2.0}
	if Key(a) == Key(c) {
		t.Fatalf("expected distinguishably different points to have different keys")
	}
}

func TestLineSplitCapsAtTargetLength(t *testing.T) {
	l := NewLine(Point{X: 0, Y: 0}, Point{X: 100, Y: 0})

	segs := l.Split(10, 100)
	for _, s := range segs {
		if s.Length() > 10+Epsilon {
			t.Fatalf("expected every sub-segment to be at most 10 units, got %v", s.Length())
		}
	}

	whole := l.Split(1000, 100)
	if len(whole) != 1 {
		t.Fatalf("expected a segment shorter than the target to come back unsplit, got %d pieces", len(whole))
	}
}

func TestLineDistanceClampsToNearestEndpoint(t *testing.T) {
	l := NewLine(Point{X: 0, Y: 0}, Point{X: 10, Y: 0})

	beyondEnd := Point{X: 15, Y: 0}
	if got, want := l.Distance(beyondEnd), 5.0; got != want {
		t.Fatalf("expected distance %v clamped to End, got %v", want, got)
	}

	overMidpoint := Point{X: 5, Y: 3}
	if got, want := l.Distance(overMidpoint), 3.0; got != want {
		t.Fatalf("expected perpendicular distance %v, got %v", want, got)
	}
}

func TestNewLinePanicsOnDegenerateEndpoints(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected NewLine to panic on coincident endpoints")
		}
	}()
	NewLine(Point{X: 1, Y: 1}, Point{X: 1, Y: 1})
}
