// Package geom implements the axis-aligned geometry primitives the
// traversal graph and spatial index are built on: points, line segments and
// rectangles, plus the stable point keying used for graph node identity.
package geom

import (
	"fmt"
	"hash/fnv"
	"math"
)

// Epsilon is the distance below which two coordinates are considered equal.
const Epsilon = 1e-3

// Point is a 2D coordinate in world space.
type Point struct {
	X, Y float64
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Equal reports whether p and q coincide within Epsilon.
func (p Point) Equal(q Point) bool {
	return math.Abs(p.X-q.X) < Epsilon && math.Abs(p.Y-q.Y) < Epsilon
}

// Key returns a stable identity for p, derived from its coordinates rounded
// to two decimals. Points within the 0.01-unit grid collapse to the same
// key, which is what lets slightly-jittered geometry still share graph
// nodes.
func Key(p Point) uint64 {
	canon := fmt.Sprintf("%.2f,%.2f", p.X, p.Y)
	h := fnv.New64a()
	_, _ = h.Write([]byte(canon))
	return h.Sum64()
}
