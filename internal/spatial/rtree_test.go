package spatial

import (
	"testing"

	"platrace/internal/geom"
)

func rect(left, bottom, right, top float64) geom.Rect {
	return geom.Rect{Left: left, Bottom: bottom, Right: right, Top: top}
}

func TestRtreeBasicOperations(t *testing.T) {
	tree := New(DefaultMaxEntries, 0, 0, 0)

	tree.Insert(1, rect(9, 9, 11, 11), "a", geom.Line{})

	results := tree.Find(rect(5, 5, 15, 15))
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Key != 1 {
		t.Fatalf("expected key 1, got %d", results[0].Key)
	}

	if !tree.Remove(1) {
		t.Fatalf("expected remove to succeed")
	}
	if got := len(tree.Find(rect(5, 5, 15, 15))); got != 0 {
		t.Fatalf("expected 0 results after removal, got %d", got)
	}
}

func TestRtreeQueryCompleteness(t *testing.T) {
	tree := New(DefaultMaxEntries, 0, 0, 0)
	for i := 0; i < 6; i++ {
		x := float64(i)
		tree.Insert(uint64(i), rect(x, 0, x+1, 1), i, geom.Line{})
	}

	// query crossing all six rectangles
	results := tree.Find(rect(0.5, 0.5, 5.5, 0.5))
	seen := map[uint64]bool{}
	for _, it := range results {
		seen[it.Key] = true
	}
	for i := 0; i < 6; i++ {
		if !seen[uint64(i)] {
			t.Fatalf("expected key %d to be found, missing from %v", i, results)
		}
	}
}

// TestRtreeSplitsOnSixthInsert exercises invariant E5 from spec.md §8: six
// disjoint unit rectangles with MaxEntries=5 force exactly one split, and
// the union of both resulting leaves must cover every item.
func TestRtreeSplitsOnSixthInsert(t *testing.T) {
	tree := New(5, 0, 0, 0)
	for i := 0; i < 6; i++ {
		x := float64(i)
		tree.Insert(uint64(i), rect(x, 0, x+1, 1), i, geom.Line{})
	}

	if tree.root.leaf {
		t.Fatalf("expected root to be a branch after the 6th insert")
	}
	if len(tree.root.children) != 2 {
		t.Fatalf("expected exactly 2 leaves, got %d", len(tree.root.children))
	}

	union := tree.root.children[0].bounds.Merge(tree.root.children[1].bounds)
	if union.Left > 0 || union.Right < 6 {
		t.Fatalf("union bounds %v do not cover all six items", union)
	}

	for _, c := range tree.root.children {
		n := len(c.items)
		if n < tree.minEntries || n > tree.maxEntries {
			t.Fatalf("leaf has %d entries, outside [%d,%d]", n, tree.minEntries, tree.maxEntries)
		}
	}
}

func TestRtreeBoundingCoverInvariant(t *testing.T) {
	tree := New(3, 0, 0, 0)
	for i := 0; i < 20; i++ {
		x := float64(i)
		tree.Insert(uint64(i), rect(x, 0, x+1, 1), i, geom.Line{})
	}

	var walk func(n *node) geom.Rect
	walk = func(n *node) geom.Rect {
		if n.leaf {
			got := unionOfItems(n.items)
			if got != n.bounds {
				t.Fatalf("leaf bounds %v != union of items %v", n.bounds, got)
			}
			return n.bounds
		}
		got := unionOfChildren(n.children)
		if got != n.bounds {
			t.Fatalf("branch bounds %v != union of children %v", n.bounds, got)
		}
		for _, c := range n.children {
			walk(c)
		}
		return n.bounds
	}
	walk(tree.root)
}

func TestRtreeClear(t *testing.T) {
	tree := New(DefaultMaxEntries, 0, 0, 0)
	tree.Insert(1, rect(0, 0, 1, 1), nil, geom.Line{})
	tree.Clear()
	if tree.Len() != 0 {
		t.Fatalf("expected empty tree after Clear")
	}
	if len(tree.Find(rect(0, 0, 1, 1))) != 0 {
		t.Fatalf("expected no results after Clear")
	}
}
