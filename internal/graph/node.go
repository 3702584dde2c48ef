package graph

import "platrace/internal/geom"

// NodeKey is a node's identity: the point key of its location.
type NodeKey = uint64

// Node is a graph vertex. Two nodes are equal iff their Key matches; a
// single Node instance is shared by every Link that meets at that point.
type Node struct {
	Name     string
	Location geom.Point
	Key      NodeKey
	Edges    []*Link
}

func newNode(name string, loc geom.Point) *Node {
	return &Node{Name: name, Location: loc, Key: geom.Key(loc)}
}

// addEdge appends e to the node's adjacency list if not already present.
func (n *Node) addEdge(e *Link) {
	for _, existing := range n.Edges {
		if existing == e {
			return
		}
	}
	n.Edges = append(n.Edges, e)
}

// removeEdge detaches e from the node's adjacency list.
func (n *Node) removeEdge(e *Link) {
	for i, existing := range n.Edges {
		if existing == e {
			n.Edges = append(n.Edges[:i], n.Edges[i+1:]...)
			return
		}
	}
}
