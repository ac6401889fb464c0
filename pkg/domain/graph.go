package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type inbound struct {
	source int
	weight float64
}

type edgeKey struct {
	source, target int
}

// Graph is an immutable directed, weighted, layered graph.
// A Graph can only be obtained from GraphBuilder.Build and is safe for concurrent reads.
type Graph struct {
	id       string
	nodes    []Node
	edges    []Edge
	incoming [][]inbound
	index    map[edgeKey]int
}

// ID returns the unique identifier assigned when the graph was built.
func (g *Graph) ID() string {
	if g == nil {
		return ""
	}
	return g.id
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	if g == nil {
		return 0
	}
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	if g == nil {
		return 0
	}
	return len(g.edges)
}

// Nodes returns a copy of the node list ordered by ID.
func (g *Graph) Nodes() []Node {
	if g == nil {
		return []Node{}
	}
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns a copy of the edge list in insertion order.
func (g *Graph) Edges() []Edge {
	if g == nil {
		return []Edge{}
	}
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Layer returns the layer of node id. It panics if id is out of range.
func (g *Graph) Layer(id int) int {
	return g.nodes[id].Layer
}

// HasEdge reports whether the edge source -> target exists.
func (g *Graph) HasEdge(source, target int) bool {
	if g == nil {
		return false
	}
	_, ok := g.index[edgeKey{source, target}]
	return ok
}

// InDegree returns the number of edges pointing into id.
func (g *Graph) InDegree(id int) int {
	return len(g.incoming[id])
}

// EachPredecessor calls fn for every edge pointing into id, in insertion order.
func (g *Graph) EachPredecessor(id int, fn func(source int, weight float64)) {
	for _, in := range g.incoming[id] {
		fn(in.source, in.weight)
	}
}

// GraphBuilder assembles a Graph. It is not safe for concurrent use and
// rejects every mutation once Build has been called.
type GraphBuilder struct {
	g     *Graph
	built bool
}

// NewGraphBuilder creates a builder with capacity for n nodes.
func NewGraphBuilder(n int) *GraphBuilder {
	if n < 0 {
		n = 0
	}
	return &GraphBuilder{
		g: &Graph{
			nodes:    make([]Node, 0, n),
			incoming: make([][]inbound, 0, n),
			index:    make(map[edgeKey]int),
		},
	}
}

// AddNode appends a node with the next free ID and returns that ID.
func (b *GraphBuilder) AddNode(layer int) int {
	if b.built {
		panic("domain: AddNode on a built graph")
	}
	id := len(b.g.nodes)
	b.g.nodes = append(b.g.nodes, Node{ID: id, Layer: layer})
	b.g.incoming = append(b.g.incoming, nil)
	return id
}

// NodeCount returns the number of nodes added so far.
func (b *GraphBuilder) NodeCount() int {
	return len(b.g.nodes)
}

// Layer returns the layer of an already added node.
func (b *GraphBuilder) Layer(id int) int {
	return b.g.nodes[id].Layer
}

// HasEdge reports whether source -> target was already added.
func (b *GraphBuilder) HasEdge(source, target int) bool {
	return b.g.HasEdge(source, target)
}

// AddEdge adds source -> target. Self loops, duplicates and unknown nodes are rejected.
func (b *GraphBuilder) AddEdge(source, target int, weight float64, kind EdgeKind) error {
	if b.built {
		return fmt.Errorf("add edge %d->%d: graph already built", source, target)
	}
	n := len(b.g.nodes)
	if source < 0 || source >= n || target < 0 || target >= n {
		return fmt.Errorf("add edge %d->%d: node out of range [0,%d)", source, target, n)
	}
	if source == target {
		return fmt.Errorf("add edge %d->%d: self loop", source, target)
	}
	key := edgeKey{source, target}
	if _, ok := b.g.index[key]; ok {
		return fmt.Errorf("add edge %d->%d: duplicate edge", source, target)
	}
	b.g.index[key] = len(b.g.edges)
	b.g.edges = append(b.g.edges, Edge{Source: source, Target: target, Weight: weight, Kind: kind})
	b.g.incoming[target] = append(b.g.incoming[target], inbound{source: source, weight: weight})
	return nil
}

// Build seals the builder and returns the finished Graph.
func (b *GraphBuilder) Build() *Graph {
	if !b.built {
		b.built = true
		b.g.id = uuid.NewString()
	}
	return b.g
}
