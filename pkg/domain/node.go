package domain

// EdgeKind records which generation phase produced an edge.
type EdgeKind string

const (
	// EdgeLocal connects nodes in the same or adjacent layers.
	EdgeLocal EdgeKind = "local"
	// EdgeLongRange is a sparse connection drawn without regard to layers.
	EdgeLongRange EdgeKind = "long_range"
)

// Node represents a single neuron in the graph.
type Node struct {
	ID    int `json:"id" yaml:"id"`
	Layer int `json:"layer" yaml:"layer"`
}

// Edge represents a weighted connection from Source to Target.
type Edge struct {
	Source int      `json:"source" yaml:"source"`
	Target int      `json:"target" yaml:"target"`
	Weight float64  `json:"weight" yaml:"weight"`
	Kind   EdgeKind `json:"kind,omitempty" yaml:"kind,omitempty"`
}
