package http

import (
	"github.com/aretw0/synapse/pkg/analysis"
	"github.com/aretw0/synapse/pkg/domain"
)

// GraphView is the JSON rendering of a graph.
type GraphView struct {
	GraphID string        `json:"graph_id"`
	Nodes   []domain.Node `json:"nodes"`
	Edges   []domain.Edge `json:"edges"`
}

// ProcessRequest is the body of POST /process.
type ProcessRequest struct {
	Input *string `json:"input"`
}

// ProcessResponse carries the topology and, unless bootstrapping, a trace.
type ProcessResponse struct {
	Nodes       []domain.Node `json:"nodes"`
	Edges       []domain.Edge `json:"edges"`
	Propagation domain.Trace  `json:"propagation"`
}

// PropagateRequest is the body of POST /propagate.
type PropagateRequest struct {
	Stimulus *string `json:"stimulus"`
	Summary  bool    `json:"summary"`
}

// PropagateResponse is the result of POST /propagate.
type PropagateResponse struct {
	GraphID     string                 `json:"graph_id"`
	Propagation domain.Trace           `json:"propagation"`
	Summary     []analysis.StepSummary `json:"summary,omitempty"`
	// Delta is the largest change between the last two steps. Set with Summary.
	Delta *float64 `json:"delta,omitempty"`
}

// InfoResponse is the result of GET /info.
type InfoResponse struct {
	App        string `json:"app"`
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
	GraphID    string `json:"graph_id"`
}

func newGraphView(g *domain.Graph) GraphView {
	return GraphView{
		GraphID: g.ID(),
		Nodes:   nonNil(g.Nodes()),
		Edges:   nonNil(g.Edges()),
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
