// Package propagation runs synchronous activation propagation over a domain.Graph.
// Each step squashes the weighted sum of a node's predecessors through a logistic
// function. Nodes without predecessors carry their value forward unchanged.
package propagation

import (
	"math"

	"github.com/aretw0/synapse/pkg/domain"
)

// Config holds the tunable parameters of the engine.
type Config struct {
	// Steps is the number of propagation iterations and the trace length. Default: 10.
	Steps int `json:"steps" yaml:"steps" mapstructure:"steps"`
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{Steps: 10}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Steps < 0 {
		return &domain.ConfigError{Field: "steps", Reason: "must not be negative", Value: c.Steps}
	}
	return nil
}

// Engine runs propagation. It holds no per-run state and is safe for concurrent use.
type Engine struct {
	config Config
}

// NewEngine creates an engine after validating cfg.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{config: cfg}, nil
}

// Steps returns the configured trace length.
func (e *Engine) Steps() int {
	return e.config.Steps
}

// Propagate runs the default engine over g.
func Propagate(g *domain.Graph, stimulus string) domain.Trace {
	e := &Engine{config: DefaultConfig()}
	return e.Run(g, stimulus)
}

// Seed returns the initial activation of every node for stimulus.
// Character i (counted in code points) seeds node i with codepoint/255; the value
// is not squashed and can exceed 1. Characters past the node count are ignored.
func Seed(g *domain.Graph, stimulus string) []float64 {
	n := g.NodeCount()
	values := make([]float64, n)
	i := 0
	for _, r := range stimulus {
		if i >= n {
			break
		}
		values[i] = float64(r) / domain.CodePointScale
		i++
	}
	return values
}

// Run propagates stimulus through g and returns one snapshot per step.
// The graph is only read.
func (e *Engine) Run(g *domain.Graph, stimulus string) domain.Trace {
	n := g.NodeCount()
	current := Seed(g, stimulus)
	next := make([]float64, n)

	trace := make(domain.Trace, 0, e.config.Steps)
	for step := 0; step < e.config.Steps; step++ {
		for node := 0; node < n; node++ {
			next[node] = update(g, current, node)
		}
		trace = append(trace, snapshot(next))
		// Double buffering keeps every read within a step on the previous state.
		current, next = next, current
	}
	return trace
}

func update(g *domain.Graph, current []float64, node int) float64 {
	if g.InDegree(node) == 0 {
		return current[node]
	}
	var sum float64
	g.EachPredecessor(node, func(source int, weight float64) {
		sum += current[source] * weight
	})
	return sigmoid(sum)
}

func snapshot(values []float64) domain.Snapshot {
	s := make(domain.Snapshot, len(values))
	for id, v := range values {
		s[id] = domain.Activation{ID: id, Value: v}
	}
	return s
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
