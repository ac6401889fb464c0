package generator

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/aretw0/synapse/pkg/domain"
)

// NewRand returns a deterministic random source for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// EntropyRand returns a random source seeded from process entropy.
func EntropyRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// New generates a graph with the default probabilities and weights
// using an entropy-seeded source.
func New(nodes, layers int) (*domain.Graph, error) {
	cfg := DefaultConfig()
	cfg.Nodes = nodes
	cfg.Layers = layers
	return Generate(cfg, EntropyRand())
}

// Generate builds a graph from cfg drawing every random value from rng.
func Generate(cfg Config, rng *rand.Rand) (*domain.Graph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = EntropyRand()
	}

	b := domain.NewGraphBuilder(cfg.Nodes)
	for i := 0; i < cfg.Nodes; i++ {
		b.AddNode(cfg.LayerOf(i))
	}

	if err := addLocalEdges(b, cfg, rng); err != nil {
		return nil, err
	}
	if err := addLongRangeEdges(b, cfg, rng); err != nil {
		return nil, err
	}

	return b.Build(), nil
}

// addLocalEdges considers every ordered pair i<j once and links layer neighbours.
func addLocalEdges(b *domain.GraphBuilder, cfg Config, rng *rand.Rand) error {
	n := b.NodeCount()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if abs(b.Layer(i)-b.Layer(j)) > 1 {
				continue
			}
			if rng.Float64() >= cfg.ConnectionProb {
				continue
			}
			if err := b.AddEdge(i, j, uniform(rng, cfg.LocalWeight), domain.EdgeLocal); err != nil {
				return fmt.Errorf("local edge: %w", err)
			}
		}
	}
	return nil
}

// addLongRangeEdges runs floor(n*p) independent trials. Self picks and
// existing edges are dropped without retrying.
func addLongRangeEdges(b *domain.GraphBuilder, cfg Config, rng *rand.Rand) error {
	n := b.NodeCount()
	if n == 0 {
		return nil
	}
	trials := int(math.Floor(float64(n) * cfg.LongRangeProb))
	for range trials {
		source := rng.IntN(n)
		target := rng.IntN(n)
		if source == target || b.HasEdge(source, target) {
			continue
		}
		if err := b.AddEdge(source, target, uniform(rng, cfg.LongRangeWeight), domain.EdgeLongRange); err != nil {
			return fmt.Errorf("long-range edge: %w", err)
		}
	}
	return nil
}

func uniform(rng *rand.Rand, r WeightRange) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
