package ports

import (
	"context"

	"github.com/aretw0/synapse/pkg/domain"
)

// Engine is the contract transport shells depend on.
type Engine interface {
	// Graph returns the currently published graph. The value is immutable.
	Graph() *domain.Graph

	// Propagate runs the stimulus through the current graph.
	Propagate(ctx context.Context, stimulus string) (domain.Trace, error)

	// Regenerate builds and publishes a new graph.
	Regenerate(ctx context.Context) (*domain.Graph, error)
}
