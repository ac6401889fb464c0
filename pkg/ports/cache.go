package ports

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/aretw0/synapse/pkg/domain"
)

// TraceKey identifies a cached trace.
type TraceKey struct {
	GraphID  string
	Steps    int
	Stimulus string
}

// String renders the key as "<graph>:<steps>:<sha256(stimulus)>".
// Keys for one graph share the "<graph>:" prefix.
func (k TraceKey) String() string {
	sum := sha256.Sum256([]byte(k.Stimulus))
	return fmt.Sprintf("%s:%d:%s", k.GraphID, k.Steps, hex.EncodeToString(sum[:]))
}

// TraceCache stores traces computed for a graph.
// Traces are only valid for the graph that produced them, so entries are
// namespaced by graph ID and dropped when the graph is replaced.
type TraceCache interface {
	// Get returns a trace owned by the caller.
	// Returns domain.ErrTraceNotFound on a miss.
	Get(ctx context.Context, key TraceKey) (domain.Trace, error)

	// Put stores a copy of trace.
	Put(ctx context.Context, key TraceKey, trace domain.Trace) error

	// Invalidate removes every entry belonging to graphID.
	Invalidate(ctx context.Context, graphID string) error
}
