package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/synapse/internal/presentation/graph"
)

// ExportGraph writes the published graph as JSON or a Mermaid flowchart.
func ExportGraph(rt *Runtime, format string, out io.Writer) error {
	g := rt.Engine.Graph()

	switch format {
	case FormatMermaid:
		_, err := io.WriteString(out, graph.GenerateMermaid(g, nil))
		return err
	case FormatJSON, "":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			GraphID string `json:"graph_id"`
			Nodes   any    `json:"nodes"`
			Edges   any    `json:"edges"`
		}{g.ID(), g.Nodes(), g.Edges()})
	default:
		return fmt.Errorf("unknown format %q (want json or mermaid)", format)
	}
}
