package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/synapse/pkg/domain"
)

// ActivationOverlay highlights nodes of one snapshot on the graph.
type ActivationOverlay struct {
	Snapshot  domain.Snapshot
	Threshold float64
}

// GenerateMermaid produces a Mermaid flowchart of the graph topology.
// Nodes are grouped in one subgraph per layer:
// - Local edges: solid arrow labelled with the weight
// - Long-range edges: dotted arrow labelled with the weight
// Nodes above the overlay threshold are styled as active.
func GenerateMermaid(g *domain.Graph, overlay *ActivationOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	byLayer := make(map[int][]domain.Node)
	for _, node := range g.Nodes() {
		byLayer[node.Layer] = append(byLayer[node.Layer], node)
	}
	layers := make([]int, 0, len(byLayer))
	for layer := range byLayer {
		layers = append(layers, layer)
	}
	sort.Ints(layers)

	for _, layer := range layers {
		fmt.Fprintf(&sb, "    subgraph L%d[\"layer %d\"]\n", layer, layer)
		for _, node := range byLayer[layer] {
			fmt.Fprintf(&sb, "        %s[\"%d\"]\n", nodeID(node.ID), node.ID)
		}
		sb.WriteString("    end\n")
	}

	for _, edge := range g.Edges() {
		arrow := fmt.Sprintf("-- \"%.2f\" -->", edge.Weight)
		if edge.Kind == domain.EdgeLongRange {
			arrow = fmt.Sprintf("-. \"%.2f\" .->", edge.Weight)
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", nodeID(edge.Source), arrow, nodeID(edge.Target))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Activation Overlay\n")
		// Force black text (color:#000) for contrast regardless of theme
		sb.WriteString("    classDef active fill:#ffeb3b,stroke:#fbc02d,stroke-width:3px,color:#000;\n")
		for _, a := range overlay.Snapshot {
			if a.Value > overlay.Threshold {
				fmt.Fprintf(&sb, "    class %s active;\n", nodeID(a.ID))
			}
		}
	}

	return sb.String()
}

func nodeID(id int) string {
	return fmt.Sprintf("n%d", id)
}
