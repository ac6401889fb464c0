package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/synapse/pkg/analysis"
)

// TraceMarkdown renders per-step statistics as a markdown report.
func TraceMarkdown(graphID, stimulus string, summaries []analysis.StepSummary) string {
	var sb strings.Builder
	sb.WriteString("# Propagation\n\n")
	fmt.Fprintf(&sb, "- **Graph:** `%s`\n", graphID)
	fmt.Fprintf(&sb, "- **Stimulus:** `%s`\n", strings.ReplaceAll(stimulus, "`", "'"))
	fmt.Fprintf(&sb, "- **Steps:** %d\n\n", len(summaries))

	if len(summaries) == 0 {
		sb.WriteString("_No steps were run._\n")
		return sb.String()
	}

	sb.WriteString("| Step | Mean | Std Dev | Min | Max | Active |\n")
	sb.WriteString("|---:|---:|---:|---:|---:|---:|\n")
	for _, s := range summaries {
		fmt.Fprintf(&sb, "| %d | %.4f | %.4f | %.4f | %.4f | %d |\n",
			s.Step, s.Mean, s.StdDev, s.Min, s.Max, s.Active)
	}
	return sb.String()
}
