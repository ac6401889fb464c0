package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/synapse/internal/presentation/tui"
	"github.com/aretw0/synapse/pkg/analysis"
	"github.com/aretw0/synapse/pkg/stimulus"
	"github.com/muesli/termenv"
)

// Output formats for the propagate command.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatMermaid  = "mermaid"
)

// PropagateOptions controls how a trace is printed.
type PropagateOptions struct {
	Format string
	// Color enables ANSI colors in text output.
	Color bool
}

type propagateOutput struct {
	GraphID     string                 `json:"graph_id"`
	Stimulus    string                 `json:"stimulus"`
	Propagation any                    `json:"propagation"`
	Summary     []analysis.StepSummary `json:"summary"`
	Delta       float64                `json:"delta"`
}

// Propagate runs input through the engine and writes the trace to out.
func Propagate(ctx context.Context, rt *Runtime, input string, opts PropagateOptions, out io.Writer) error {
	clean, err := stimulus.Sanitize(input, rt.Config.Stimulus.MaxSize)
	if err != nil {
		return err
	}

	graphID := rt.Engine.Graph().ID()
	trace, err := rt.Engine.Propagate(ctx, clean)
	if err != nil {
		return fmt.Errorf("propagate: %w", err)
	}
	summaries := analysis.Summarize(trace, analysis.DefaultThreshold)

	switch opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(propagateOutput{
			GraphID:     graphID,
			Stimulus:    clean,
			Propagation: trace,
			Summary:     summaries,
			Delta:       analysis.Delta(trace),
		})

	case FormatMarkdown:
		md := tui.TraceMarkdown(graphID, clean, summaries)
		if opts.Color {
			rendered, err := tui.NewRenderer()(md)
			if err == nil {
				md = rendered
			}
		}
		_, err := io.WriteString(out, md)
		return err

	case FormatText, "":
		profile := termenv.Ascii
		if opts.Color {
			profile = termenv.ColorProfile()
		}
		if _, err := io.WriteString(out, tui.RenderHeat(trace, profile)); err != nil {
			return err
		}
		for _, s := range summaries {
			fmt.Fprintf(out, "step %2d  mean=%.4f  std=%.4f  min=%.4f  max=%.4f  active=%d\n",
				s.Step, s.Mean, s.StdDev, s.Min, s.Max, s.Active)
		}
		if len(trace) > 1 {
			fmt.Fprintf(out, "delta    %.4f\n", analysis.Delta(trace))
		}
		return nil

	default:
		return fmt.Errorf("unknown format %q (want text, json or markdown)", opts.Format)
	}
}
