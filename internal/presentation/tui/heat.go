package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/synapse/pkg/domain"
	"github.com/muesli/termenv"
)

// shades maps activation to a glyph so the strip stays readable without color.
var shades = []rune{' ', '░', '▒', '▓', '█'}

// heatColors runs from cold to hot.
var heatColors = []string{"#1e3a8a", "#2563eb", "#06b6d4", "#facc15", "#f97316", "#ef4444"}

// RenderHeat renders one line per step with one cell per node.
// Values are clamped to [0, 1] for display.
func RenderHeat(trace domain.Trace, profile termenv.Profile) string {
	var sb strings.Builder
	for step, snap := range trace {
		fmt.Fprintf(&sb, "step %2d │", step+1)
		for _, a := range snap {
			v := clamp(a.Value)
			cell := string(shade(v))
			if profile != termenv.Ascii {
				cell = termenv.String(cell).Foreground(profile.Color(heatColor(v))).String()
			}
			sb.WriteString(cell)
		}
		sb.WriteString("│\n")
	}
	return sb.String()
}

func shade(v float64) rune {
	i := int(v * float64(len(shades)))
	if i >= len(shades) {
		i = len(shades) - 1
	}
	return shades[i]
}

func heatColor(v float64) string {
	i := int(v * float64(len(heatColors)))
	if i >= len(heatColors) {
		i = len(heatColors) - 1
	}
	return heatColors[i]
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
