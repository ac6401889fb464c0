package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Synapse ASCII art banner to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"   ____                              ", "#818cf8"},
		{"  / ___| _   _ _ __   __ _ _ __  ___  ___ ", "#a78bfa"},
		{"  \\___ \\| | | | '_ \\ / _` | '_ \\/ __|/ _ \\", "#c084fc"},
		{"   ___) | |_| | | | | (_| | |_) \\__ \\  __/", "#e879f9"},
		{"  |____/ \\__, |_| |_|\\__,_| .__/|___/\\___|", "#f472b6"},
		{"         |___/            |_|             ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintf(w, "  %s\n\n", termenv.String("v"+version).Faint())
}
