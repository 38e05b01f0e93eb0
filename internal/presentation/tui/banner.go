package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the canopy banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	// Green gradient, top of the canopy to the trunk
	lines := []struct{ text, color string }{
		{"   ___ __ _ _ __   ___  _ __  _   _ ", "#bbf7d0"},
		{"  / __/ _` | '_ \\ / _ \\| '_ \\| | | |", "#86efac"},
		{" | (_| (_| | | | | (_) | |_) | |_| |", "#4ade80"},
		{"  \\___\\__,_|_| |_|\\___/| .__/ \\__, |", "#22c55e"},
		{"                       |_|    |___/ ", "#16a34a"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, termenv.String("  v"+v).Faint())
	}
	fmt.Fprintln(w)
}
