package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Chatter ASCII banner to w using the terminal's color profile.
func PrintBanner(w io.Writer, profile termenv.Profile) {
	lines := []struct {
		text string
		hex  string
	}{
		{`   ____ _           _   _            `, "#38bdf8"},
		{`  / ___| |__   __ _| |_| |_ ___ _ __ `, "#22d3ee"},
		{` | |   | '_ \ / _' | __| __/ _ \ '__|`, "#2dd4bf"},
		{` | |___| | | | (_| | |_| ||  __/ |   `, "#34d399"},
		{`  \____|_| |_|\__,_|\__|\__\___|_|   `, "#4ade80"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, profile.String(l.text).Foreground(profile.Color(l.hex)))
	}
	fmt.Fprintln(w)
}
