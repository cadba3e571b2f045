package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders rich bot messages as terminal markdown.
// If glamour cannot build a renderer the text is returned unchanged.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(72),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
