package runner

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/chatter/pkg/controller"
	"github.com/aretw0/chatter/pkg/domain"
	"github.com/muesli/termenv"
)

// ContentRenderer transforms rich bot content before it is printed (e.g. markdown to ANSI).
type ContentRenderer func(string) (string, error)

// Palette colors.
const (
	colorBot    = "#818cf8"
	colorUser   = "#f472b6"
	colorOption = "#a78bfa"
	colorMuted  = "#6b7280"
)

// Painter prints session diffs as chat bubbles.
type Painter struct {
	mu       sync.Mutex
	w        io.Writer
	renderer ContentRenderer
	profile  termenv.Profile
}

// NewPainter creates a painter. Use termenv.Ascii for uncolored output.
func NewPainter(w io.Writer, renderer ContentRenderer, profile termenv.Profile) *Painter {
	return &Painter{w: w, renderer: renderer, profile: profile}
}

// Observer returns the painter as a controller observer.
func (p *Painter) Observer() controller.Observer {
	return func(diff *domain.SessionDiff, _ *domain.Session) {
		p.Paint(diff)
	}
}

// Paint prints one diff.
func (p *Painter) Paint(diff *domain.SessionDiff) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range diff.Appended {
		p.paintEntry(e)
	}
	if diff.Typing != nil && *diff.Typing {
		fmt.Fprintln(p.w, p.color("  ...typing", colorMuted))
	}
	if diff.Options != nil {
		for i, opt := range *diff.Options {
			fmt.Fprintf(p.w, "  %s %s\n", p.color(fmt.Sprintf("[%d]", i+1), colorOption), opt.Text)
		}
	}
	if diff.Mode != nil {
		switch *diff.Mode {
		case domain.ModeForm:
			fmt.Fprintln(p.w, p.color("  The contact form is open. Type /form to fill it in or /cancel to go back.", colorMuted))
		case domain.ModeClosed:
			fmt.Fprintln(p.w, p.color("  Chat closed.", colorMuted))
		}
	}
}

// Notice prints a local hint that is not part of the transcript.
func (p *Painter) Notice(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, p.color("  "+fmt.Sprintf(format, args...), colorMuted))
}

// Prompt prints an inline prompt without a newline.
func (p *Painter) Prompt(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.w, p.color(label, colorOption))
}

func (p *Painter) paintEntry(e domain.Entry) {
	switch e.Speaker {
	case domain.SpeakerUser:
		fmt.Fprintf(p.w, "%s %s\n", p.color("you", colorUser), e.Content)
	default:
		content := e.Content
		if e.IsRich && p.renderer != nil {
			if rendered, err := p.renderer(content); err == nil {
				content = rendered
			}
		}
		fmt.Fprintf(p.w, "%s %s\n", p.color("bot", colorBot), strings.TrimSpace(content))
	}
}

func (p *Painter) color(s, hex string) string {
	if p.profile == termenv.Ascii {
		return s
	}
	return p.profile.String(s).Foreground(p.profile.Color(hex)).String()
}

// JSONPainter writes each diff as one JSON line, for hosts that drive the runner programmatically.
type JSONPainter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONPainter creates a JSON-lines painter.
func NewJSONPainter(w io.Writer) *JSONPainter {
	return &JSONPainter{enc: json.NewEncoder(w)}
}

// Observer returns the painter as a controller observer.
func (p *JSONPainter) Observer() controller.Observer {
	return func(diff *domain.SessionDiff, _ *domain.Session) {
		p.mu.Lock()
		defer p.mu.Unlock()
		_ = p.enc.Encode(diff)
	}
}
