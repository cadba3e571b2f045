package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/chatter/internal/logging"
	"github.com/aretw0/chatter/pkg/controller"
	"github.com/aretw0/chatter/pkg/domain"
	"github.com/muesli/termenv"
)

// Runner connects a controller to a terminal.
// Lines typed while a reply is pending are held until it arrives.
type Runner struct {
	ctrl     *controller.Controller
	input    io.Reader
	output   io.Writer
	renderer ContentRenderer
	logger   *slog.Logger
	profile  termenv.Profile
	json     bool

	painter *Painter
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithInput sets the line source. Defaults to os.Stdin.
func WithInput(r io.Reader) Option {
	return func(rn *Runner) {
		rn.input = r
	}
}

// WithOutput sets where bubbles are printed. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(rn *Runner) {
		rn.output = w
	}
}

// WithRenderer configures the content renderer used for rich bot messages.
func WithRenderer(renderer ContentRenderer) Option {
	return func(rn *Runner) {
		rn.renderer = renderer
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(rn *Runner) {
		rn.logger = logger
	}
}

// WithColor enables terminal colors using the detected color profile.
func WithColor(enabled bool) Option {
	return func(rn *Runner) {
		if enabled {
			rn.profile = termenv.ColorProfile()
		} else {
			rn.profile = termenv.Ascii
		}
	}
}

// WithJSON emits session diffs as JSON lines instead of bubbles.
func WithJSON(enabled bool) Option {
	return func(rn *Runner) {
		rn.json = enabled
	}
}

// New creates a Runner for ctrl.
func New(ctrl *controller.Controller, opts ...Option) *Runner {
	r := &Runner{
		ctrl:    ctrl,
		input:   os.Stdin,
		output:  os.Stdout,
		logger:  logging.NewNop(),
		profile: termenv.Ascii,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.painter = NewPainter(r.output, r.renderer, r.profile)
	if r.json {
		ctrl.Subscribe(NewJSONPainter(r.output).Observer())
	} else {
		ctrl.Subscribe(r.painter.Observer())
	}
	return r
}

// Run opens the widget and processes input until /quit, EOF or ctx cancellation.
// The widget is closed on return.
func (r *Runner) Run(ctx context.Context) error {
	lines := pump(r.input)

	if err := r.ctrl.Open(ctx); err != nil {
		return fmt.Errorf("failed to open chat: %w", err)
	}
	defer r.ctrl.Close()

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("Runner: context cancelled", "err", ctx.Err())
			return nil
		case res, ok := <-lines:
			if !ok {
				r.ctrl.Wait()
				return nil
			}
			if res.err != nil {
				return fmt.Errorf("input error: %w", res.err)
			}
			r.ctrl.Wait()
			quit, err := r.handleLine(ctx, res.text, lines)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

func (r *Runner) handleLine(ctx context.Context, raw string, lines <-chan inputResult) (bool, error) {
	text, err := SanitizeInput(strings.TrimSpace(raw))
	if err != nil {
		r.painter.Notice("Error: %v. Please try again.", err)
		return false, nil
	}
	if text == "" {
		return false, nil
	}

	switch text {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		r.painter.Notice("Type a question, a number to pick an option, /form, /cancel or /quit.")
		return false, nil
	case "/cancel":
		if err := r.ctrl.CancelForm(); err != nil {
			r.painter.Notice("The form is not open.")
		}
		return false, nil
	case "/form":
		return r.fillForm(ctx, lines)
	}

	snap := r.ctrl.Snapshot()
	if n, err := strconv.Atoi(text); err == nil && len(snap.Options) > 0 {
		if n < 1 || n > len(snap.Options) {
			r.painter.Notice("No option %d.", n)
			return false, nil
		}
		if err := r.ctrl.Click(snap.Options[n-1]); err != nil {
			r.explain(err)
		}
		return false, nil
	}

	if err := r.ctrl.TrySubmit(domain.KindText, text); err != nil {
		r.explain(err)
	}
	return false, nil
}

// fillForm prompts each field in turn. An empty answer keeps the value entered before.
func (r *Runner) fillForm(ctx context.Context, lines <-chan inputResult) (bool, error) {
	snap := r.ctrl.Snapshot()
	if snap.Mode != domain.ModeForm {
		r.painter.Notice("The form is not open.")
		return false, nil
	}

	fields := snap.Form
	prompts := []struct {
		label string
		value *string
	}{
		{"Name", &fields.Name},
		{"Email", &fields.Email},
		{"Phone (optional)", &fields.Phone},
		{"Message", &fields.Message},
	}
	for _, p := range prompts {
		label := p.label
		if *p.value != "" {
			label = fmt.Sprintf("%s [%s]", p.label, *p.value)
		}
		r.painter.Prompt(label + ": ")

		select {
		case <-ctx.Done():
			return true, nil
		case res, ok := <-lines:
			if !ok {
				return true, nil
			}
			if res.err != nil {
				return true, fmt.Errorf("input error: %w", res.err)
			}
			answer, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				r.painter.Notice("Error: %v. Keeping the previous value.", err)
				continue
			}
			if answer != "" {
				*p.value = answer
			}
		}
	}

	err := r.ctrl.SubmitForm(ctx, fields)
	var verrs domain.ValidationErrors
	switch {
	case err == nil:
	case errors.As(err, &verrs):
		r.painter.Notice("Please check the form: %v. Type /form to try again.", verrs)
	case errors.Is(err, domain.ErrSessionClosed):
		return true, nil
	default:
		// The apology is already in the transcript.
		r.logger.Debug("Form submission failed", "err", err)
	}
	return false, nil
}

func (r *Runner) explain(err error) {
	switch {
	case errors.Is(err, domain.ErrInputSuppressed):
		r.painter.Notice("Chat is paused while the form is open. Type /form to fill it in or /cancel to go back.")
	case errors.Is(err, domain.ErrRequestInFlight):
		r.painter.Notice("Please wait for the current reply.")
	case errors.Is(err, domain.ErrSessionClosed):
		r.painter.Notice("The chat is closed.")
	default:
		r.painter.Notice("Error: %v", err)
	}
}
