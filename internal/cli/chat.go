package cli

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/chatter/internal/logging"
	"github.com/aretw0/chatter/internal/presentation/tui"
	"github.com/aretw0/chatter/pkg/adapters/api"
	"github.com/aretw0/chatter/pkg/controller"
	"github.com/aretw0/chatter/pkg/observability"
	"github.com/aretw0/chatter/pkg/runner"
)

// ChatOptions configures a terminal chat against a remote chatter server.
type ChatOptions struct {
	APIURL   string
	ClientID string
	Timeout  time.Duration

	// Markdown renders rich bot messages with glamour.
	Markdown bool
	Color    bool
	JSON     bool

	Input  io.Reader
	Output io.Writer
	Logger *slog.Logger
}

// RunChat opens the widget and runs it until /quit, EOF or ctx cancellation.
func RunChat(ctx context.Context, opts ChatOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = controller.DefaultTimeout
	}

	client := api.New(opts.APIURL, opts.ClientID,
		api.WithHTTPClient(&http.Client{Timeout: timeout}),
		api.WithLogger(logger),
	)
	ctrl := controller.New(client, client, client.ClientID(),
		controller.WithLogger(logger),
		controller.WithTimeout(timeout),
		controller.WithHooks(observability.LoggingHooks(logger)),
	)

	runOpts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithColor(opts.Color),
		runner.WithJSON(opts.JSON),
	}
	if opts.Input != nil {
		runOpts = append(runOpts, runner.WithInput(opts.Input))
	}
	if opts.Output != nil {
		runOpts = append(runOpts, runner.WithOutput(opts.Output))
	}
	if opts.Markdown && !opts.JSON {
		runOpts = append(runOpts, runner.WithRenderer(tui.NewRenderer()))
	}

	logger.Info("Chat opened", "api_url", opts.APIURL, "client_id", client.ClientID())
	return handleExecutionError(runner.New(ctrl, runOpts...).Run(ctx))
}
