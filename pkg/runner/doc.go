/*
Package runner is the terminal render adapter of the chat widget.

It paints session diffs published by a controller (bot and user bubbles, the typing
indicator, numbered quick replies and the lead form) and turns typed lines into
controller actions.

# Commands

  - a number selects the matching quick reply
  - /form fills in the lead form field by field
  - /cancel closes the form and returns to chat
  - /quit (or EOF) closes the widget
  - anything else is sent as free text

# Usage

	ctrl := controller.New(client, client, "tenant-1")
	r := runner.New(ctrl,
		runner.WithRenderer(tui.NewRenderer()),
		runner.WithColor(true),
	)
	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
