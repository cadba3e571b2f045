package main

import (
	"os"

	"github.com/aretw0/chatter/internal/cli"
	"github.com/aretw0/chatter/internal/presentation/tui"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a running chatter server from the terminal",
	Long: `Opens the chat widget in the terminal against widget.api_url.
Type a number to pick an option, free text to ask a question, /form to leave your
contact details, /cancel to close the form and /quit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		plain, _ := cmd.Flags().GetBool("plain")

		interactive := term.IsTerminal(int(os.Stdout.Fd())) && !plain && !jsonMode
		if interactive {
			tui.PrintBanner(os.Stdout, termenv.ColorProfile())
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.RunChat(ctx, cli.ChatOptions{
			APIURL:   cfg.Widget.APIURL,
			ClientID: cfg.Widget.ClientID,
			Timeout:  cfg.Widget.Timeout,
			Markdown: interactive,
			Color:    interactive,
			JSON:     jsonMode,
			Logger:   logger,
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Bool("json", false, "Emit session changes as JSON lines")
	chatCmd.Flags().Bool("plain", false, "Disable colors and markdown rendering")
}
