package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/chatter/internal/cli"
	"github.com/aretw0/chatter/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes flow authoring as MCP tools so an AI assistant can list, edit and lint
the chat flow, and try interactions the way a visitor would.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")
		remote, _ := cmd.Flags().GetBool("remote")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		ws, err := cli.OpenWorkspace(ctx, cfg, remote, logger)
		if err != nil {
			return err
		}
		defer ws.Close()

		srv := mcp.NewServer(ws.Editor, ws.Resolver, mcp.WithLogger(logger), mcp.WithClientID(cfg.Server.ClientID))

		switch transport {
		case "stdio":
			logger.Info("Starting chatter MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			logger.Info("Starting chatter MCP server (SSE)", "addr", addr)
			err := srv.ServeSSE(ctx, addr, "http://localhost"+addr)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8081", "Address to listen on (only for SSE)")
	mcpCmd.Flags().Bool("remote", false, "Edit the flow of the server at widget.api_url instead of local storage")
}
