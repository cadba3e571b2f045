package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/chatter/internal/cli"
	"github.com/aretw0/chatter/internal/presentation/graph"
	"github.com/aretw0/chatter/pkg/domain"
	"github.com/aretw0/chatter/pkg/editor"
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:     "rules",
	Aliases: []string{"nodes"},
	Short:   "Inspect and edit the chat flow",
	Long: `Edits the flow nodes in the configured storage backend, or on a running server with --remote.
welcome_node and show_form always exist and cannot be deleted.`,
}

// withWorkspace opens the flow, runs fn and releases the backend.
func withWorkspace(cmd *cobra.Command, fn func(ctx context.Context, ws *cli.Workspace) error) error {
	remote, _ := cmd.Flags().GetBool("remote")
	ctx := cmd.Context()
	ws, err := cli.OpenWorkspace(ctx, cfg, remote, logger)
	if err != nil {
		return err
	}
	defer ws.Close()
	return fn(ctx, ws)
}

var rulesListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List every node in flow order",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return withWorkspace(cmd, func(ctx context.Context, ws *cli.Workspace) error {
			nodes := ws.Editor.Graph().ListNodes()
			if asJSON {
				records := make([]domain.RuleRecord, len(nodes))
				for i, n := range nodes {
					records[i] = domain.RecordFromNode(n)
				}
				return printJSON(cmd.OutOrStdout(), records)
			}
			printNodeTable(cmd.OutOrStdout(), nodes)
			return nil
		})
	},
}

var rulesShowCmd = &cobra.Command{
	Use:   "show <node_id>",
	Short: "Print one node as its wire record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, func(ctx context.Context, ws *cli.Workspace) error {
			n, ok := ws.Editor.Graph().GetNode(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, args[0])
			}
			return printJSON(cmd.OutOrStdout(), domain.RecordFromNode(n))
		})
	},
}

var rulesSaveCmd = &cobra.Command{
	Use:   "save <node_id>",
	Short: "Create or update a node",
	Long: `Creates a node with --create, otherwise updates an existing one.
Options are given as "Label=payload" and keep the order they were passed in.

  chatter rules save pricing --create --type text --answer "Plans start at $10."
  chatter rules save welcome_node --message "Hi!" --option "Pricing=pricing" --option "Talk to us=show_form"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		create, _ := flags.GetBool("create")

		return withWorkspace(cmd, func(ctx context.Context, ws *cli.Workspace) error {
			draft := editor.NewDraft(args[0])
			if existing, ok := ws.Editor.Graph().GetNode(args[0]); ok && !create {
				draft = editor.DraftFromNode(existing)
			}
			draft.Create = create

			if flags.Changed("type") {
				t, _ := flags.GetString("type")
				draft.ResponseType = domain.ResponseType(t)
			}
			if flags.Changed("message") {
				draft.Message, _ = flags.GetString("message")
			}
			if flags.Changed("answer") {
				draft.AnswerText, _ = flags.GetString("answer")
			}
			if flags.Changed("option") {
				raw, _ := flags.GetStringArray("option")
				opts, err := parseOptions(raw)
				if err != nil {
					return err
				}
				draft.Options = opts
			}
			if draft.ResponseType == domain.ResponseText {
				draft.Options = nil
			}

			node, err := ws.Editor.SaveNode(ctx, draft)
			if err != nil {
				return explainValidation(err)
			}
			return printJSON(cmd.OutOrStdout(), domain.RecordFromNode(node))
		})
	},
}

var rulesRemoveCmd = &cobra.Command{
	Use:     "rm <node_id>",
	Aliases: []string{"delete"},
	Short:   "Delete a node",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, func(ctx context.Context, ws *cli.Workspace) error {
			if err := ws.Editor.DeleteNode(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		})
	},
}

var rulesOptionCmd = &cobra.Command{
	Use:   "option",
	Short: "Add or remove quick replies of a rich node",
}

var rulesOptionAddCmd = &cobra.Command{
	Use:   "add <node_id> <label=payload>",
	Short: "Append a quick reply",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := parseOptions(args[1:])
		if err != nil {
			return err
		}
		return withWorkspace(cmd, func(ctx context.Context, ws *cli.Workspace) error {
			node, err := ws.Editor.AddOption(ctx, args[0], opts[0])
			if err != nil {
				return explainValidation(err)
			}
			return printJSON(cmd.OutOrStdout(), domain.RecordFromNode(node))
		})
	},
}

var rulesOptionRemoveCmd = &cobra.Command{
	Use:   "rm <node_id> <position>",
	Short: "Remove the quick reply at a 1-based position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("position must be a number: %w", err)
		}
		return withWorkspace(cmd, func(ctx context.Context, ws *cli.Workspace) error {
			node, err := ws.Editor.RemoveOption(ctx, args[0], pos-1)
			if err != nil {
				return explainValidation(err)
			}
			return printJSON(cmd.OutOrStdout(), domain.RecordFromNode(node))
		})
	},
}

var rulesLintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Report dangling option payloads and unreachable nodes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict")
		return withWorkspace(cmd, func(ctx context.Context, ws *cli.Workspace) error {
			report, err := ws.Editor.Lint(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.String())
			if strict && !report.Clean() {
				return errors.New("flow has lint findings")
			}
			return nil
		})
	},
}

var rulesGraphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the flow as a Mermaid diagram",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, func(ctx context.Context, ws *cli.Workspace) error {
			report, err := ws.Editor.Lint(ctx)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(ws.Editor.Graph().ListNodes(), &report))
			return nil
		})
	},
}

// parseOptions turns "Label=payload" pairs into options. The last "=" separates the payload.
func parseOptions(raw []string) ([]domain.Option, error) {
	opts := make([]domain.Option, 0, len(raw))
	for _, r := range raw {
		i := strings.LastIndex(r, "=")
		if i <= 0 || i == len(r)-1 {
			return nil, fmt.Errorf("option %q must look like Label=payload", r)
		}
		opts = append(opts, domain.Option{Text: strings.TrimSpace(r[:i]), Payload: strings.TrimSpace(r[i+1:])})
	}
	return opts, nil
}

// explainValidation lists every invalid field instead of only the first.
func explainValidation(err error) error {
	var errs domain.ValidationErrors
	if !errors.As(err, &errs) || len(errs) < 2 {
		return err
	}
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = "  - " + e.Error()
	}
	return fmt.Errorf("%w:\n%s", domain.ErrValidation, strings.Join(lines, "\n"))
}

func printNodeTable(w io.Writer, nodes []domain.Node) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NODE\tTYPE\tOPTIONS\tCONTENT")
	for _, n := range nodes {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", n.ID, n.ResponseType, len(n.Options), truncate(n.Content(), 48))
	}
	_ = tw.Flush()
}

func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.PersistentFlags().Bool("remote", false, "Edit the flow of the server at widget.api_url")

	rulesCmd.AddCommand(rulesListCmd, rulesShowCmd, rulesSaveCmd, rulesRemoveCmd, rulesOptionCmd, rulesLintCmd, rulesGraphCmd)
	rulesOptionCmd.AddCommand(rulesOptionAddCmd, rulesOptionRemoveCmd)

	rulesListCmd.Flags().Bool("json", false, "Print wire records as JSON")

	rulesSaveCmd.Flags().Bool("create", false, "Create a new node instead of updating one")
	rulesSaveCmd.Flags().String("type", "", `Response type: "rich" or "text"`)
	rulesSaveCmd.Flags().String("message", "", "Message of a rich node")
	rulesSaveCmd.Flags().String("answer", "", "Answer of a text node")
	rulesSaveCmd.Flags().StringArray("option", nil, `Quick reply as "Label=payload" (repeatable, replaces existing options)`)

	rulesLintCmd.Flags().Bool("strict", false, "Exit non-zero when there are findings")
}
