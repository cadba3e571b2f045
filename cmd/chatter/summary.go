package main

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/aretw0/chatter/pkg/adapters/api"
	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the analytics summary of a running server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := api.New(cfg.Widget.APIURL, cfg.Widget.ClientID,
			api.WithHTTPClient(&http.Client{Timeout: cfg.Widget.Timeout}),
			api.WithLogger(logger),
		)
		summary, err := client.Summary(cmd.Context())
		if err != nil {
			return err
		}

		keys := make([]string, 0, len(summary))
		for k := range summary {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s %d\n", k, summary[k])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}
