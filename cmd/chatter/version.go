package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/chatter"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of chatter",
	// Skip config loading so version works anywhere.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "chatter version %s\n", strings.TrimSpace(chatter.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
