package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/chatter/internal/config"
	"github.com/aretw0/chatter/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "chatter",
	Short: "Chatter is a guided chat widget backend and terminal client",
	Long: `Chatter serves rule-based chat flows: a welcome message, quick-reply options,
FAQ answers for free text and a lead-capture form when the visitor wants a human.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		applyFlagOverrides(cmd, loaded)
		if err := loaded.Validate(); err != nil {
			return err
		}

		level, err := logging.ParseLevel(loaded.Log.Level)
		if err != nil {
			return err
		}
		if loaded.Log.Format == "json" {
			logger = logging.NewJSON(os.Stderr, level)
		} else {
			logger = logging.New(level)
		}
		slog.SetDefault(logger)
		cfg = loaded
		return nil
	},
}

// applyFlagOverrides lets explicitly set flags win over the file and the environment.
func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		c.Log.Format, _ = flags.GetString("log-format")
	}
	if flags.Changed("storage") {
		c.Storage.Backend, _ = flags.GetString("storage")
	}
	if flags.Changed("api-url") {
		c.Widget.APIURL, _ = flags.GetString("api-url")
	}
	if flags.Changed("client-id") {
		id, _ := flags.GetString("client-id")
		c.Widget.ClientID = id
		c.Server.ClientID = id
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", config.DefaultPath, "Path to chatter.yaml")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("log-format", "", "Log format: text or json")
	flags.String("storage", "", "Storage backend: memory, sqlite, redis or file")
	flags.String("api-url", "", "Base URL of a remote chatter server")
	flags.String("client-id", "", "Tenant identifier sent as X-Client-ID")
}
