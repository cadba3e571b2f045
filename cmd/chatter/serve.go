package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/chatter/internal/cli"
	chathttp "github.com/aretw0/chatter/pkg/adapters/http"
	"github.com/aretw0/chatter/pkg/editor"
	"github.com/aretw0/chatter/pkg/observability"
	"github.com/aretw0/chatter/pkg/resolver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the chatter backend: widget interactions, lead submissions, rule editing,
the analytics summary, a live event stream and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		stores, err := cli.OpenStores(ctx, cfg.Storage, logger)
		if err != nil {
			return err
		}
		defer stores.Close()

		edOpts := []editor.Option{editor.WithLogger(logger)}
		if stores.Locker != nil {
			edOpts = append(edOpts, editor.WithLocker(stores.Locker))
		}
		ed := editor.New(stores.Nodes, edOpts...)
		if _, err := ed.Load(ctx); err != nil {
			return fmt.Errorf("failed to load flow: %w", err)
		}
		if demo, _ := cmd.Flags().GetBool("demo"); demo {
			written, err := demoFlow().Seed(ctx, ed)
			if err != nil {
				return err
			}
			logger.Info("Seeded demo flow", "nodes", written)
		}

		matcher := resolver.NewMatcher(cfg.FAQs, 0)
		res := resolver.New(stores.Nodes, resolver.WithMatcher(matcher), resolver.WithLogger(logger))

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics := observability.NewMetrics(reg)

		handler := chathttp.NewHandler(res, ed, stores.Submissions,
			chathttp.WithLogger(logger),
			chathttp.WithMetrics(metrics, reg),
			chathttp.WithHooks(observability.LoggingHooks(logger)),
		)

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting chatter server", "addr", srv.Addr, "storage", cfg.Storage.Backend, "faqs", matcher.Len())
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("Start shutdown", "signal", ctx.Signal())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("could not stop server: %w", err)
				}
			}
			logger.Info("Chatter server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides server.addr)")
	serveCmd.Flags().Bool("demo", false, "Seed a sample flow; nodes you already edited are kept")
}
