package main

import (
	"errors"
	"fmt"

	"github.com/nvandessel/verdant/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve garden tools over MCP (stdio)",
		Long: `Run a Model Context Protocol server on stdin/stdout so agents can tend
the garden with the garden_* tools.

Tool calls are recorded in <root>/.verdant/audit.jsonl.

Examples:
  verdant mcp-server
  verdant mcp-server --garden patio --metrics-addr 127.0.0.1:9464`,
		RunE: func(cmd *cobra.Command, args []string) error {
			metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
			noAudit, _ := cmd.Flags().GetBool("no-audit")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			// The server closes the store; only the decision log is ours.
			defer a.decisions.Close()

			server, err := mcp.NewServer(&mcp.Config{
				Name:         "verdant",
				Version:      version,
				Root:         a.root,
				Garden:       a.gardenID,
				Service:      a.svc,
				Logger:       a.logger,
				DisableAudit: noAudit,
			})
			if err != nil {
				a.store.Close()
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			if metricsAddr != "" {
				go func() {
					if err := serveMetrics(ctx, metricsAddr, a.recorder, a.logger); err != nil {
						a.logger.Error("metrics server failed", "error", err)
					}
				}()
			}

			if err := server.Run(ctx); err != nil && !errors.Is(err, ctx.Err()) {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("metrics-addr", "", "Also serve Prometheus metrics on this address")
	cmd.Flags().Bool("no-audit", false, "Do not write the tool-call audit log")
	return cmd
}
