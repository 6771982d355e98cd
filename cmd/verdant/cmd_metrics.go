package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/nvandessel/verdant/internal/metrics"
	"github.com/spf13/cobra"
)

func newMetricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show simulator metrics for every garden",
		Long: `Catch every garden up to now and print the resulting counters.

With --listen the metrics are served in the Prometheus exposition format
at /metrics, and every garden is refreshed on each --refresh interval.

Examples:
  verdant metrics
  verdant metrics --listen 127.0.0.1:9464 --refresh 5m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			listen, _ := cmd.Flags().GetString("listen")
			refresh, _ := cmd.Flags().GetDuration("refresh")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.refreshGardens(cmd.Context()); err != nil {
				return err
			}

			if listen == "" {
				samples, err := a.recorder.Snapshot()
				if err != nil {
					return fmt.Errorf("failed to gather metrics: %w", err)
				}
				if a.jsonOut {
					return printJSON(cmd.OutOrStdout(), map[string]interface{}{"metrics": samples})
				}
				for _, s := range samples {
					fmt.Fprintf(cmd.OutOrStdout(), "%-60s %g\n", s.Name, s.Value)
				}
				return nil
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			if refresh > 0 {
				go func() {
					ticker := time.NewTicker(refresh)
					defer ticker.Stop()
					for {
						select {
						case <-ctx.Done():
							return
						case <-ticker.C:
							if err := a.refreshGardens(ctx); err != nil {
								a.logger.Warn("garden refresh failed", "error", err)
							}
						}
					}
				}()
			}
			return serveMetrics(ctx, listen, a.recorder, a.logger)
		},
	}
	cmd.Flags().String("listen", "", "Serve /metrics on this address instead of printing")
	cmd.Flags().Duration("refresh", time.Minute, "How often to catch gardens up while serving")
	return cmd
}

// refreshGardens runs a status pass over every stored garden so catch-up
// counters and plant gauges reflect the current time.
func (a *app) refreshGardens(ctx context.Context) error {
	ids, err := a.svc.Gardens(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := a.svc.Status(ctx, id); err != nil {
			a.logger.Warn("failed to refresh garden", "garden", id, "error", err)
		}
	}
	return nil
}

// serveMetrics serves rec on addr until ctx is cancelled.
func serveMetrics(ctx context.Context, addr string, rec *metrics.Recorder, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	return nil
}

// signalContext is cancelled on the first interrupt or termination signal.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
