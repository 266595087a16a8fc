package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flagMetricsAddr string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scan feeds continuously and send alerts",
	Long: `Run a scan cycle every check_interval until interrupted. Each cycle fetches
the configured feeds, extracts opportunities from new posts, stores them and
alerts on the ones at or above min_confidence.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if flagMetricsAddr != "" {
			srv := &http.Server{
				Addr:              flagMetricsAddr,
				Handler:           metricsMux(e.metrics.Handler()),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				e.log.Info("serving metrics", zap.String("addr", flagMetricsAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					e.log.Error("metrics server failed", zap.Error(err))
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()
		}

		if n, err := e.db.Prune(e.cfg.RetentionDuration()); err != nil {
			e.log.Warn("prune failed", zap.Error(err))
		} else if n > 0 {
			e.log.Info("pruned old opportunities", zap.Int64("deleted", n))
		}

		interval := e.cfg.CheckDuration()
		e.log.Info("starting monitor",
			zap.Duration("interval", interval),
			zap.Int("sources", len(e.cfg.EnabledSources())),
			zap.Float64("min_confidence", e.cfg.GetMinConfidence()),
		)
		if err := e.monitor.Run(ctx, interval); err != nil {
			return fmt.Errorf("monitor: %w", err)
		}
		e.log.Info("monitor stopped")
		return nil
	},
}

func metricsMux(h http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

func init() {
	runCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g., :9090)")
}
