package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/dropwatch/internal/monitor"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a single scan cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()

		rep, err := e.monitor.RunOnce(ctx)
		if err != nil {
			return fmt.Errorf("scanning: %w", err)
		}
		printReport(cmd.OutOrStdout(), rep)
		return nil
	},
}

func printReport(w io.Writer, rep monitor.Report) {
	fmt.Fprintf(w, "Fetched %d post(s), %d new.\n", rep.Fetched, rep.New)
	fmt.Fprintf(w, "Opportunities: %d (skipped %d, failed %d).\n", rep.Candidates, rep.Skipped, rep.Failed)
	if rep.Notified > 0 {
		fmt.Fprintf(w, "Alerted on %d opportunities.\n", rep.Notified)
	}
	for _, err := range rep.FetchErrors {
		fmt.Fprintf(w, "  [warn] %v\n", err)
	}
}
