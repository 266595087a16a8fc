package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/dropwatch/internal/update"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagSince   string
	flagRefresh bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "dropwatch",
	Short: "Airdrop and testnet opportunity watcher",
	Long: `dropwatch watches social-post feeds for airdrop and testnet announcements,
extracts the project, token, deadline and participation steps from each post,
scores how trustworthy the result looks and alerts on the strong ones.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(false)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagSince, "since", "", "only show opportunities from the last duration (e.g., 7d, 24h)")
	rootCmd.PersistentFlags().BoolVar(&flagRefresh, "refresh", false, "force a scan before launching")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(showCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dropwatch %s (commit: %s, built: %s)\n", version, commit, date)
		if res := update.Check(context.Background(), version); res != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Update available: v%s\n", res.LatestVersion)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// parseSince accepts Go durations plus an "Nd" day suffix.
func parseSince(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

// sinceTime resolves --since against now; an empty flag means no bound.
func sinceTime(flag string, now time.Time) (time.Time, error) {
	if flag == "" {
		return time.Time{}, nil
	}
	d, err := parseSince(flag)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since value: %w", err)
	}
	return now.Add(-d), nil
}
