package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/dropwatch/internal/classify"
	"github.com/matheuskafuri/dropwatch/internal/digest"
	"github.com/matheuskafuri/dropwatch/internal/logging"
)

var (
	flagDigestKind string
	flagDigestSize int
	flagDigestAll  bool
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Print the top opportunities and trending tokens",
	Long: `Rank stored opportunities by confidence and summarise trending tokens,
projects and upcoming deadlines.

Defaults to the last 24 hours; use --since to widen the window.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer logging.Sync(log)

		db, _, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		var kind string
		if flagDigestKind != "" {
			k, err := classify.ParseKind(flagDigestKind)
			if err != nil {
				return err
			}
			kind = string(k)
		}

		now := time.Now()
		since, err := sinceTime(flagSince, now)
		if err != nil {
			return err
		}

		minScore := cfg.GetMinConfidence()
		if flagDigestAll {
			minScore = 0
		}

		d, err := digest.Generate(digest.GenerateOpts{
			DB:       db,
			Since:    digestWindow(since, now),
			Size:     flagDigestSize,
			Kind:     kind,
			MinScore: minScore,
			Now:      now,
		})
		if err != nil {
			return fmt.Errorf("generating digest: %w", err)
		}
		return digest.Render(cmd.OutOrStdout(), d)
	},
}

func init() {
	digestCmd.Flags().StringVar(&flagDigestKind, "kind", "", "only include one kind (airdrop, testnet, other)")
	digestCmd.Flags().IntVar(&flagDigestSize, "size", 5, "number of opportunities to list")
	digestCmd.Flags().BoolVar(&flagDigestAll, "all", false, "ignore min_confidence")
}
