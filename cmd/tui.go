package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/matheuskafuri/dropwatch/internal/digest"
	"github.com/matheuskafuri/dropwatch/internal/tui"
	"github.com/matheuskafuri/dropwatch/internal/update"
)

func runApp(browse bool) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	updates := make(chan *update.Result, 1)
	go func() {
		updates <- update.Check(context.Background(), version)
	}()

	if flagRefresh || e.db.NeedsRun(e.cfg.CheckDuration()) {
		fmt.Println("Scanning feeds...")
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		rep, err := e.monitor.RunOnce(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("scanning: %w", err)
		}
		for _, fe := range rep.FetchErrors {
			fmt.Printf("  [warn] %v\n", fe)
		}

		if _, err := e.db.Prune(e.cfg.RetentionDuration()); err != nil {
			e.log.Warn("prune failed", zap.Error(err))
		}
	}

	since, err := sinceTime(flagSince, time.Now())
	if err != nil {
		return err
	}

	dg, err := digest.Generate(digest.GenerateOpts{
		DB:       e.db,
		Since:    digestWindow(since, time.Now()),
		MinScore: e.cfg.GetMinConfidence(),
	})
	if err != nil {
		e.log.Warn("digest failed", zap.Error(err))
		dg = nil
	}

	var updateVersion string
	select {
	case res := <-updates:
		if res != nil {
			updateVersion = res.LatestVersion
		}
	case <-time.After(500 * time.Millisecond):
	}

	return tui.Run(tui.RunOpts{
		DB:            e.db,
		Scanner:       e.monitor,
		Sources:       e.cfg.SourceNames(),
		Since:         since,
		MinScore:      e.cfg.GetMinConfidence(),
		BrowseMode:    browse,
		Digest:        dg,
		UpdateVersion: updateVersion,
	})
}

// digestWindow defaults the digest to the last day when no --since is set.
func digestWindow(since, now time.Time) time.Time {
	if since.IsZero() {
		return now.Add(-24 * time.Hour)
	}
	return since
}
