// Package monitor runs the scan cycle: fetch, dedupe, extract, store and
// alert.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/matheuskafuri/dropwatch/internal/annotate"
	"github.com/matheuskafuri/dropwatch/internal/classify"
	"github.com/matheuskafuri/dropwatch/internal/config"
	"github.com/matheuskafuri/dropwatch/internal/domain"
	"github.com/matheuskafuri/dropwatch/internal/feed"
	"github.com/matheuskafuri/dropwatch/internal/metrics"
	"github.com/matheuskafuri/dropwatch/internal/normalize"
	"github.com/matheuskafuri/dropwatch/internal/opportunity"
	"github.com/matheuskafuri/dropwatch/internal/store"
)

// Store is the persistence the cycle needs.
type Store interface {
	UnseenPosts(posts []store.Post) ([]store.Post, error)
	SavePosts(posts []store.Post) error
	SaveOpportunities(ops []store.Opportunity) error
	GetOpportunities(opts store.QueryOpts) ([]store.Opportunity, error)
	MarkNotified(ids ...string) error
	SetLastRun() error
}

// Alerter delivers alerts for opportunities above its threshold and returns
// the IDs it delivered.
type Alerter interface {
	Enabled() bool
	Notify(ctx context.Context, ops []store.Opportunity) ([]string, error)
}

type Options struct {
	Fetcher      feed.Fetcher
	Sources      []config.Source
	Store        Store
	Annotator    annotate.Annotator
	Classifier   *classify.Classifier
	Alerter      Alerter
	Workers      int
	MaxAge       time.Duration
	PreserveCase bool
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
}

type Monitor struct {
	opts    Options
	builder *opportunity.Builder
	log     *zap.Logger
	metrics *metrics.Metrics
}

func New(opts Options) *Monitor {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	return &Monitor{
		opts:    opts,
		builder: opportunity.NewBuilder(opts.Annotator),
		log:     log.Named("monitor"),
		metrics: m,
	}
}

// Report summarises one cycle.
type Report struct {
	Fetched     int
	New         int
	Candidates  int
	Skipped     int
	Failed      int
	Notified    int
	FetchErrors []error
	Duration    time.Duration
}

// RunOnce performs a single scan cycle. Failures of one source, one post or
// one alert channel are logged and counted; only storage failures abort the
// cycle.
func (m *Monitor) RunOnce(ctx context.Context) (Report, error) {
	start := time.Now()
	var rep Report

	fetched := feed.FetchAll(ctx, m.opts.Fetcher, m.opts.Sources)
	rep.FetchErrors = fetched.Errors
	for _, err := range fetched.Errors {
		source := "unknown"
		var se *feed.SourceError
		if errors.As(err, &se) {
			source = se.Source
		}
		m.metrics.FetchErrors.WithLabelValues(source).Inc()
		m.log.Warn("fetch failed", zap.String("source", source), zap.Error(err))
	}

	posts := make([]store.Post, 0, len(fetched.Posts))
	for _, p := range fetched.Posts {
		m.metrics.PostsFetched.WithLabelValues(p.Source).Inc()
		p.Text = normalize.Normalize(p.Text, m.opts.PreserveCase)
		if p.Text == "" {
			continue
		}
		posts = append(posts, p)
	}
	rep.Fetched = len(posts)

	unseen, err := m.opts.Store.UnseenPosts(posts)
	if err != nil {
		return rep, fmt.Errorf("deduplicating posts: %w", err)
	}
	rep.New = len(unseen)
	m.metrics.PostsNew.Add(float64(len(unseen)))

	ops, failed := m.extract(ctx, unseen, &rep)

	if err := m.opts.Store.SaveOpportunities(ops); err != nil {
		return rep, fmt.Errorf("saving opportunities: %w", err)
	}

	// Posts whose extraction failed stay unseen so the next cycle retries them.
	processed := make([]store.Post, 0, len(unseen))
	for _, p := range unseen {
		if !failed[p.ID] {
			processed = append(processed, p)
		}
	}
	if err := m.opts.Store.SavePosts(processed); err != nil {
		return rep, fmt.Errorf("saving posts: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	rep.Notified = m.alert(ctx)

	if err := m.opts.Store.SetLastRun(); err != nil {
		return rep, fmt.Errorf("recording run: %w", err)
	}

	rep.Duration = time.Since(start)
	m.metrics.RecordCycle(start)
	m.log.Info("cycle complete",
		zap.Int("fetched", rep.Fetched),
		zap.Int("new", rep.New),
		zap.Int("candidates", rep.Candidates),
		zap.Int("skipped", rep.Skipped),
		zap.Int("failed", rep.Failed),
		zap.Int("notified", rep.Notified),
		zap.Duration("duration", rep.Duration),
	)
	return rep, nil
}

func (m *Monitor) extract(ctx context.Context, posts []store.Post, rep *Report) ([]store.Opportunity, map[string]bool) {
	input := make([]domain.RawPost, len(posts))
	byID := make(map[string]store.Post, len(posts))
	for i, p := range posts {
		input[i] = p.RawPost()
		byID[p.ID] = p
	}

	batch := m.builder.BuildAll(ctx, input, m.opts.Workers)
	m.metrics.PostsProcessed.Add(float64(len(posts)))
	m.metrics.InsufficientSignal.Add(float64(batch.Skipped))

	failed := make(map[string]bool, len(batch.Errors))
	for _, err := range batch.Errors {
		var pe *opportunity.PostError
		if errors.As(err, &pe) {
			failed[pe.ID] = true
		}
		if errors.Is(err, annotate.ErrUnavailable) {
			m.metrics.AnnotationFailures.Inc()
		}
		m.log.Warn("extraction failed", zap.Error(err))
	}

	ops := make([]store.Opportunity, 0, len(batch.Candidates))
	for _, c := range batch.Candidates {
		p := byID[c.SourceID]
		kind := classify.Other
		if m.opts.Classifier != nil {
			kind = m.opts.Classifier.Classify(p.Text)
		}
		ops = append(ops, store.FromCandidate(c, p, string(kind)))
		m.metrics.CandidatesBuilt.WithLabelValues(string(kind)).Inc()
		m.metrics.ConfidenceScore.Observe(c.ConfidenceScore)
	}

	rep.Candidates = len(ops)
	rep.Skipped = batch.Skipped
	rep.Failed = len(batch.Errors)
	return ops, failed
}

// alert sends every recent opportunity not yet alerted on. Delivery errors
// are logged; the opportunities stay pending for the next cycle.
func (m *Monitor) alert(ctx context.Context) int {
	if m.opts.Alerter == nil || !m.opts.Alerter.Enabled() {
		return 0
	}

	q := store.QueryOpts{Unnotified: true}
	if m.opts.MaxAge > 0 {
		q.Since = time.Now().Add(-m.opts.MaxAge)
	}
	pending, err := m.opts.Store.GetOpportunities(q)
	if err != nil {
		m.log.Warn("loading pending alerts failed", zap.Error(err))
		return 0
	}

	ids, err := m.opts.Alerter.Notify(ctx, pending)
	if err != nil {
		m.log.Warn("some alerts failed", zap.Error(err))
	}
	if len(ids) == 0 {
		return 0
	}
	if err := m.opts.Store.MarkNotified(ids...); err != nil {
		m.log.Warn("marking notified failed", zap.Error(err))
		return 0
	}
	return len(ids)
}

// Run performs a cycle immediately and then every interval until ctx is
// cancelled. A failed cycle is logged and retried at the next tick.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := m.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			m.log.Error("cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
