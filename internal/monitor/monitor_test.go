package monitor

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheuskafuri/dropwatch/internal/annotate"
	"github.com/matheuskafuri/dropwatch/internal/classify"
	"github.com/matheuskafuri/dropwatch/internal/config"
	"github.com/matheuskafuri/dropwatch/internal/logging"
	"github.com/matheuskafuri/dropwatch/internal/metrics"
	"github.com/matheuskafuri/dropwatch/internal/store"
)

type fakeFetcher struct {
	mu    sync.Mutex
	posts map[string][]store.Post
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, s config.Source) ([]store.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	posts, ok := f.posts[s.Name]
	if !ok {
		return nil, errors.New("fetching " + s.Name + ": unreachable")
	}
	return posts, nil
}

// gazetteer labels known names as ORG and fails on texts containing "boom".
type gazetteer []string

func (g gazetteer) Annotate(_ context.Context, text string) (annotate.Document, error) {
	if strings.Contains(text, "boom") {
		return nil, annotate.ErrUnavailable
	}
	var spans []annotate.Span
	for _, name := range g {
		if strings.Contains(text, name) {
			spans = append(spans, annotate.Span{Text: name, Label: annotate.LabelOrg})
		}
	}
	return annotate.NewDocument(spans, strings.SplitAfter(text, ". ")), nil
}

type fakeAlerter struct {
	min   float64
	err   error
	limit int // deliver at most limit ops when err is set
	seen  [][]store.Opportunity
}

func (a *fakeAlerter) Enabled() bool { return true }

func (a *fakeAlerter) Notify(_ context.Context, ops []store.Opportunity) ([]string, error) {
	a.seen = append(a.seen, ops)
	var ids []string
	for _, o := range ops {
		if o.ConfidenceScore >= a.min {
			ids = append(ids, o.SourceID)
		}
	}
	if a.err != nil {
		if a.limit < len(ids) {
			ids = ids[:a.limit]
		}
		return ids, a.err
	}
	return ids, nil
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func samplePosts() map[string][]store.Post {
	now := time.Now()
	return map[string][]store.Post{
		"AirdropAlert": {
			{ID: "1", Source: "AirdropAlert", Published: now,
				Text: "#Airdrop: NewProject announces $NEWP giveaway. Deadline: 2025-01-01. How to participate: follow and retweet. https://t.co/x"},
			{ID: "2", Source: "AirdropAlert", Published: now, Text: "gm everyone"},
		},
		"TestnetAnnounce": {
			{ID: "3", Source: "TestnetAnnounce", Published: now, Text: "zkchain testnet launch is live"},
			{ID: "4", Source: "TestnetAnnounce", Published: now, Text: "zkchain boom"},
		},
	}
}

func newMonitor(t *testing.T, f *fakeFetcher, db Store, alerter Alerter) (*Monitor, *metrics.Metrics) {
	log, _ := logging.NewTest()
	met := metrics.New()
	kw := config.Keywords{Airdrop: []string{"airdrop", "giveaway"}, Testnet: []string{"testnet", "testnet launch"}}
	return New(Options{
		Fetcher:    f,
		Sources:    []config.Source{{Name: "AirdropAlert"}, {Name: "TestnetAnnounce"}, {Name: "Offline"}},
		Store:      db,
		Annotator:  gazetteer{"NewProject", "zkchain"},
		Classifier: classify.New(kw),
		Alerter:    alerter,
		Workers:    2,
		MaxAge:     7 * 24 * time.Hour,
		Logger:     log,
		Metrics:    met,
		// Token symbols are only recognised in upper case.
		PreserveCase: true,
	}), met
}

func TestRunOnce(t *testing.T) {
	db := testStore(t)
	alerter := &fakeAlerter{min: 60}
	m, met := newMonitor(t, &fakeFetcher{posts: samplePosts()}, db, alerter)

	rep, err := m.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, rep.Fetched)
	assert.Equal(t, 4, rep.New)
	assert.Equal(t, 2, rep.Candidates)
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, 1, rep.Notified)
	require.Len(t, rep.FetchErrors, 1)

	o, err := db.GetOpportunity("1")
	require.NoError(t, err)
	assert.Equal(t, "NewProject", *o.ProjectName)
	assert.Equal(t, "NEWP", *o.TokenSymbol)
	assert.Equal(t, 70.0, o.ConfidenceScore)
	assert.Equal(t, "airdrop", o.Kind)
	assert.True(t, o.Notified)
	assert.NotContains(t, o.Text, "https://")

	z, err := db.GetOpportunity("3")
	require.NoError(t, err)
	assert.Equal(t, "testnet", z.Kind)
	assert.False(t, z.Notified, "below threshold")

	assert.Equal(t, 1.0, testutil.ToFloat64(met.FetchErrors.WithLabelValues("Offline")))
	assert.Equal(t, 1.0, testutil.ToFloat64(met.AnnotationFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(met.InsufficientSignal))

	_, ok := db.LastRun()
	assert.True(t, ok)
}

func TestRunOnceDedupesAndRetriesFailures(t *testing.T) {
	db := testStore(t)
	f := &fakeFetcher{posts: samplePosts()}
	m, _ := newMonitor(t, f, db, &fakeAlerter{min: 60})

	_, err := m.RunOnce(context.Background())
	require.NoError(t, err)

	rep, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.New, "only the failed post is retried")
	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, 0, rep.Notified, "already alerted")
}

func TestRunOnceAlertFailureLeavesPending(t *testing.T) {
	db := testStore(t)
	alerter := &fakeAlerter{min: 60, err: errors.New("telegram down")}
	m, _ := newMonitor(t, &fakeFetcher{posts: samplePosts()}, db, alerter)

	rep, err := m.RunOnce(context.Background())
	require.NoError(t, err, "alert failures do not fail the cycle")
	assert.Equal(t, 0, rep.Notified)

	pending, err := db.GetOpportunities(store.QueryOpts{Unnotified: true})
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestRunOncePartialAlertMarksDelivered(t *testing.T) {
	db := testStore(t)
	now := time.Now()
	posts := map[string][]store.Post{
		"AirdropAlert": {
			{ID: "1", Source: "AirdropAlert", Published: now,
				Text: "#Airdrop: NewProject announces $NEWP giveaway. Deadline: 2025-01-01. How to participate: follow and retweet."},
			{ID: "2", Source: "AirdropAlert", Published: now.Add(-time.Minute),
				Text: "#Airdrop: zkchain announces $ZKC giveaway. Deadline: 2025-02-01. How to participate: bridge and swap."},
		},
	}
	alerter := &fakeAlerter{min: 60, limit: 1, err: errors.New("sending 2: 500")}
	m, _ := newMonitor(t, &fakeFetcher{posts: posts}, db, alerter)

	rep, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, alerter.seen, 1)
	require.Len(t, alerter.seen[0], 2)
	assert.Equal(t, 1, rep.Notified)

	first, err := db.GetOpportunity(alerter.seen[0][0].SourceID)
	require.NoError(t, err)
	assert.True(t, first.Notified)

	pending, err := db.GetOpportunities(store.QueryOpts{Unnotified: true})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, alerter.seen[0][1].SourceID, pending[0].SourceID)
}

func TestExtractCountsOnlyAnnotatorOutages(t *testing.T) {
	db := testStore(t)
	m, met := newMonitor(t, &fakeFetcher{}, db, nil)
	posts := samplePosts()["AirdropAlert"]

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var rep Report
	_, failed := m.extract(ctx, posts, &rep)
	assert.Equal(t, len(posts), rep.Failed)
	assert.Len(t, failed, len(posts))
	assert.Equal(t, 0.0, testutil.ToFloat64(met.AnnotationFailures), "cancellation is not an annotator outage")

	rep = Report{}
	_, _ = m.extract(context.Background(), samplePosts()["TestnetAnnounce"], &rep)
	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, 1.0, testutil.ToFloat64(met.AnnotationFailures))
}

func TestRunOnceWithoutAlerter(t *testing.T) {
	db := testStore(t)
	m, _ := newMonitor(t, &fakeFetcher{posts: samplePosts()}, db, nil)

	rep, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Notified)
}

type failingStore struct{ Store }

func (failingStore) UnseenPosts([]store.Post) ([]store.Post, error) {
	return nil, errors.New("database is locked")
}

func TestRunOnceStoreFailure(t *testing.T) {
	m, _ := newMonitor(t, &fakeFetcher{posts: samplePosts()}, failingStore{}, nil)
	_, err := m.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestRunStopsOnCancel(t *testing.T) {
	db := testStore(t)
	f := &fakeFetcher{posts: samplePosts()}
	m, _ := newMonitor(t, f, db, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, 10*time.Millisecond) }()

	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.calls >= 6 // two cycles over three sources
	}, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
