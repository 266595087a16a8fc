package cmd

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheuskafuri/dropwatch/internal/annotate"
	"github.com/matheuskafuri/dropwatch/internal/classify"
	"github.com/matheuskafuri/dropwatch/internal/config"
	"github.com/matheuskafuri/dropwatch/internal/feed"
	"github.com/matheuskafuri/dropwatch/internal/metrics"
	"github.com/matheuskafuri/dropwatch/internal/monitor"
	"github.com/matheuskafuri/dropwatch/internal/opportunity"
)

// listAnnotator labels configured names as organizations.
type listAnnotator struct {
	orgs []string
	err  error
}

func (l listAnnotator) Annotate(_ context.Context, text string) (annotate.Document, error) {
	if l.err != nil {
		return nil, l.err
	}
	var spans []annotate.Span
	for _, o := range l.orgs {
		if strings.Contains(text, o) {
			spans = append(spans, annotate.Span{Text: o, Label: annotate.LabelOrg})
		}
	}
	return annotate.NewDocument(spans, strings.SplitAfter(text, ". ")), nil
}

func testClassifier() *classify.Classifier {
	return classify.New(config.Keywords{Airdrop: []string{"airdrop", "giveaway"}, Testnet: []string{"testnet"}})
}

func TestExtractPost(t *testing.T) {
	b := opportunity.NewBuilder(listAnnotator{orgs: []string{"NewProject"}})

	res, err := extractPost(context.Background(), extractRequest{
		ID:           "42",
		Text:         "NewProject announces $NEWP giveaway! Deadline: 2025-01-01. https://t.co/x @NewProject",
		PreserveCase: true,
	}, b, testClassifier())
	require.NoError(t, err)

	assert.Equal(t, classify.Airdrop, res.Kind)
	assert.NotContains(t, res.Text, "https://")
	require.NotNil(t, res.Candidate)
	assert.Equal(t, "42", res.Candidate.SourceID)
	require.NotNil(t, res.Candidate.TokenSymbol)
	assert.Equal(t, "NEWP", *res.Candidate.TokenSymbol)
	require.NotNil(t, res.Breakdown)
	assert.Equal(t, res.Candidate.ConfidenceScore, res.Breakdown.Final)
	require.NotNil(t, res.Candidate.Deadline)
	assert.Equal(t, "deadline", res.DeadlineRule)
}

func TestExtractPostDeadlineRule(t *testing.T) {
	b := opportunity.NewBuilder(listAnnotator{orgs: []string{"zkchain"}})

	res, err := extractPost(context.Background(), extractRequest{ID: "7", Text: "zkchain testnet campaign ends on March 3, 2025."}, b, testClassifier())
	require.NoError(t, err)
	require.NotNil(t, res.Candidate)
	require.NotNil(t, res.Candidate.Deadline)
	assert.Equal(t, "ends", res.DeadlineRule)

	res, err = extractPost(context.Background(), extractRequest{ID: "8", Text: "zkchain testnet is live"}, b, testClassifier())
	require.NoError(t, err)
	require.NotNil(t, res.Candidate)
	assert.Empty(t, res.DeadlineRule)
}

func TestExtractPostDefaultConfig(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	require.False(t, cfg.PreserveCase)

	ann, err := annotate.New(cfg.Annotator, "")
	require.NoError(t, err)
	defer annotate.Close(ann)

	res, err := extractPost(context.Background(), extractRequest{
		ID:           "9",
		Text:         "Arbitrum Foundation launches Odyssey testnet! How to participate: bridge and swap.",
		PreserveCase: cfg.PreserveCase,
	}, opportunity.NewBuilder(ann), classify.New(cfg.Keywords))
	require.NoError(t, err)

	require.NotNil(t, res.Candidate, "lower-cased post should still resolve a known project")
	require.NotNil(t, res.Candidate.ProjectName)
	assert.Equal(t, "arbitrum", *res.Candidate.ProjectName)
	assert.Equal(t, classify.Testnet, res.Kind)
}

func TestExtractPostInsufficientSignal(t *testing.T) {
	b := opportunity.NewBuilder(listAnnotator{})

	res, err := extractPost(context.Background(), extractRequest{ID: "1", Text: "good morning everyone"}, b, testClassifier())
	require.NoError(t, err)
	assert.Nil(t, res.Candidate)
	assert.Nil(t, res.Breakdown)
	assert.Equal(t, classify.Other, res.Kind)
}

func TestExtractPostAnnotatorFailure(t *testing.T) {
	b := opportunity.NewBuilder(listAnnotator{err: annotate.ErrUnavailable})

	_, err := extractPost(context.Background(), extractRequest{ID: "1", Text: "anything"}, b, testClassifier())
	require.Error(t, err)
	assert.True(t, errors.Is(err, annotate.ErrUnavailable))
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, monitor.Report{
		Fetched:     10,
		New:         4,
		Candidates:  2,
		Skipped:     1,
		Failed:      1,
		Notified:    2,
		FetchErrors: []error{&feed.SourceError{Source: "A", Err: errors.New("timeout")}},
	})
	out := buf.String()
	for _, want := range []string{"Fetched 10 post(s), 4 new.", "Opportunities: 2 (skipped 1, failed 1).", "Alerted on 2", "[warn] timeout"} {
		assert.Contains(t, out, want)
	}
}

func TestMetricsMux(t *testing.T) {
	m := metrics.New()
	m.PostsNew.Add(3)
	srv := httptest.NewServer(metricsMux(m.Handler()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body bytes.Buffer
	body.ReadFrom(resp.Body)
	assert.Contains(t, body.String(), "dropwatch_")
}
