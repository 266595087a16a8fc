package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.PostsProcessed.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.PostsProcessed))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.PostsProcessed))
}

func TestRecordNotification(t *testing.T) {
	m := New()
	m.RecordNotification("telegram", nil)
	m.RecordNotification("telegram", nil)
	m.RecordNotification("email", errors.New("smtp down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Notifications.WithLabelValues("telegram", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("email", "error")))
}

func TestRecordCycle(t *testing.T) {
	m := New()
	m.RecordCycle(time.Now().Add(-2 * time.Second))

	assert.Equal(t, 1, testutil.CollectAndCount(m.CycleDuration))
	assert.Greater(t, testutil.ToFloat64(m.LastSuccess), 0.0)
}

func TestHandler(t *testing.T) {
	m := New()
	m.CandidatesBuilt.WithLabelValues("airdrop").Add(3)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `dropwatch_extraction_candidates_built_total{kind="airdrop"} 3`)
}
