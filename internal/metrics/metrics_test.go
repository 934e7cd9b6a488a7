package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Collect(t *testing.T) {
	m := New()
	m.ListingsScored.Add(3)
	m.Applications.WithLabelValues("applied").Inc()
	m.Applications.WithLabelValues("dry_run").Add(2)
	m.ApplicationsToday.Set(4)
	m.Score.Observe(9.2)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ListingsScored))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Applications.WithLabelValues("dry_run")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ApplicationsToday))

	// two engines in one process
	assert.NotPanics(t, func() { _ = New() })
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ListingsScored.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "jobapply_listings_scored_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
