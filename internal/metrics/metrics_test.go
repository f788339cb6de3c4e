package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveUpstream(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.ObserveUpstream("jobs.list", "ok", 20*time.Millisecond)
	c.ObserveUpstream("jobs.list", "ok", 30*time.Millisecond)
	c.ObserveUpstream("jobs.list", "transport_error", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.upstreamRequests.WithLabelValues("jobs.list", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.upstreamRequests.WithLabelValues("jobs.list", "transport_error")))
}

func TestRecordWorkflowAndUploads(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordWorkflow("job.fill", "success")
	c.RecordUploadRejected("avatar", "too_large")
	c.RecordUploadRejected("avatar", "too_large")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.workflowOutcomes.WithLabelValues("job.fill", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.uploadsRejected.WithLabelValues("avatar", "too_large")))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveUpstream("x", "ok", time.Millisecond)
		c.RecordWorkflow("x", "ok")
		c.RecordUploadRejected("x", "y")
		c.RecordPanelRequest("GET", 200)
		c.SessionOpened()
		c.SessionClosed()
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	c.RecordPanelRequest("GET", 200)
	c.SessionOpened()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `panel_http_requests_total{code="200",method="GET"} 1`)
	assert.Contains(t, rec.Body.String(), "panel_active_sessions 1")
}
