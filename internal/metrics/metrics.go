package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	workflowOutcomes *prometheus.CounterVec
	uploadsRejected  *prometheus.CounterVec
	panelRequests    *prometheus.CounterVec
	activeSessions   prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewCollector registers every metric on reg. Pass prometheus.NewRegistry()
// in tests to avoid duplicate registration against the default registry.
func NewCollector(reg *prometheus.Registry) *Collector {
	c := &Collector{
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "panel_upstream_requests_total",
			Help: "Requests sent to the employer API by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "panel_upstream_request_duration_seconds",
			Help:    "Latency of employer API requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		workflowOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "panel_workflow_outcomes_total",
			Help: "Completed action workflows by action and outcome",
		}, []string{"action", "outcome"}),
		uploadsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "panel_uploads_rejected_total",
			Help: "Uploads rejected before reaching the network",
		}, []string{"kind", "reason"}),
		panelRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "panel_http_requests_total",
			Help: "HTTP requests served by the panel",
		}, []string{"method", "code"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "panel_active_sessions",
			Help: "Sessions opened minus sessions closed since start",
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		c.upstreamRequests,
		c.upstreamLatency,
		c.workflowOutcomes,
		c.uploadsRejected,
		c.panelRequests,
		c.activeSessions,
	)
	return c
}

// ObserveUpstream records one employer API call. A nil collector is a no-op
// so packages can be used without metrics wiring.
func (c *Collector) ObserveUpstream(endpoint, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	c.upstreamLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (c *Collector) RecordWorkflow(action, outcome string) {
	if c == nil {
		return
	}
	c.workflowOutcomes.WithLabelValues(action, outcome).Inc()
}

func (c *Collector) RecordUploadRejected(kind, reason string) {
	if c == nil {
		return
	}
	c.uploadsRejected.WithLabelValues(kind, reason).Inc()
}

func (c *Collector) RecordPanelRequest(method string, code int) {
	if c == nil {
		return
	}
	c.panelRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

func (c *Collector) SessionOpened() {
	if c == nil {
		return
	}
	c.activeSessions.Inc()
}

func (c *Collector) SessionClosed() {
	if c == nil {
		return
	}
	c.activeSessions.Dec()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
