package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tool metrics
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wppmcp_tool_calls_total",
			Help: "Total tool invocations",
		},
		[]string{"tool", "outcome"}, // "ok" or "error"
	)

	ToolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wppmcp_tool_duration_seconds",
			Help:    "Tool invocation duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5, 30},
		},
		[]string{"tool"},
	)

	// Bridge metrics
	BridgeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wppmcp_bridge_requests_total",
			Help: "Total bridge HTTP requests",
		},
		[]string{"path", "outcome"},
	)

	BridgeRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wppmcp_bridge_request_duration_seconds",
			Help:    "Bridge HTTP request duration",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 5, 30, 60},
		},
		[]string{"path"},
	)

	// Store metrics
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wppmcp_store_query_duration_seconds",
			Help:    "Local store query duration",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
		[]string{"query"},
	)

	// HTTP transport metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wppmcp_http_requests_total",
			Help: "Total HTTP requests served",
		},
		[]string{"method", "path", "status"},
	)
)

// ObserveQuery returns a func that records the elapsed time of a store query
// when called.
func ObserveQuery(name string) func() {
	start := time.Now()
	return func() {
		StoreQueryDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}

// Outcome maps an error to the outcome label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
