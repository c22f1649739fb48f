package koala

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	callsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "koala_client",
			Name:      "calls_total",
			Help:      "API calls completed by the client, by outcome.",
		},
		[]string{"method", "outcome"},
	)

	apiErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "koala_client",
			Name:      "api_errors_total",
			Help:      "Server failures (status >= 500) surfaced as APIError.",
		},
		[]string{"status"},
	)

	transportRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "koala_transport",
			Name:      "requests_total",
			Help:      "HTTP requests that produced a response.",
		},
		[]string{"method", "status"},
	)

	transportRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "koala_transport",
			Name:      "request_duration_seconds",
			Help:      "HTTP round-trip latency, retries included.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	transportRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "koala_transport",
			Name:      "retries_total",
			Help:      "Network-level failures that were retried.",
		},
	)
)

// Call outcomes used as the "outcome" label.
const (
	outcomeOK        = "ok"
	outcomeComponent = "component"
	outcomeAPIError  = "api_error"
	outcomeTransport = "transport_error"
	outcomeDecode    = "decode_error"
)

func statusLabel(status int) string { return strconv.Itoa(status) }
