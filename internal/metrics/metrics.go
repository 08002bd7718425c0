// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	tenantResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "servicepulse",
		Subsystem: "tenant",
		Name:      "resolutions_total",
		Help:      "Host to tenant resolutions broken down by source and outcome.",
	}, []string{"source", "outcome"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "servicepulse",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests broken down by method and status class.",
	}, []string{"method", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "servicepulse",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "servicepulse",
		Subsystem: "upload",
		Name:      "files_total",
		Help:      "Uploaded files broken down by folder and result.",
	}, []string{"folder", "result"})

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "servicepulse",
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	})

	logDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "servicepulse",
		Subsystem: "log",
		Name:      "dropped_total",
		Help:      "Log records discarded because the async buffer was full.",
	})

	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "servicepulse",
		Subsystem: "breaker",
		Name:      "state",
		Help:      "Circuit breaker position: 0 closed, 1 open, 2 half-open.",
	}, []string{"name"})

	proxyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edgeproxy",
		Name:      "requests_total",
		Help:      "Requests forwarded by the edge proxy broken down by outcome.",
	}, []string{"outcome"})
)

// Resolution outcomes.
const (
	OutcomeResolved  = "resolved"
	OutcomeNotFound  = "not_found"
	OutcomeSuspended = "suspended"
	OutcomeError     = "error"
)

// RecordResolution counts one tenant lookup. source is "cache" or "db".
func RecordResolution(source, outcome string) {
	tenantResolutions.WithLabelValues(source, outcome).Inc()
}

// RecordHTTP counts one finished HTTP request.
func RecordHTTP(method string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, statusClass(status)).Inc()
	httpLatency.WithLabelValues(method).Observe(d.Seconds())
}

// RecordUpload counts one stored or rejected file.
func RecordUpload(folder string, ok bool) {
	result := "rejected"
	if ok {
		result = "stored"
	}
	uploads.WithLabelValues(folder, result).Inc()
}

// RecordRateLimited counts one 429 response.
func RecordRateLimited() {
	rateLimited.Inc()
}

// RecordProxy counts one proxied request. outcome is one of "forwarded",
// "suspended" or "upstream_error".
func RecordProxy(outcome string) {
	proxyRequests.WithLabelValues(outcome).Inc()
}

// RecordLogDropped counts one discarded log record.
func RecordLogDropped() {
	logDropped.Inc()
}

// RecordBreakerState publishes the position of the named circuit breaker.
func RecordBreakerState(name string, state int) {
	breakerState.WithLabelValues(name).Set(float64(state))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
