// Package metrics exposes Prometheus collectors for the teamshop service.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "teamshop",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teamshop",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "teamshop",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	wsSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "teamshop",
			Subsystem: "realtime",
			Name:      "active_sessions",
			Help:      "Current number of connected WebSocket sessions.",
		},
	)

	eventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teamshop",
			Subsystem: "realtime",
			Name:      "events_published_total",
			Help:      "Total number of domain events published to list channels.",
		},
		[]string{"kind"},
	)

	eventFanout = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "teamshop",
			Subsystem: "realtime",
			Name:      "event_fanout_sessions",
			Help:      "Number of sessions each published event was fanned out to.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8), // 1 to 128
		},
		[]string{"kind"},
	)

	deliveriesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teamshop",
			Subsystem: "realtime",
			Name:      "deliveries_dropped_total",
			Help:      "Deliveries dropped because a session could not keep up.",
		},
		[]string{"kind"},
	)

	claimConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "teamshop",
			Subsystem: "lists",
			Name:      "claim_conflicts_total",
			Help:      "Claim or buy attempts rejected because another shopper won the race.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		wsSessions,
		eventsPublished,
		eventFanout,
		deliveriesDropped,
		claimConflicts,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one handled request.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequests.WithLabelValues(strings.ToUpper(method), path, status).Inc()
	httpDuration.WithLabelValues(strings.ToUpper(method), path).Observe(duration.Seconds())
}

// HTTPStatus formats a numeric status for the requests counter label.
func HTTPStatus(code int) string { return strconv.Itoa(code) }

// IncInFlight / DecInFlight track in-flight HTTP requests.
func IncInFlight() { httpInFlight.Inc() }
func DecInFlight() { httpInFlight.Dec() }

// SessionOpened / SessionClosed track connected WebSocket sessions.
func SessionOpened() { wsSessions.Inc() }
func SessionClosed() { wsSessions.Dec() }

// EventPublished records one published event and its fan-out width.
func EventPublished(kind string, sessions int) {
	eventsPublished.WithLabelValues(kind).Inc()
	eventFanout.WithLabelValues(kind).Observe(float64(sessions))
}

// DeliveryDropped records a delivery abandoned for one slow session.
func DeliveryDropped(kind string) {
	deliveriesDropped.WithLabelValues(kind).Inc()
}

// ClaimConflict records a lost claim/buy race.
func ClaimConflict() { claimConflicts.Inc() }
