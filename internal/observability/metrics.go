// Package observability holds the Prometheus collectors shared across the service.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	signupCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activities_api",
		Subsystem: "directory",
		Name:      "signups_total",
		Help:      "Number of successful signups per activity.",
	}, []string{"activity"})

	unregisterCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activities_api",
		Subsystem: "directory",
		Name:      "unregistrations_total",
		Help:      "Number of successful unregistrations per activity.",
	}, []string{"activity"})

	rejectedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activities_api",
		Subsystem: "directory",
		Name:      "rejected_mutations_total",
		Help:      "Roster changes refused by the directory, labeled by operation and reason.",
	}, []string{"operation", "reason"})

	participantsGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "activities_api",
		Subsystem: "directory",
		Name:      "participants",
		Help:      "Current roster size per activity.",
	}, []string{"activity"})

	publishFailureCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activities_api",
		Subsystem: "events",
		Name:      "publish_failures_total",
		Help:      "Participation events that failed to encode or publish, by event type.",
	}, []string{"event_type"})

	requestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activities_api",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served, labeled by route pattern, method and status.",
	}, []string{"route", "method", "status"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "activities_api",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency of HTTP requests by route pattern.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"route", "method"})
)

func init() {
	prometheus.MustRegister(signupCounter, unregisterCounter, rejectedCounter, participantsGauge, publishFailureCounter, requestCounter, requestDuration)
}

// RecordSignup counts a successful signup.
func RecordSignup(activity string) {
	signupCounter.WithLabelValues(activity).Inc()
}

// RecordUnregister counts a successful unregistration.
func RecordUnregister(activity string) {
	unregisterCounter.WithLabelValues(activity).Inc()
}

// RecordPublishFailure counts an event that could not be handed to the publisher.
func RecordPublishFailure(eventType string) {
	publishFailureCounter.WithLabelValues(eventType).Inc()
}

// RecordRejected counts a refused signup or unregistration.
func RecordRejected(operation, reason string) {
	rejectedCounter.WithLabelValues(operation, reason).Inc()
}

// SetParticipants sets the roster gauge. Callers hold the store's write lock so
// the gauge cannot fall behind a concurrent change.
func SetParticipants(activity string, participants int) {
	participantsGauge.WithLabelValues(activity).Set(float64(participants))
}

// ObserveRequest records a served HTTP request.
func ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	requestCounter.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
