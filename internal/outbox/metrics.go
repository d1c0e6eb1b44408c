package outbox

import "github.com/prometheus/client_golang/prometheus"

var (
	deliveredCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "activities_api",
		Subsystem: "outbox",
		Name:      "events_delivered_total",
		Help:      "Number of participation events successfully published to Kafka.",
	})

	failedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "activities_api",
		Subsystem: "outbox",
		Name:      "events_failed_total",
		Help:      "Number of participation events that failed to publish and were dead-lettered.",
	})

	droppedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "activities_api",
		Subsystem: "outbox",
		Name:      "events_dropped_total",
		Help:      "Number of events refused because the outbox queue was full.",
	})

	queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "activities_api",
		Subsystem: "outbox",
		Name:      "queue_depth",
		Help:      "Events waiting for delivery.",
	})

	batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "activities_api",
		Subsystem: "outbox",
		Name:      "batch_duration_seconds",
		Help:      "Time spent delivering outbox batches.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})
)

func init() {
	prometheus.MustRegister(deliveredCounter, failedCounter, droppedCounter, queueDepth, batchDuration)
}
