package personalization

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "personalization",
			Subsystem: "service",
			Name:      "requests_total",
			Help:      "Personalization requests by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "personalization",
			Subsystem: "service",
			Name:      "request_duration_seconds",
			Help:      "Personalization request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	feedItems = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "personalization",
			Subsystem: "feed",
			Name:      "items",
			Help:      "Items returned per feed page.",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)

	// droppedItemsTotal counts ranked ids that had no stored content.
	droppedItemsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "personalization",
			Subsystem: "feed",
			Name:      "dropped_items_total",
			Help:      "Ranked content ids missing from the store.",
		},
	)

	searchFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "personalization",
			Subsystem: "feed",
			Name:      "search_failures_total",
			Help:      "Feed queries the search index failed to answer.",
		},
	)
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
