package outbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "personalization",
			Subsystem: "outbox",
			Name:      "rows_total",
			Help:      "Outbox rows applied to the search index by op and result.",
		},
		[]string{"op", "result"},
	)

	batchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "personalization",
			Subsystem: "outbox",
			Name:      "batch_duration_seconds",
			Help:      "Time spent leasing and applying one outbox batch.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	pendingRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "personalization",
			Subsystem: "outbox",
			Name:      "pending_rows",
			Help:      "Outbox rows waiting to be applied.",
		},
	)
)
