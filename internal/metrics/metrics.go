package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lavka",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	updatesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lavka",
			Name:      "updates_processed_total",
			Help:      "Telegram updates by kind.",
		},
		[]string{"kind"},
	)

	ordersCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lavka",
			Name:      "orders_created_total",
			Help:      "Orders committed from carts.",
		},
	)

	updateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lavka",
			Name:      "update_duration_seconds",
			Help:      "Update processing time.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, updatesProcessed, ordersCreated, updateDuration)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncUpdate counts a processed update: "message", "command" or "callback".
func IncUpdate(kind string) {
	updatesProcessed.WithLabelValues(kind).Inc()
}

// IncOrderCreated counts a committed order.
func IncOrderCreated() {
	ordersCreated.Inc()
}

// ObserveUpdateDuration records how long an update took, in seconds.
func ObserveUpdateDuration(seconds float64) {
	updateDuration.Observe(seconds)
}
