package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and fetch Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mailsonar",
			Name:      "searches_total",
			Help:      "Total number of semantic searches",
		},
		[]string{"status"},
	)

	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mailsonar",
			Name:      "search_duration_seconds",
			Help:      "End to end search duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	SearchFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mailsonar",
			Name:      "search_fallbacks_total",
			Help:      "Searches where no result met the threshold and the best match was returned instead",
		},
	)

	FetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mailsonar",
			Name:      "fetches_total",
			Help:      "Total number of mailbox fetches",
		},
		[]string{"status"},
	)

	FetchedEmails = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mailsonar",
			Name:      "fetched_emails",
			Help:      "Number of emails returned per mailbox fetch",
			Buckets:   []float64{0, 10, 50, 100, 250, 500, 1000, 5000},
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchFallbacksTotal)
	prometheus.MustRegister(FetchesTotal)
	prometheus.MustRegister(FetchedEmails)
	searchMetricsRegistered = true
}
