// Package metrics exposes Prometheus metrics for the summarization pipeline.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SummariesTotal counts summarization runs by selection method and outcome.
	SummariesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdigest",
			Name:      "summaries_total",
			Help:      "Total number of summarization runs",
		},
		[]string{"method", "status"},
	)

	// StageDuration measures the duration of each pipeline stage.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "newsdigest",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// SummaryWords observes the word count of produced summaries.
	SummaryWords = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "newsdigest",
			Name:      "summary_words",
			Help:      "Distribution of summary word counts",
			Buckets:   []float64{0, 20, 40, 60, 80, 90, 100},
		},
	)

	// PairModelRequests counts calls to the external sequence-pair model.
	PairModelRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdigest",
			Name:      "pair_model_requests_total",
			Help:      "Total number of sequence-pair model requests",
		},
		[]string{"task", "status"},
	)

	// CacheLookups counts probability cache lookups.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdigest",
			Name:      "cache_lookups_total",
			Help:      "Total number of probability cache lookups",
		},
		[]string{"cache", "result"},
	)

	// HTTPRequests counts API requests by route and status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdigest",
			Name:      "http_requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"route", "status"},
	)

	// HTTPRetries counts replayed requests after a transient failure.
	HTTPRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdigest",
			Name:      "http_retries_total",
			Help:      "Total number of replayed API requests",
		},
		[]string{"path"},
	)

	// RateLimited counts rejected requests by caller kind (key or ip).
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdigest",
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter",
		},
		[]string{"caller"},
	)
)

// RecordSummary records a finished summarization run.
func RecordSummary(method, status string, words int) {
	SummariesTotal.WithLabelValues(method, status).Inc()
	if status == "ok" {
		SummaryWords.Observe(float64(words))
	}
}

// RecordStage records how long a pipeline stage took.
func RecordStage(stage string, seconds float64) {
	StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordPairModel records one request to the pair model.
func RecordPairModel(task, status string) {
	PairModelRequests.WithLabelValues(task, status).Inc()
}

// RecordCacheLookup records a hit or miss.
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordHTTPRequest records one served request; route is the matched pattern.
func RecordHTTPRequest(route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// RecordRetry records one replay of a request.
func RecordRetry(path string) {
	HTTPRetries.WithLabelValues(path).Inc()
}

// RecordRateLimited records a rejected request.
func RecordRateLimited(caller string) {
	RateLimited.WithLabelValues(caller).Inc()
}
