package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mealbrowser_http_requests_total",
		Help: "Total number of HTTP requests served",
	}, []string{"method", "path", "status"})

	HttpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mealbrowser_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})

	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mealbrowser_upstream_requests_total",
		Help: "Requests sent to TheMealDB by endpoint and outcome",
	}, []string{"endpoint", "status"})

	UpstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mealbrowser_upstream_request_duration_seconds",
		Help:    "Duration of TheMealDB requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mealbrowser_cache_lookups_total",
		Help: "Reference list cache lookups by result",
	}, []string{"result"})

	StaleResponsesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mealbrowser_stale_responses_total",
		Help: "Meal query completions discarded because a newer query was issued",
	})
)
