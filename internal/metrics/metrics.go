// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every tracker collector. It is not the default registerer.
var Registry = prometheus.NewRegistry()

var (
	SubscriptionsOpened = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feed_subscriptions_opened_total",
		Help: "Store subscriptions opened by transaction feeds.",
	})
	SubscriptionsCanceled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feed_subscriptions_canceled_total",
		Help: "Store subscriptions canceled by transaction feeds.",
	})
	SubscriptionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "feed_subscriptions_active",
		Help: "Store subscriptions currently open.",
	})
	Snapshots = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feed_snapshots_total",
		Help: "Snapshots applied to transaction feeds.",
	})
	SubscriptionErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feed_errors_total",
		Help: "Store errors reported to transaction feeds.",
	})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"path", "status"})
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})

	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_cache_hits_total",
		Help: "Dashboard loads served from cache.",
	})
	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_cache_misses_total",
		Help: "Dashboard loads that queried the store.",
	})

	ExportRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "export_runs_total",
		Help: "Monthly report exports by result.",
	}, []string{"result"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		SubscriptionsOpened,
		SubscriptionsCanceled,
		SubscriptionsActive,
		Snapshots,
		SubscriptionErrors,
		HTTPRequests,
		HTTPDuration,
		CacheHits,
		CacheMisses,
		ExportRuns,
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
