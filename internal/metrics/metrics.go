// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for ListingLoads.
const (
	LoadPublished = "published"
	LoadStale     = "stale"
	LoadEmpty     = "empty_search"
	LoadFailed    = "error"
	LoadDropped   = "debounced"
)

var (
	// Registry holds every collector of the service. A private registry keeps
	// tests independent from the global default one.
	Registry = prometheus.NewRegistry()

	ListingLoads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aslipolitik",
		Subsystem: "listing",
		Name:      "loads_total",
		Help:      "Listing loads by outcome.",
	}, []string{"outcome"})

	StoreQueries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "aslipolitik",
		Subsystem: "listing",
		Name:      "store_queries_total",
		Help:      "Listing queries that reached PostgreSQL.",
	})

	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aslipolitik",
		Subsystem: "listing",
		Name:      "cache_lookups_total",
		Help:      "Listing cache lookups by result.",
	}, []string{"result"})

	CoalescedQueries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "aslipolitik",
		Subsystem: "listing",
		Name:      "coalesced_queries_total",
		Help:      "Listing queries answered by an identical in-flight query.",
	})

	Notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aslipolitik",
		Subsystem: "notify",
		Name:      "webhook_calls_total",
		Help:      "Outbound webhook calls by hook and result.",
	}, []string{"hook", "result"})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aslipolitik",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method and status code.",
	}, []string{"method", "code"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "aslipolitik",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		ListingLoads,
		StoreQueries,
		CacheLookups,
		CoalescedQueries,
		Notifications,
		HTTPRequests,
		HTTPDuration,
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
