// Package metrics exposes the Prometheus counters and histograms both
// binaries register at startup. Ambient observability, carried regardless
// of spec.md's feature-level non-goals.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal counts every request a binary's handler answered,
	// labeled by the request's type, the response's rcode, and which
	// binary (nameserver/resolver) handled it.
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dnscore_queries_total",
		Help: "Total number of DNS queries processed",
	}, []string{"qtype", "rcode", "protocol"})

	// QueryDuration times the handling of an already decoded request,
	// excluding decode and encode, labeled by which binary/path produced
	// the answer.
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dnscore_query_duration_seconds",
		Help:    "Histogram of query handling duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	// CacheOperations counts record-cache reads, labeled by hit/miss.
	CacheOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dnscore_cache_operations_total",
		Help: "Total number of record cache lookups by result",
	}, []string{"result"})

	// WorkerPoolQueueDepth tracks how many jobs are waiting for a free
	// worker, labeled by transport (udp/tcp), sampled periodically from
	// internal/transport.WorkerPool.QueueDepth.
	WorkerPoolQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dnscore_worker_pool_queue_depth",
		Help: "Number of jobs waiting for a free worker",
	}, []string{"protocol"})

	// UpstreamQueriesTotal counts nameserver round-trips a recursive
	// lookup issued, labeled by outcome (answered/error).
	UpstreamQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dnscore_upstream_queries_total",
		Help: "Total number of upstream nameserver queries issued by the resolver",
	}, []string{"outcome"})

	// UpstreamQueryDuration times one nameserver UDP round-trip.
	UpstreamQueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dnscore_upstream_query_duration_seconds",
		Help:    "Histogram of a single upstream nameserver round-trip duration",
		Buckets: prometheus.DefBuckets,
	})
)
