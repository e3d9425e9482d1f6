// Package metrics exposes the server's runtime counters and gauges,
// grounded on common/oc_metrics.go (teacher): a package-level singleton
// struct of named measures, built once via sync.Once, labeled along the
// same small set of dimensions (fs op, cache hit/miss) the teacher uses
// for its GCS and file-system metrics. Here the collector library is
// prometheus/client_golang rather than OpenCensus, per SPEC_FULL.md §11's
// domain-stack wiring.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// FSOpLabel labels a request-latency observation by the dispatched operation
// name, mirroring the teacher's FSOp dimension.
const FSOpLabel = "fs_op"

// CacheResultLabel labels a block cache access as a hit or miss.
const CacheResultLabel = "result"

type metrics struct {
	requestLatency *prometheus.HistogramVec
	requestsTotal  *prometheus.CounterVec

	cacheAccessTotal  *prometheus.CounterVec
	cacheEvictedTotal prometheus.Counter

	workerQueueDepth *prometheus.GaugeVec
}

var (
	once sync.Once
	m    *metrics
)

func instance() *metrics {
	once.Do(func() {
		m = &metrics{
			requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "userlandfs",
				Name:      "request_duration_seconds",
				Help:      "Latency of dispatched requests, by operation.",
				Buckets:   prometheus.DefBuckets,
			}, []string{FSOpLabel}),
			requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "userlandfs",
				Name:      "requests_total",
				Help:      "Count of dispatched requests, by operation and outcome.",
			}, []string{FSOpLabel, "outcome"}),
			cacheAccessTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "userlandfs",
				Subsystem: "block_cache",
				Name:      "access_total",
				Help:      "Block cache accesses, by hit or miss.",
			}, []string{CacheResultLabel}),
			cacheEvictedTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "userlandfs",
				Subsystem: "block_cache",
				Name:      "evicted_total",
				Help:      "Blocks evicted from the normal list to make room for a new entry.",
			}),
			workerQueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "userlandfs",
				Subsystem: "worker",
				Name:      "queue_depth",
				Help:      "In-flight requests per worker class.",
			}, []string{"class"}),
		}
	})
	return m
}

// Registry returns a new prometheus.Registry with every collector
// registered, for a caller to expose via an HTTP handler or push
// gateway.
func Registry() *prometheus.Registry {
	r := prometheus.NewRegistry()
	mm := instance()
	r.MustRegister(mm.requestLatency, mm.requestsTotal, mm.cacheAccessTotal, mm.cacheEvictedTotal, mm.workerQueueDepth)
	return r
}

// ObserveRequest records a dispatched request's latency in seconds and
// bumps its outcome counter ("ok" or "error").
func ObserveRequest(op string, seconds float64, ok bool) {
	mm := instance()
	mm.requestLatency.WithLabelValues(op).Observe(seconds)
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	mm.requestsTotal.WithLabelValues(op, outcome).Inc()
}

// RecordCacheAccess bumps the block cache hit/miss counter.
func RecordCacheAccess(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	instance().cacheAccessTotal.WithLabelValues(result).Inc()
}

// RecordCacheEviction bumps the eviction counter.
func RecordCacheEviction() {
	instance().cacheEvictedTotal.Inc()
}

// SetWorkerQueueDepth reports how many requests a worker class currently
// has in flight.
func SetWorkerQueueDepth(class string, depth int) {
	instance().workerQueueDepth.WithLabelValues(class).Set(float64(depth))
}
