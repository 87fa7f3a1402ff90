package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TileRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mapproxy_tile_requests_total",
		Help: "Total number of tile requests",
	})

	TileCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mapproxy_tile_cache_hits_total",
		Help: "Total number of meta-tile cache hits",
	})

	TileCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mapproxy_tile_cache_misses_total",
		Help: "Total number of meta-tile cache misses",
	})

	UpstreamRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mapproxy_upstream_requests_total",
		Help: "Total number of upstream source requests",
	})

	UpstreamErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mapproxy_upstream_errors_total",
		Help: "Total number of failed upstream source requests",
	})

	UpstreamLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mapproxy_upstream_latency_seconds",
		Help:    "Latency of upstream source fetches in seconds",
		Buckets: prometheus.DefBuckets,
	})

	TileLockWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mapproxy_tile_lock_wait_seconds",
		Help:    "Time spent waiting on per-meta-tile locks in seconds",
		Buckets: prometheus.DefBuckets,
	})
)
