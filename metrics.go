package urkeldb

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// storeMetrics mirrors the teacher's walMetrics shape — a flat struct of
// promauto-constructed collectors built once at Open and incremented
// inline by the operations that generate the events they count.
type storeMetrics struct {
	nodesWritten   prometheus.Counter
	nodesRead      prometheus.Counter
	bytesWritten   prometheus.Counter
	bytesRead      prometheus.Counter
	commits        prometheus.Counter
	commitSeconds  prometheus.Histogram
	rotations      prometheus.Counter
	cacheEvictions prometheus.Counter
	cacheSize      prometheus.Gauge
	recoveryBytes  prometheus.Counter
	historySteps   prometheus.Counter
}

func newStoreMetrics(reg prometheus.Registerer) *storeMetrics {
	return &storeMetrics{
		nodesWritten: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "urkeldb_nodes_written_total",
			Help: "urkeldb_nodes_written_total counts Internal/Leaf node records staged via write_node.",
		}),
		nodesRead: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "urkeldb_nodes_read_total",
			Help: "urkeldb_nodes_read_total counts node_size reads resolving a Hash child.",
		}),
		bytesWritten: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "urkeldb_bytes_written_total",
			Help: "urkeldb_bytes_written_total counts raw bytes appended to segment files across nodes, values, padding, and meta records.",
		}),
		bytesRead: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "urkeldb_bytes_read_total",
			Help: "urkeldb_bytes_read_total counts raw bytes read back from segment files.",
		}),
		commits: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "urkeldb_commits_total",
			Help: "urkeldb_commits_total counts calls to commit that completed successfully.",
		}),
		commitSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "urkeldb_commit_seconds",
			Help:    "urkeldb_commit_seconds observes end-to-end commit latency: flush, fsync, and meta emission.",
			Buckets: prometheus.ExponentialBuckets(0.00025, 2, 16),
		}),
		rotations: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "urkeldb_segment_rotations_total",
			Help: "urkeldb_segment_rotations_total counts how many times the write buffer rolled over to a new segment.",
		}),
		cacheEvictions: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "urkeldb_handle_cache_evictions_total",
			Help: "urkeldb_handle_cache_evictions_total counts segment handles closed to make room in the handle cache.",
		}),
		cacheSize: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "urkeldb_handle_cache_size",
			Help: "urkeldb_handle_cache_size is the current number of open segment handles.",
		}),
		recoveryBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "urkeldb_recovery_scanned_bytes_total",
			Help: "urkeldb_recovery_scanned_bytes_total counts bytes read while scanning backward for a valid meta record on open.",
		}),
		historySteps: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "urkeldb_history_walk_steps_total",
			Help: "urkeldb_history_walk_steps_total counts meta records visited while walking the backward history chain in get_history.",
		}),
	}
}
