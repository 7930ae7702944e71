package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for Computations and the Result Cache
// =============================================================================

const metricsNamespace = "pfannkuchen"

// PrometheusHooks implements ComputeHooks and CacheHooks on a private
// registry. A CLI run is short lived, so the registry is written once to a
// node_exporter textfile instead of being scraped.
type PrometheusHooks struct {
	registry *prometheus.Registry

	// computations counts finished runs.
	// Labels: status (ok, error, rejected)
	computations *prometheus.CounterVec

	// computeDuration measures wall time of a whole run.
	// Labels: n
	computeDuration *prometheus.HistogramVec

	// blockDuration measures the time a single block takes.
	blockDuration prometheus.Histogram

	// permutations counts permutations visited by completed blocks.
	// Labels: n
	permutations *prometheus.CounterVec

	// cacheOps counts result cache operations.
	// Labels: key_type, op (hit, miss, set)
	cacheOps *prometheus.CounterVec

	// cacheBytes counts bytes written to the result cache.
	cacheBytes prometheus.Counter
}

// NewPrometheusHooks creates hooks backed by a fresh registry.
func NewPrometheusHooks() *PrometheusHooks {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &PrometheusHooks{
		registry: reg,
		computations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "compute",
			Name:      "runs_total",
			Help:      "Total computations by outcome",
		}, []string{"status"}),
		computeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "compute",
			Name:      "duration_seconds",
			Help:      "Wall time of a full computation in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 12),
		}, []string{"n"}),
		blockDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "compute",
			Name:      "block_duration_seconds",
			Help:      "Wall time of a single block in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 12),
		}),
		permutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "compute",
			Name:      "permutations_total",
			Help:      "Permutations visited by completed blocks",
		}, []string{"n"}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Result cache operations by key type and outcome",
		}, []string{"key_type", "op"}),
		cacheBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "written_bytes_total",
			Help:      "Bytes written to the result cache",
		}),
	}
}

// Registry returns the registry holding all metrics.
func (h *PrometheusHooks) Registry() *prometheus.Registry { return h.registry }

// WriteTextfile writes the current metrics in the text exposition format.
// The write is atomic, as the node_exporter textfile collector expects.
func (h *PrometheusHooks) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, h.registry)
}

func (h *PrometheusHooks) OnComputeStart(context.Context, int, int) {}

func (h *PrometheusHooks) OnBlockComplete(_ context.Context, n, _ int, size uint64, d time.Duration) {
	h.blockDuration.Observe(d.Seconds())
	h.permutations.WithLabelValues(strconv.Itoa(n)).Add(float64(size))
}

func (h *PrometheusHooks) OnComputeComplete(_ context.Context, n int, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	h.computations.WithLabelValues(status).Inc()
	h.computeDuration.WithLabelValues(strconv.Itoa(n)).Observe(d.Seconds())
}

func (h *PrometheusHooks) OnComputeRejected(context.Context, int, error) {
	h.computations.WithLabelValues("rejected").Inc()
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheOps.WithLabelValues(keyType, "set").Inc()
	h.cacheBytes.Add(float64(size))
}

var (
	_ ComputeHooks = (*PrometheusHooks)(nil)
	_ CacheHooks   = (*PrometheusHooks)(nil)
)
