package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PipelineMetrics observes the asset pipeline. All methods are safe for
// concurrent use from multiple workers. A nil PipelineMetrics is valid and
// should be replaced with NopPipelineMetrics by the consumer.
type PipelineMetrics interface {
	// AssetQueued records one asset job being scheduled.
	AssetQueued()
	// AssetCompleted records one job finishing successfully, with the
	// "verified" label distinguishing the resume path from a real fetch.
	AssetCompleted(verified bool)
	// AssetFailed records one job failing.
	AssetFailed()
	// BytesFetched records bytes materialized by fetches (not by the
	// verification resume path).
	BytesFetched(n int64)
}

// NopPipelineMetrics discards all observations.
type NopPipelineMetrics struct{}

func (NopPipelineMetrics) AssetQueued()        {}
func (NopPipelineMetrics) AssetCompleted(bool) {}
func (NopPipelineMetrics) AssetFailed()        {}
func (NopPipelineMetrics) BytesFetched(int64)  {}

// pipelineMetrics is the Prometheus implementation of PipelineMetrics.
type pipelineMetrics struct {
	queued    prometheus.Counter
	completed *prometheus.CounterVec
	failed    prometheus.Counter
	bytes     prometheus.Counter
}

// NewPipelineMetrics creates a Prometheus-backed PipelineMetrics instance.
// Returns a no-op implementation if metrics are not enabled.
func NewPipelineMetrics() PipelineMetrics {
	if !IsEnabled() {
		return NopPipelineMetrics{}
	}

	reg := GetRegistry()

	return &pipelineMetrics{
		queued: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "packmule_pipeline_assets_queued_total",
			Help: "Total number of asset jobs scheduled on the pipeline",
		}),
		completed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "packmule_pipeline_assets_completed_total",
			Help: "Total number of asset jobs completed successfully",
		}, []string{"path"}),
		failed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "packmule_pipeline_assets_failed_total",
			Help: "Total number of asset jobs that failed",
		}),
		bytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "packmule_pipeline_bytes_fetched_total",
			Help: "Total bytes materialized by asset fetches",
		}),
	}
}

func (m *pipelineMetrics) AssetQueued() {
	m.queued.Inc()
}

func (m *pipelineMetrics) AssetCompleted(verified bool) {
	if verified {
		m.completed.WithLabelValues("verify").Inc()
	} else {
		m.completed.WithLabelValues("fetch").Inc()
	}
}

func (m *pipelineMetrics) AssetFailed() {
	m.failed.Inc()
}

func (m *pipelineMetrics) BytesFetched(n int64) {
	m.bytes.Add(float64(n))
}
