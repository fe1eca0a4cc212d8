package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LoaderMetrics records run metadata for the background loaders.
type LoaderMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	skipped  *prometheus.CounterVec
}

// NewLoaderMetrics registers the loader metrics on the provided registerer.
func NewLoaderMetrics(reg prometheus.Registerer) *LoaderMetrics {
	if reg == nil {
		return &LoaderMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "loader_run_duration_seconds",
		Help:    "Duration of loader runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"loader"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "loader_run_success",
		Help: "Successful loader runs.",
	}, []string{"loader"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "loader_run_failure",
		Help: "Failed loader runs.",
	}, []string{"loader"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "loader_run_skipped",
		Help: "Loader ticks skipped because the previous run was still going.",
	}, []string{"loader"})
	reg.MustRegister(duration, success, failure, skipped)
	return &LoaderMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		skipped:  skipped,
	}
}

// ObserveDuration records the duration for the named loader.
func (m *LoaderMetrics) ObserveDuration(loader string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(loader)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named loader.
func (m *LoaderMetrics) IncSuccess(loader string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(loader)).Inc()
}

// IncFailure increments the failure counter for the named loader.
func (m *LoaderMetrics) IncFailure(loader string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(loader)).Inc()
}

// IncSkipped increments the skip counter for the named loader.
func (m *LoaderMetrics) IncSkipped(loader string) {
	if m == nil || m.skipped == nil {
		return
	}
	m.skipped.WithLabelValues(normalizeLabel(loader)).Inc()
}

func normalizeLabel(loader string) string {
	if loader == "" {
		return "unknown"
	}
	return loader
}
