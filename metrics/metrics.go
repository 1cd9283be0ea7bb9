// Package metrics implements upgrademutex.Recorder on top of
// github.com/prometheus/client_golang, so acquire/release activity on a
// Mutex can be exported the same way the rest of an operator's fleet is.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/slon/upgrademutex"
)

// PrometheusRecorder records acquire/release events as Prometheus
// collectors registered against a caller-supplied registry.
type PrometheusRecorder struct {
	acquireTotal *prometheus.CounterVec
	releaseTotal *prometheus.CounterVec
	waitSeconds  *prometheus.HistogramVec
}

// NewPrometheusRecorder builds a PrometheusRecorder and registers its
// collectors against reg under the given metric name prefix.
func NewPrometheusRecorder(reg prometheus.Registerer, namespace, subsystem string) *PrometheusRecorder {
	r := &PrometheusRecorder{
		acquireTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "acquire_total",
			Help:      "Number of successful upgrademutex acquisitions, by mode.",
		}, []string{"mode"}),
		releaseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "release_total",
			Help:      "Number of upgrademutex releases, by mode.",
		}, []string{"mode"}),
		waitSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "acquire_wait_seconds",
			Help:      "Time spent waiting for an upgrademutex acquisition, by mode.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
	}
	reg.MustRegister(r.acquireTotal, r.releaseTotal, r.waitSeconds)
	return r
}

// ObserveAcquire implements upgrademutex.Recorder.
func (r *PrometheusRecorder) ObserveAcquire(mode upgrademutex.Mode, waited time.Duration) {
	label := mode.String()
	r.acquireTotal.WithLabelValues(label).Inc()
	r.waitSeconds.WithLabelValues(label).Observe(waited.Seconds())
}

// ObserveRelease implements upgrademutex.Recorder.
func (r *PrometheusRecorder) ObserveRelease(mode upgrademutex.Mode) {
	r.releaseTotal.WithLabelValues(mode.String()).Inc()
}

var _ upgrademutex.Recorder = (*PrometheusRecorder)(nil)
