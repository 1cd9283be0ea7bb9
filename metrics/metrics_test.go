package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/slon/upgrademutex"
	"github.com/slon/upgrademutex/metrics"
)

func TestPrometheusRecorderCountsAcquireAndRelease(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg, "test", "upgrademutex")

	m := upgrademutex.New(upgrademutex.WithRecorder(rec))
	m.Lock()
	m.Unlock()
	m.RLock()
	m.RUnlock()

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "test_upgrademutex_acquire_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			counts[labelValue(metric, "mode")] = metric.GetCounter().GetValue()
		}
	}

	require.Equal(t, 1.0, counts["exclusive"])
	require.Equal(t, 1.0, counts["shared"])
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
