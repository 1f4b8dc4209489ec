package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopMetrics(t *testing.T) {
	var m Metrics = NoopMetrics{}

	assert.NotPanics(t, func() {
		m.Counter(MetricCallsTotal, 1)
		m.Gauge(MetricBreakerState, 1)
		m.Timing(MetricCallDuration, time.Second)
	})
}

func TestInMemoryMetrics(t *testing.T) {
	t.Run("Counter with tags", func(t *testing.T) {
		m := NewInMemoryMetrics()

		m.Counter(MetricCallsTotal, 1, T("channel", "flutter_taerae"), T("method", "getPlatformVersion"))
		m.Counter(MetricCallsTotal, 1, T("method", "getPlatformVersion"), T("channel", "flutter_taerae"))
		m.Counter(MetricCallsTotal, 1, T("channel", "taerae_flutter"))

		assert.Equal(t, int64(2), m.GetCounter(MetricCallsTotal, T("channel", "flutter_taerae"), T("method", "getPlatformVersion")))
		assert.Equal(t, int64(1), m.GetCounter(MetricCallsTotal, T("channel", "taerae_flutter")))
		assert.Equal(t, int64(0), m.GetCounter(MetricCallsTotal))
	})

	t.Run("Gauge keeps last value", func(t *testing.T) {
		m := NewInMemoryMetrics()

		m.Gauge(MetricBreakerState, 2, T("channel", "c"))
		m.Gauge(MetricBreakerState, 0, T("channel", "c"))

		assert.Equal(t, 0.0, m.GetGauge(MetricBreakerState, T("channel", "c")))
	})

	t.Run("Timing returns a copy", func(t *testing.T) {
		m := NewInMemoryMetrics()

		m.Timing(MetricCallDuration, 10*time.Millisecond)
		m.Timing(MetricCallDuration, 20*time.Millisecond)

		timings := m.GetTimings(MetricCallDuration)
		assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, timings)

		timings[0] = 0
		assert.Equal(t, 10*time.Millisecond, m.GetTimings(MetricCallDuration)[0])
	})

	t.Run("Reset clears everything", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Counter(MetricCallsTotal, 3)
		m.Gauge(MetricBreakerState, 1)
		m.Timing(MetricCallDuration, time.Millisecond)

		m.Reset()

		assert.Zero(t, m.GetCounter(MetricCallsTotal))
		assert.Zero(t, m.GetGauge(MetricBreakerState))
		assert.Empty(t, m.GetTimings(MetricCallDuration))
	})
}
