package runtime

import (
	"slices"
	"sync"
	"time"

	"github.com/taerae/platformchannel/internal/channel/sdk"
)

// MetricsCollector collects per-channel call metrics.
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics map[string]*ChannelMetrics
}

// ChannelMetrics contains metrics for a single channel.
type ChannelMetrics struct {
	// Channel is the channel name.
	Channel string `json:"channel"`

	// TotalCalls counts every call sent on the channel.
	TotalCalls int64 `json:"total_calls"`

	// SuccessfulCalls counts calls answered with a success response.
	SuccessfulCalls int64 `json:"successful_calls"`

	// NotImplementedCalls counts calls for methods the handler does not recognize.
	NotImplementedCalls int64 `json:"not_implemented_calls"`

	// FailedCalls counts error responses and transport failures.
	FailedCalls int64 `json:"failed_calls"`

	TotalDuration   time.Duration `json:"total_duration"`
	AverageDuration time.Duration `json:"average_duration"`
	MinDuration     time.Duration `json:"min_duration"`
	MaxDuration     time.Duration `json:"max_duration"`

	// LastCallAt is the timestamp of the last call.
	LastCallAt time.Time `json:"last_call_at"`

	// LastError is the last error message, if any.
	LastError string `json:"last_error,omitempty"`

	// CircuitBreakerState is the current circuit breaker state.
	CircuitBreakerState string `json:"circuit_breaker_state"`

	// CircuitOpenCount is the number of calls rejected by an open breaker.
	CircuitOpenCount int64 `json:"circuit_open_count"`

	// MethodMetrics holds metrics for recognized methods only.
	MethodMetrics map[string]*MethodMetrics `json:"method_metrics"`
}

// MethodMetrics contains metrics for one recognized method.
type MethodMetrics struct {
	Method          string        `json:"method"`
	TotalCalls      int64         `json:"total_calls"`
	SuccessfulCalls int64         `json:"successful_calls"`
	FailedCalls     int64         `json:"failed_calls"`
	TotalDuration   time.Duration `json:"total_duration"`
	AverageDuration time.Duration `json:"average_duration"`
	LastCallAt      time.Time     `json:"last_call_at"`
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics: make(map[string]*ChannelMetrics),
	}
}

// RecordCall records the outcome of one call. err is the transport error,
// if the exchange failed before a response arrived.
func (m *MetricsCollector) RecordCall(channel, method string, duration time.Duration, resp sdk.Response, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := m.getOrCreate(channel)
	now := time.Now()

	metrics.TotalCalls++
	metrics.TotalDuration += duration
	metrics.LastCallAt = now

	failed := false
	switch {
	case err != nil:
		failed = true
		metrics.FailedCalls++
		metrics.LastError = err.Error()
	case resp.IsNotImplemented():
		metrics.NotImplementedCalls++
	case resp.IsError():
		failed = true
		metrics.FailedCalls++
		metrics.LastError = resp.String()
	default:
		metrics.SuccessfulCalls++
	}

	if metrics.TotalCalls == 1 || duration < metrics.MinDuration {
		metrics.MinDuration = duration
	}
	if duration > metrics.MaxDuration {
		metrics.MaxDuration = duration
	}
	metrics.AverageDuration = metrics.TotalDuration / time.Duration(metrics.TotalCalls)

	// Unrecognized method names are caller-controlled; keep them out of the per-method map.
	if err == nil && resp.IsNotImplemented() {
		return
	}

	mm, exists := metrics.MethodMetrics[method]
	if !exists {
		mm = &MethodMetrics{Method: method}
		metrics.MethodMetrics[method] = mm
	}
	mm.TotalCalls++
	mm.TotalDuration += duration
	mm.LastCallAt = now
	if failed {
		mm.FailedCalls++
	} else {
		mm.SuccessfulCalls++
	}
	mm.AverageDuration = mm.TotalDuration / time.Duration(mm.TotalCalls)
}

// RecordCircuitBreakerChange records a circuit breaker state change.
func (m *MetricsCollector) RecordCircuitBreakerChange(channel, state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getOrCreate(channel).CircuitBreakerState = state
}

// RecordCircuitOpen records a call rejected by an open breaker.
func (m *MetricsCollector) RecordCircuitOpen(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getOrCreate(channel).CircuitOpenCount++
}

// Get returns metrics for a channel, or nil if it has none.
func (m *MetricsCollector) Get(channel string) *ChannelMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if metrics, exists := m.metrics[channel]; exists {
		return metrics.clone()
	}
	return nil
}

// GetAll returns metrics for all channels.
func (m *MetricsCollector) GetAll() map[string]ChannelMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]ChannelMetrics, len(m.metrics))
	for ch, metrics := range m.metrics {
		result[ch] = *metrics.clone()
	}
	return result
}

// Reset resets all metrics.
func (m *MetricsCollector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics = make(map[string]*ChannelMetrics)
}

// ResetChannel resets metrics for one channel.
func (m *MetricsCollector) ResetChannel(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.metrics, channel)
}

func (m *MetricsCollector) getOrCreate(channel string) *ChannelMetrics {
	if metrics, exists := m.metrics[channel]; exists {
		return metrics
	}
	metrics := &ChannelMetrics{
		Channel:       channel,
		MethodMetrics: make(map[string]*MethodMetrics),
	}
	m.metrics[channel] = metrics
	return metrics
}

func (c *ChannelMetrics) clone() *ChannelMetrics {
	out := *c
	out.MethodMetrics = make(map[string]*MethodMetrics, len(c.MethodMetrics))
	for name, mm := range c.MethodMetrics {
		cp := *mm
		out.MethodMetrics[name] = &cp
	}
	return &out
}

// Snapshot contains a point-in-time snapshot of all metrics.
type Snapshot struct {
	Timestamp time.Time                 `json:"timestamp"`
	Channels  map[string]ChannelMetrics `json:"channels"`
	Summary   SnapshotSummary           `json:"summary"`
}

// SnapshotSummary contains aggregated summary statistics.
type SnapshotSummary struct {
	TotalChannels       int     `json:"total_channels"`
	TotalCalls          int64   `json:"total_calls"`
	TotalSuccessful     int64   `json:"total_successful"`
	TotalNotImplemented int64   `json:"total_not_implemented"`
	TotalFailed         int64   `json:"total_failed"`
	SuccessRate         float64 `json:"success_rate"`

	// ChannelsWithOpenCircuit lists channels whose breaker is open.
	ChannelsWithOpenCircuit []string `json:"channels_with_open_circuit"`
}

// TakeSnapshot creates a snapshot of current metrics.
func (m *MetricsCollector) TakeSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := Snapshot{
		Timestamp: time.Now(),
		Channels:  make(map[string]ChannelMetrics, len(m.metrics)),
	}

	summary := SnapshotSummary{TotalChannels: len(m.metrics)}
	for ch, metrics := range m.metrics {
		snapshot.Channels[ch] = *metrics.clone()

		summary.TotalCalls += metrics.TotalCalls
		summary.TotalSuccessful += metrics.SuccessfulCalls
		summary.TotalNotImplemented += metrics.NotImplementedCalls
		summary.TotalFailed += metrics.FailedCalls

		if metrics.CircuitBreakerState == "open" {
			summary.ChannelsWithOpenCircuit = append(summary.ChannelsWithOpenCircuit, ch)
		}
	}
	slices.Sort(summary.ChannelsWithOpenCircuit)
	if summary.TotalCalls > 0 {
		summary.SuccessRate = float64(summary.TotalSuccessful) / float64(summary.TotalCalls)
	}
	snapshot.Summary = summary

	return snapshot
}
