// Package runtime sends method calls to registered channels with timeouts,
// circuit breakers and metrics.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/taerae/platformchannel/internal/channel/registry"
	"github.com/taerae/platformchannel/internal/channel/sdk"
	"github.com/taerae/platformchannel/pkg/config"
	"github.com/taerae/platformchannel/pkg/observability"
)

// Executor manages channel calls with circuit breakers and metrics.
type Executor struct {
	registry *registry.Registry
	metrics  *MetricsCollector
	sink     observability.Metrics
	logger   *slog.Logger
	config   ExecutorConfig

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[sdk.Response]
}

// ExecutorConfig configures the executor behavior.
type ExecutorConfig struct {
	// CircuitBreakerEnabled enables circuit breakers.
	CircuitBreakerEnabled bool

	// MaxRequests is the maximum number of requests allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state.
	Interval time.Duration

	// Timeout is the period of the open state.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive transport failures
	// that opens the breaker.
	FailureThreshold uint32

	// DefaultTimeout bounds each call. Zero means no limit.
	DefaultTimeout time.Duration
}

// DefaultExecutorConfig returns a sensible default configuration.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		CircuitBreakerEnabled: true,
		MaxRequests:           3,
		Interval:              10 * time.Second,
		Timeout:               30 * time.Second,
		FailureThreshold:      5,
		DefaultTimeout:        5 * time.Second,
	}
}

// ConfigFrom builds an executor configuration from application settings.
func ConfigFrom(cfg *config.Config) ExecutorConfig {
	ec := DefaultExecutorConfig()
	ec.CircuitBreakerEnabled = cfg.BreakerEnabled
	switch {
	case int64(cfg.BreakerThreshold) > math.MaxUint32:
		ec.FailureThreshold = math.MaxUint32
	case cfg.BreakerThreshold > 0:
		ec.FailureThreshold = uint32(cfg.BreakerThreshold)
	}
	if cfg.BreakerTimeout > 0 {
		ec.Timeout = cfg.BreakerTimeout
	}
	ec.DefaultTimeout = cfg.CallTimeout
	return ec
}

// NewExecutor creates a new channel executor.
func NewExecutor(reg *registry.Registry, metrics *MetricsCollector, logger *slog.Logger, config ExecutorConfig) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewMetricsCollector()
	}
	return &Executor{
		registry: reg,
		metrics:  metrics,
		sink:     observability.NoopMetrics{},
		logger:   logger,
		config:   config,
		breakers: make(map[string]*gobreaker.CircuitBreaker[sdk.Response]),
	}
}

// WithSink forwards call metrics to m in addition to the collector.
func (e *Executor) WithSink(m observability.Metrics) *Executor {
	if m != nil {
		e.sink = m
	}
	return e
}

func (e *Executor) getBreaker(channel string) *gobreaker.CircuitBreaker[sdk.Response] {
	if !e.config.CircuitBreakerEnabled {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if breaker, exists := e.breakers[channel]; exists {
		return breaker
	}

	breaker := gobreaker.NewCircuitBreaker[sdk.Response](gobreaker.Settings{
		Name:        channel,
		MaxRequests: e.config.MaxRequests,
		Interval:    e.config.Interval,
		Timeout:     e.config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= e.config.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			e.logger.Info("circuit breaker state changed",
				observability.ChannelKey, name,
				"from", from.String(),
				"to", to.String(),
			)
			e.metrics.RecordCircuitBreakerChange(name, to.String())
			e.sink.Gauge(observability.MetricBreakerState, float64(to), observability.T(observability.ChannelKey, name))
		},
	})
	e.breakers[channel] = breaker
	return breaker
}

// Invoke sends call to the handler bound to channel. The error is non-nil
// when no response could be produced: unknown channel, transport failure,
// timeout or an open breaker. Unrecognized methods are not errors; they
// come back as a not-implemented response.
func (e *Executor) Invoke(ctx context.Context, channel string, call sdk.MethodCall) (sdk.Response, error) {
	handler, err := e.registry.Get(ctx, channel)
	if err != nil {
		return sdk.Response{}, err
	}

	ctx = observability.WithChannel(ctx, channel)
	if e.config.DefaultTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.DefaultTimeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := e.execute(ctx, channel, handler, call)
	duration := time.Since(start)

	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = sdk.NewChannelError(channel, call.Method, fmt.Errorf("%w: %w", sdk.ErrTimeout, err))
	}

	e.record(ctx, channel, call.Method, duration, resp, err)

	return resp, err
}

func (e *Executor) execute(ctx context.Context, channel string, handler sdk.MethodCallHandler, call sdk.MethodCall) (sdk.Response, error) {
	fn := func() (sdk.Response, error) {
		if inv, ok := handler.(sdk.Invoker); ok {
			return inv.Invoke(ctx, call)
		}
		return handler.HandleMethodCall(ctx, call), nil
	}

	breaker := e.getBreaker(channel)
	if breaker == nil {
		return fn()
	}

	resp, err := breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		e.metrics.RecordCircuitOpen(channel)
		return sdk.Response{}, sdk.NewChannelError(channel, call.Method, sdk.ErrCircuitOpen)
	}
	return resp, err
}

func (e *Executor) record(ctx context.Context, channel, method string, duration time.Duration, resp sdk.Response, err error) {
	e.metrics.RecordCall(channel, method, duration, resp, err)

	result := string(resp.Kind)
	if err != nil {
		result = "transport_error"
	}
	tags := []observability.Tag{
		observability.T(observability.ChannelKey, channel),
		observability.T("result", result),
	}
	e.sink.Counter(observability.MetricCallsTotal, 1, tags...)
	e.sink.Timing(observability.MetricCallDuration, duration, tags...)

	log := observability.LogOperation(e.logger, "invoke",
		observability.MethodKey, method,
		observability.DurationKey, duration.Milliseconds(),
	)
	switch {
	case err != nil:
		e.sink.Counter(observability.MetricCallsFailed, 1, tags...)
		log.WarnContext(ctx, "channel call failed", observability.ErrorKey, err)
	case resp.IsNotImplemented():
		e.sink.Counter(observability.MetricCallsNotImplemented, 1, tags...)
		log.DebugContext(ctx, "method not implemented")
	case resp.IsError():
		e.sink.Counter(observability.MetricCallsFailed, 1, tags...)
		log.InfoContext(ctx, "method returned an error", observability.ErrorKey, resp.String())
	default:
		log.DebugContext(ctx, "channel call completed")
	}
}

// HealthCheck checks the health of the handler bound to channel.
// Handlers without a lifecycle are healthy once registered.
func (e *Executor) HealthCheck(ctx context.Context, channel string) (sdk.HealthStatus, error) {
	handler, err := e.registry.Get(ctx, channel)
	if err != nil {
		return sdk.NewHealthStatus(false, err.Error()), err
	}

	if p, ok := handler.(sdk.Plugin); ok {
		return p.HealthCheck(ctx), nil
	}
	return sdk.NewHealthStatus(true, "handler registered"), nil
}

// HealthChecker adapts HealthCheck for an observability.HealthRegistry.
func (e *Executor) HealthChecker(channel string) observability.HealthChecker {
	return func(ctx context.Context) observability.HealthCheckResult {
		status, _ := e.HealthCheck(ctx, channel)

		details := map[string]any{
			observability.ChannelKey: channel,
			"breaker":                e.GetCircuitBreakerState(channel),
		}
		for k, v := range status.Details {
			details[k] = v
		}

		result := observability.ResultFromHealthy(status.Healthy, status.Message, details)
		if status.Healthy && e.GetCircuitBreakerState(channel) == gobreaker.StateOpen.String() {
			result.Status = observability.HealthStatusDegraded
		}
		return result
	}
}

// RegisterHealthChecks adds a check for every registered channel.
func (e *Executor) RegisterHealthChecks(hr *observability.HealthRegistry) {
	for _, entry := range e.registry.List() {
		hr.Register("channel:"+entry.Channel, e.HealthChecker(entry.Channel))
	}
}

// GetMetrics returns the current metrics.
func (e *Executor) GetMetrics() map[string]ChannelMetrics {
	return e.metrics.GetAll()
}

// Snapshot returns a point-in-time view of all channel metrics.
func (e *Executor) Snapshot() Snapshot {
	return e.metrics.TakeSnapshot()
}

// GetCircuitBreakerState returns the circuit breaker state for a channel.
func (e *Executor) GetCircuitBreakerState(channel string) string {
	e.mu.Lock()
	breaker := e.breakers[channel]
	e.mu.Unlock()

	if breaker == nil {
		return "none"
	}
	return breaker.State().String()
}

// ResetCircuitBreaker discards the breaker for a channel.
func (e *Executor) ResetCircuitBreaker(channel string) {
	e.mu.Lock()
	delete(e.breakers, channel)
	e.mu.Unlock()

	e.logger.Info("circuit breaker reset", observability.ChannelKey, channel)
}
