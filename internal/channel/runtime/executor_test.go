package runtime

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taerae/platformchannel/internal/channel/registry"
	"github.com/taerae/platformchannel/internal/channel/sdk"
	"github.com/taerae/platformchannel/internal/platform"
	"github.com/taerae/platformchannel/internal/versionquery"
	"github.com/taerae/platformchannel/pkg/config"
	"github.com/taerae/platformchannel/pkg/observability"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// flakyRemote behaves like a remote plugin whose transport fails on demand.
type flakyRemote struct {
	fail  atomic.Bool
	delay time.Duration
	calls atomic.Int32
}

func (f *flakyRemote) Invoke(ctx context.Context, call sdk.MethodCall) (sdk.Response, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return sdk.Response{}, ctx.Err()
		}
	}
	if f.fail.Load() {
		return sdk.Response{}, errors.New("connection refused")
	}
	return f.HandleMethodCall(ctx, call), nil
}

func (f *flakyRemote) HandleMethodCall(_ context.Context, call sdk.MethodCall) sdk.Response {
	if call.Method == "ping" {
		return sdk.Success("pong")
	}
	return sdk.NotImplemented()
}

func newTestExecutor(t *testing.T, cfg ExecutorConfig) (*Executor, *registry.Registry, *observability.InMemoryMetrics) {
	t.Helper()
	reg := registry.NewRegistry(testLogger())
	_, err := versionquery.Register(reg, versionquery.DefaultChannel,
		versionquery.WithDetector(platform.Static("Linux", "6.1.0")),
		versionquery.WithLogger(testLogger()),
	)
	require.NoError(t, err)

	sink := observability.NewInMemoryMetrics()
	exec := NewExecutor(reg, nil, testLogger(), cfg).WithSink(sink)
	return exec, reg, sink
}

func TestExecutor_Invoke(t *testing.T) {
	ctx := context.Background()
	exec, _, sink := newTestExecutor(t, DefaultExecutorConfig())

	t.Run("getPlatformVersion", func(t *testing.T) {
		resp, err := exec.Invoke(ctx, versionquery.DefaultChannel, sdk.NewMethodCall(versionquery.MethodGetPlatformVersion, nil))

		require.NoError(t, err)
		s, ok := resp.StringValue()
		require.True(t, ok)
		assert.Equal(t, "Linux 6.1.0", s)
	})

	for _, method := range []string{"unknownMethod", ""} {
		t.Run("not implemented "+method, func(t *testing.T) {
			resp, err := exec.Invoke(ctx, versionquery.DefaultChannel, sdk.NewMethodCall(method, nil))

			require.NoError(t, err)
			assert.True(t, resp.IsNotImplemented())
		})
	}

	t.Run("unknown channel", func(t *testing.T) {
		_, err := exec.Invoke(ctx, "nope", sdk.NewMethodCall(versionquery.MethodGetPlatformVersion, nil))

		require.Error(t, err)
		assert.True(t, sdk.IsChannelNotFound(err))
	})

	m := exec.GetMetrics()[versionquery.DefaultChannel]
	assert.Equal(t, int64(3), m.TotalCalls)
	assert.Equal(t, int64(1), m.SuccessfulCalls)
	assert.Equal(t, int64(2), m.NotImplementedCalls)
	assert.Equal(t, int64(0), m.FailedCalls)
	assert.Len(t, m.MethodMetrics, 1)
	assert.Contains(t, m.MethodMetrics, versionquery.MethodGetPlatformVersion)
	assert.Equal(t, "closed", exec.GetCircuitBreakerState(versionquery.DefaultChannel))

	assert.Equal(t, int64(1), sink.GetCounter(observability.MetricCallsTotal,
		observability.T("channel", versionquery.DefaultChannel), observability.T("result", "success")))
	assert.Equal(t, int64(2), sink.GetCounter(observability.MetricCallsNotImplemented,
		observability.T("channel", versionquery.DefaultChannel), observability.T("result", "not_implemented")))
}

func TestExecutor_NotImplementedDoesNotTripBreaker(t *testing.T) {
	cfg := DefaultExecutorConfig()
	cfg.FailureThreshold = 1
	exec, _, _ := newTestExecutor(t, cfg)

	for range 5 {
		resp, err := exec.Invoke(context.Background(), versionquery.DefaultChannel, sdk.NewMethodCall("nothing", nil))
		require.NoError(t, err)
		assert.True(t, resp.IsNotImplemented())
	}

	assert.Equal(t, "closed", exec.GetCircuitBreakerState(versionquery.DefaultChannel))
}

func TestExecutor_CircuitBreaker(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultExecutorConfig()
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Hour
	exec, reg, _ := newTestExecutor(t, cfg)

	remote := &flakyRemote{}
	remote.fail.Store(true)
	require.NoError(t, reg.Register("remote", remote))

	for range 2 {
		_, err := exec.Invoke(ctx, "remote", sdk.NewMethodCall("ping", nil))
		require.Error(t, err)
		assert.False(t, sdk.IsCircuitOpen(err))
	}

	assert.Equal(t, "open", exec.GetCircuitBreakerState("remote"))

	_, err := exec.Invoke(ctx, "remote", sdk.NewMethodCall("ping", nil))
	require.Error(t, err)
	assert.True(t, sdk.IsCircuitOpen(err))
	assert.Equal(t, int32(2), remote.calls.Load())

	snapshot := exec.Snapshot()
	assert.Equal(t, []string{"remote"}, snapshot.Summary.ChannelsWithOpenCircuit)
	assert.Equal(t, int64(1), snapshot.Channels["remote"].CircuitOpenCount)

	t.Run("reset", func(t *testing.T) {
		remote.fail.Store(false)
		exec.ResetCircuitBreaker("remote")
		assert.Equal(t, "none", exec.GetCircuitBreakerState("remote"))

		resp, err := exec.Invoke(ctx, "remote", sdk.NewMethodCall("ping", nil))
		require.NoError(t, err)
		assert.Equal(t, "pong", resp.Value)
	})
}

func TestExecutor_BreakerDisabled(t *testing.T) {
	cfg := DefaultExecutorConfig()
	cfg.CircuitBreakerEnabled = false
	cfg.FailureThreshold = 1
	exec, reg, _ := newTestExecutor(t, cfg)

	remote := &flakyRemote{}
	remote.fail.Store(true)
	require.NoError(t, reg.Register("remote", remote))

	for range 3 {
		_, err := exec.Invoke(context.Background(), "remote", sdk.NewMethodCall("ping", nil))
		require.Error(t, err)
		assert.False(t, sdk.IsCircuitOpen(err))
	}
	assert.Equal(t, int32(3), remote.calls.Load())
	assert.Equal(t, "none", exec.GetCircuitBreakerState("remote"))
}

func TestExecutor_Timeout(t *testing.T) {
	cfg := DefaultExecutorConfig()
	cfg.DefaultTimeout = 20 * time.Millisecond
	exec, reg, sink := newTestExecutor(t, cfg)

	require.NoError(t, reg.Register("slow", &flakyRemote{delay: time.Second}))

	_, err := exec.Invoke(context.Background(), "slow", sdk.NewMethodCall("ping", nil))

	require.Error(t, err)
	assert.True(t, sdk.IsTimeout(err))
	assert.Equal(t, int64(1), exec.GetMetrics()["slow"].FailedCalls)
	assert.Equal(t, int64(1), sink.GetCounter(observability.MetricCallsFailed,
		observability.T("channel", "slow"), observability.T("result", "transport_error")))
}

func TestExecutor_MethodErrorIsNotTransportFailure(t *testing.T) {
	cfg := DefaultExecutorConfig()
	cfg.FailureThreshold = 1
	exec, reg, _ := newTestExecutor(t, cfg)

	failing := sdk.MethodCallHandlerFunc(func(context.Context, sdk.MethodCall) sdk.Response {
		return sdk.Failure("BAD_ARGS", "nope", nil)
	})
	require.NoError(t, reg.Register("failing", failing))

	for range 3 {
		resp, err := exec.Invoke(context.Background(), "failing", sdk.NewMethodCall("x", nil))
		require.NoError(t, err)
		assert.True(t, resp.IsError())
	}

	assert.Equal(t, "closed", exec.GetCircuitBreakerState("failing"))
	m := exec.GetMetrics()["failing"]
	assert.Equal(t, int64(3), m.FailedCalls)
	assert.Equal(t, "error BAD_ARGS: nope", m.LastError)
}

func TestExecutor_Health(t *testing.T) {
	ctx := context.Background()
	exec, reg, _ := newTestExecutor(t, DefaultExecutorConfig())
	require.NoError(t, reg.Register("plain", &flakyRemote{}))

	status, err := exec.HealthCheck(ctx, versionquery.DefaultChannel)
	require.NoError(t, err)
	assert.True(t, status.Healthy)

	status, err = exec.HealthCheck(ctx, "plain")
	require.NoError(t, err)
	assert.True(t, status.Healthy)

	status, err = exec.HealthCheck(ctx, "missing")
	require.Error(t, err)
	assert.False(t, status.Healthy)

	hr := observability.NewHealthRegistry()
	exec.RegisterHealthChecks(hr)

	overall := hr.GetOverallHealth(ctx)
	assert.Equal(t, observability.HealthStatusHealthy, overall.Status)
	require.Contains(t, overall.Checks, "channel:"+versionquery.DefaultChannel)
	assert.Equal(t, versionquery.DefaultChannel,
		overall.Checks["channel:"+versionquery.DefaultChannel].Details["channel"])
}

func TestConfigFrom(t *testing.T) {
	cfg := &config.Config{
		CallTimeout:      250 * time.Millisecond,
		BreakerEnabled:   false,
		BreakerThreshold: 7,
		BreakerTimeout:   time.Minute,
	}

	ec := ConfigFrom(cfg)

	assert.False(t, ec.CircuitBreakerEnabled)
	assert.Equal(t, uint32(7), ec.FailureThreshold)
	assert.Equal(t, time.Minute, ec.Timeout)
	assert.Equal(t, 250*time.Millisecond, ec.DefaultTimeout)
	assert.Equal(t, uint32(3), ec.MaxRequests)

	t.Run("threshold saturates at uint32", func(t *testing.T) {
		if math.MaxInt <= math.MaxUint32 {
			t.Skip("int cannot exceed uint32 on this platform")
		}
		over := int64(math.MaxUint32) + 1
		ec := ConfigFrom(&config.Config{BreakerThreshold: int(over), CallTimeout: time.Second})
		assert.Equal(t, uint32(math.MaxUint32), ec.FailureThreshold)
	})
}
