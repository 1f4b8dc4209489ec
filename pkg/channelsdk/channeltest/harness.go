// Package channeltest provides testing utilities for channel plugins.
//
// Example usage:
//
//	func TestMyPlugin(t *testing.T) {
//		h := channeltest.NewHarness(myplugin.New())
//
//		value, err := h.CallString("getPlatformVersion", nil)
//		require.NoError(t, err)
//		assert.NotEmpty(t, value)
//
//		assert.True(t, h.Call("unknown", nil).IsNotImplemented())
//	}
package channeltest

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/taerae/platformchannel/internal/channel/sdk"
	"github.com/taerae/platformchannel/pkg/observability"
)

// Harness drives a single plugin the way the host would.
type Harness struct {
	plugin sdk.Plugin
	logger *slog.Logger
	ctx    context.Context
}

// NewHarness creates a new test harness for a plugin.
func NewHarness(p sdk.Plugin) *Harness {
	return &Harness{
		plugin: p,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		ctx:    context.Background(),
	}
}

// WithLogger sets a custom logger.
func (h *Harness) WithLogger(logger *slog.Logger) *Harness {
	h.logger = logger
	return h
}

// WithContext sets the base context for every call.
func (h *Harness) WithContext(ctx context.Context) *Harness {
	h.ctx = ctx
	return h
}

// Metadata returns plugin metadata.
func (h *Harness) Metadata() sdk.PluginMetadata {
	return h.plugin.Metadata()
}

// HealthCheck checks plugin health.
func (h *Harness) HealthCheck() sdk.HealthStatus {
	return h.plugin.HealthCheck(h.ctx)
}

// Shutdown shuts down the plugin.
func (h *Harness) Shutdown() error {
	return h.plugin.Shutdown(h.ctx)
}

// Call sends a method call on the plugin's channel.
func (h *Harness) Call(method string, arguments any) sdk.Response {
	ctx := observability.WithChannel(h.ctx, h.plugin.Channel())
	resp := h.plugin.HandleMethodCall(ctx, sdk.NewMethodCall(method, arguments))
	h.logger.Debug("harness call",
		observability.ChannelKey, h.plugin.Channel(),
		observability.MethodKey, method,
		"result", resp.Kind.String(),
	)
	return resp
}

// CallString calls method and expects a successful string result.
func (h *Harness) CallString(method string, arguments any) (string, error) {
	resp := h.Call(method, arguments)
	if err := resp.Validate(); err != nil {
		return "", err
	}
	if !resp.IsSuccess() {
		return "", &ResultError{Method: method, Response: resp}
	}
	s, ok := resp.StringValue()
	if !ok {
		return "", &ResultError{Method: method, Response: resp}
	}
	return s, nil
}

// ResultError is returned when a call does not produce the expected result.
type ResultError struct {
	Method   string
	Response sdk.Response
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("unexpected result for %s: %s", e.Method, e.Response.String())
}

// CheckContract verifies the behavior every plugin must have: valid
// metadata, a channel name, and a not-implemented response for unknown
// and empty method names.
func (h *Harness) CheckContract() error {
	if err := h.plugin.Metadata().Validate(); err != nil {
		return fmt.Errorf("invalid metadata: %w", err)
	}
	if h.plugin.Channel() == "" {
		return fmt.Errorf("plugin %s has no channel", h.plugin.Metadata().ID)
	}
	for _, method := range []string{"", "__channeltest_unknown__"} {
		resp := h.Call(method, nil)
		if !resp.IsNotImplemented() {
			return &ResultError{Method: fmt.Sprintf("%q", method), Response: resp}
		}
	}
	return nil
}
