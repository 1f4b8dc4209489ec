// Package versionquery answers the platform version query on a method channel.
//
// The handler recognizes a single method, getPlatformVersion, and replies with
// "<PlatformLabel> <version>". Every other method name, including the empty
// string, receives the not-implemented response.
package versionquery

import (
	"context"
	"log/slog"

	"github.com/taerae/platformchannel/internal/channel/dispatch"
	"github.com/taerae/platformchannel/internal/channel/sdk"
	"github.com/taerae/platformchannel/internal/platform"
)

const (
	// MethodGetPlatformVersion is the only method the handler recognizes.
	MethodGetPlatformVersion = "getPlatformVersion"

	// DefaultChannel is the channel name the handler is registered on.
	DefaultChannel = "flutter_taerae"

	// AltChannel is the channel name used by the alternate package layout.
	AltChannel = "taerae_flutter"

	// PluginID identifies the handler when served as a plugin.
	PluginID = "taerae.platform"

	// PluginVersion is the handler's plugin version.
	PluginVersion = "1.0.0"
)

// Handler is the version query handler. It holds no mutable state.
type Handler struct {
	channel  string
	detector platform.Detector
	table    *dispatch.Table
	logger   *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithDetector replaces the host detector.
func WithDetector(d platform.Detector) Option {
	return func(h *Handler) {
		if d != nil {
			h.detector = d
		}
	}
}

// WithChannel sets the channel name reported by the handler.
func WithChannel(channel string) Option {
	return func(h *Handler) {
		if channel != "" {
			h.channel = channel
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New creates a version query handler.
func New(opts ...Option) *Handler {
	h := &Handler{
		channel: DefaultChannel,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.detector == nil {
		h.detector = platform.NewHostDetector(platform.WithLogger(h.logger))
	}

	h.table = dispatch.MustNew(dispatch.Entry{
		Name: MethodGetPlatformVersion,
		Func: h.platformVersion,
	})

	return h
}

// HandleMethodCall implements sdk.MethodCallHandler.
func (h *Handler) HandleMethodCall(ctx context.Context, call sdk.MethodCall) sdk.Response {
	resp := h.table.HandleMethodCall(ctx, call)
	if resp.IsNotImplemented() {
		h.logger.Debug("method not implemented", "channel", h.channel, "method", call.Method)
	}
	return resp
}

func (h *Handler) platformVersion(ctx context.Context, _ sdk.MethodCall) (any, error) {
	return h.detector.Detect(ctx).String(), nil
}

// Channel implements sdk.Plugin.
func (h *Handler) Channel() string {
	return h.channel
}

// Metadata implements sdk.Plugin.
func (h *Handler) Metadata() sdk.PluginMetadata {
	return sdk.PluginMetadata{
		ID:            PluginID,
		Name:          "Platform Version",
		Version:       PluginVersion,
		Channel:       h.channel,
		Description:   "Reports the host platform label and operating system version",
		MinAPIVersion: sdk.SDKVersion.String(),
		Methods:       h.table.Methods(),
	}
}

// HealthCheck implements sdk.Plugin.
func (h *Handler) HealthCheck(ctx context.Context) sdk.HealthStatus {
	info := h.detector.Detect(ctx)
	return sdk.NewHealthStatus(true, "ok").WithDetails(map[string]any{
		"label":   info.Label,
		"version": info.Version,
	})
}

// Shutdown implements sdk.Plugin. The handler holds no resources.
func (h *Handler) Shutdown(context.Context) error {
	return nil
}

// Register binds a new handler to channel on r. An empty channel selects
// DefaultChannel.
func Register(r sdk.Registrar, channel string, opts ...Option) (*Handler, error) {
	if channel == "" {
		channel = DefaultChannel
	}
	h := New(append(opts, WithChannel(channel))...)
	if err := r.Register(channel, h); err != nil {
		return nil, err
	}
	return h, nil
}

var _ sdk.Plugin = (*Handler)(nil)
