// Package sdk provides the core interfaces and types for taerae's method channels.
// A channel is a named pathway between an embedding application and a
// platform-side handler. Each message on a channel is a MethodCall, and each
// MethodCall produces exactly one Response.
package sdk

import (
	"context"
)

// Environment variables the host sets when it starts a plugin process.
const (
	// PluginManifestEnv holds the path of the plugin's plugin.json.
	PluginManifestEnv = "TAERAE_PLUGIN_MANIFEST"

	// PluginConfigEnv holds JSON configuration overriding the manifest's
	// config_defaults.
	PluginConfigEnv = "TAERAE_PLUGIN_CONFIG"
)

// MethodCall is a single invocation received on a channel.
type MethodCall struct {
	// Method names the operation requested.
	Method string `json:"method"`

	// Arguments is an optional opaque payload. Handlers that take no
	// arguments ignore it.
	Arguments any `json:"arguments,omitempty"`
}

// NewMethodCall creates a method call with the given name and arguments.
func NewMethodCall(method string, arguments any) MethodCall {
	return MethodCall{Method: method, Arguments: arguments}
}

// MethodCallHandler answers method calls for one channel.
type MethodCallHandler interface {
	// HandleMethodCall produces exactly one Response for the call.
	HandleMethodCall(ctx context.Context, call MethodCall) Response
}

// MethodCallHandlerFunc adapts a function to MethodCallHandler.
type MethodCallHandlerFunc func(ctx context.Context, call MethodCall) Response

// HandleMethodCall calls f(ctx, call).
func (f MethodCallHandlerFunc) HandleMethodCall(ctx context.Context, call MethodCall) Response {
	return f(ctx, call)
}

// Invoker is implemented by handlers that can fail outside the method
// itself, such as remote transports. The error reports the exchange
// failing; the Response reports the method's outcome.
type Invoker interface {
	Invoke(ctx context.Context, call MethodCall) (Response, error)
}

// Registrar binds a handler to a channel name.
// It is supplied by the embedding environment: an in-process registry,
// a plugin server, or any other host.
type Registrar interface {
	Register(channel string, handler MethodCallHandler) error
}

// Plugin is a channel handler with identity and lifecycle.
// The host treats local and out-of-process plugins the same way.
type Plugin interface {
	MethodCallHandler

	// Metadata returns plugin identification.
	Metadata() PluginMetadata

	// Channel returns the channel name the plugin answers on.
	Channel() string

	// HealthCheck returns the current health status of the plugin.
	HealthCheck(ctx context.Context) HealthStatus

	// Shutdown releases resources held by the plugin.
	Shutdown(ctx context.Context) error
}

// PluginFactory creates plugin instances.
// Used by the registry to defer plugin instantiation.
type PluginFactory func(ctx context.Context) (Plugin, error)
