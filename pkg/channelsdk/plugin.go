// Package channelsdk is the entry point for out-of-process channel plugins.
package channelsdk

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	channelgrpc "github.com/taerae/platformchannel/internal/channel/grpc"
	"github.com/taerae/platformchannel/internal/channel/registry"
	"github.com/taerae/platformchannel/internal/channel/sdk"
	"github.com/taerae/platformchannel/pkg/observability"
)

// Environment variables the host sets when it starts a plugin.
const (
	ConfigEnv   = sdk.PluginConfigEnv
	ManifestEnv = sdk.PluginManifestEnv
)

type serveOptions struct {
	logger hclog.Logger
	test   *plugin.ServeTestConfig
}

// ServeOption configures Serve.
type ServeOption func(*serveOptions)

// WithLogger sets the hclog logger go-plugin writes to.
func WithLogger(logger hclog.Logger) ServeOption {
	return func(o *serveOptions) {
		o.logger = logger
	}
}

// WithTestConfig runs the server in go-plugin's in-process test mode.
func WithTestConfig(cfg *plugin.ServeTestConfig) ServeOption {
	return func(o *serveOptions) {
		o.test = cfg
	}
}

// Serve serves p over go-plugin gRPC. Call it from a plugin binary's main.
//
//	func main() {
//		channelsdk.Serve(versionquery.New())
//	}
func Serve(p sdk.Plugin, opts ...ServeOption) {
	o := serveOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		level := observability.LogLevel(os.Getenv("TAERAE_LOG_LEVEL"))
		o.logger = observability.NewPluginLogger(p.Metadata().ID, level)
	}

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: channelgrpc.HandshakeConfig,
		Plugins:         channelgrpc.PluginMap(p),
		GRPCServer:      plugin.DefaultGRPCServer,
		Logger:          o.logger,
		Test:            o.test,
	})
}

// PluginConfig holds plugin configuration passed in by the host.
type PluginConfig struct {
	// ManifestPath is the path to the plugin.json manifest, if known.
	ManifestPath string

	// Config holds manifest defaults overlaid with host-supplied values.
	Config map[string]any
}

// LoadConfig reads plugin configuration from the environment. Values from
// TAERAE_PLUGIN_CONFIG override the manifest's config_defaults.
func LoadConfig() (*PluginConfig, error) {
	cfg := &PluginConfig{
		ManifestPath: os.Getenv(ManifestEnv),
		Config:       make(map[string]any),
	}

	if cfg.ManifestPath != "" {
		manifest, err := registry.LoadManifest(cfg.ManifestPath)
		if err != nil {
			return nil, err
		}
		for k, v := range manifest.ConfigDefaults {
			cfg.Config[k] = v
		}
	}

	if raw := os.Getenv(ConfigEnv); raw != "" {
		var overrides map[string]any
		if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", ConfigEnv, err)
		}
		for k, v := range overrides {
			cfg.Config[k] = v
		}
	}

	return cfg, nil
}

// GetString returns a string value, or def when missing or not a string.
func (c *PluginConfig) GetString(key, def string) string {
	if s, ok := c.Config[key].(string); ok {
		return s
	}
	return def
}

// GetBool returns a boolean value, or def when missing or not a boolean.
func (c *PluginConfig) GetBool(key string, def bool) bool {
	if b, ok := c.Config[key].(bool); ok {
		return b
	}
	return def
}
