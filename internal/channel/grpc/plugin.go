// Package grpc provides gRPC-based plugin communication for taerae channels.
// It uses HashiCorp's go-plugin library for process isolation and management.
package grpc

import (
	"context"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"

	"github.com/taerae/platformchannel/internal/channel/sdk"
)

// HandshakeConfig is used to verify that the plugin is compatible.
// Both the host and plugins must use the same handshake configuration.
var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "TAERAE_CHANNEL_PLUGIN",
	MagicCookieValue: "taerae-channel-v1",
}

// PluginName is the name under which the channel plugin is dispensed.
const PluginName = "channel"

// PluginMap returns the plugin map for serving impl. Pass nil on the host side.
func PluginMap(impl sdk.Plugin) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginName: &ChannelPlugin{Impl: impl},
	}
}

// ChannelPlugin is the plugin.Plugin implementation for channel handlers.
type ChannelPlugin struct {
	plugin.Plugin
	// Impl is the concrete implementation (plugin-side).
	Impl sdk.Plugin
}

var _ plugin.GRPCPlugin = (*ChannelPlugin)(nil)

// GRPCServer registers the method channel service for the plugin implementation.
func (p *ChannelPlugin) GRPCServer(_ *plugin.GRPCBroker, s *grpc.Server) error {
	Register(s, p.Impl)
	return nil
}

// GRPCClient returns the host-side client for the plugin.
func (p *ChannelPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, c *grpc.ClientConn) (interface{}, error) {
	return NewClient(c), nil
}
