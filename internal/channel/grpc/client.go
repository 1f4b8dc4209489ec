package grpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/taerae/platformchannel/internal/channel/sdk"
)

// describeTimeout bounds the metadata lookup, which has no caller context.
const describeTimeout = 5 * time.Second

// Client is the host-side view of a remote channel plugin.
// It implements sdk.Plugin so remote and local handlers are interchangeable.
type Client struct {
	conn grpc.ClientConnInterface

	mu       sync.Mutex
	metadata *sdk.PluginMetadata
}

// NewClient creates a client over conn.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Invoke sends call to the plugin. The error is non-nil only when the
// exchange itself fails.
func (c *Client) Invoke(ctx context.Context, call sdk.MethodCall) (sdk.Response, error) {
	in, err := encodeCall(call)
	if err != nil {
		return sdk.Response{}, fmt.Errorf("encode call: %w", err)
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, invokeMethod, in, out); err != nil {
		return sdk.Response{}, err
	}

	resp, err := decodeResponse(out)
	if err != nil {
		return sdk.Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

// HandleMethodCall implements sdk.MethodCallHandler. Transport failures
// are reported as an UNAVAILABLE error response.
func (c *Client) HandleMethodCall(ctx context.Context, call sdk.MethodCall) sdk.Response {
	resp, err := c.Invoke(ctx, call)
	if err != nil {
		return sdk.Failure("UNAVAILABLE", err.Error(), nil)
	}
	return resp
}

// Describe fetches plugin metadata from the remote side.
func (c *Client) Describe(ctx context.Context) (sdk.PluginMetadata, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, describeMethod, &emptypb.Empty{}, out); err != nil {
		return sdk.PluginMetadata{}, err
	}
	return decodeMetadata(out), nil
}

// Metadata implements sdk.Plugin. The first successful lookup is cached;
// a failed lookup returns empty metadata and is retried on the next call.
func (c *Client) Metadata() sdk.PluginMetadata {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.metadata != nil {
		return *c.metadata
	}

	ctx, cancel := context.WithTimeout(context.Background(), describeTimeout)
	defer cancel()

	md, err := c.Describe(ctx)
	if err != nil {
		return sdk.PluginMetadata{}
	}
	c.metadata = &md
	return md
}

// Channel implements sdk.Plugin.
func (c *Client) Channel() string {
	return c.Metadata().Channel
}

// HealthCheck implements sdk.Plugin.
func (c *Client) HealthCheck(ctx context.Context) sdk.HealthStatus {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, healthMethod, &emptypb.Empty{}, out); err != nil {
		return sdk.NewHealthStatus(false, fmt.Sprintf("health check failed: %v", err))
	}
	return decodeHealth(out)
}

// Shutdown implements sdk.Plugin.
func (c *Client) Shutdown(ctx context.Context) error {
	return c.conn.Invoke(ctx, shutdownMethod, &emptypb.Empty{}, &emptypb.Empty{})
}

var (
	_ sdk.Plugin  = (*Client)(nil)
	_ sdk.Invoker = (*Client)(nil)
)
