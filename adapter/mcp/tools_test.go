package mcp

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taerae/platformchannel/adapter/cli"
	"github.com/taerae/platformchannel/internal/channel/registry"
	"github.com/taerae/platformchannel/internal/channel/runtime"
	"github.com/taerae/platformchannel/internal/channel/sdk"
	"github.com/taerae/platformchannel/internal/platform"
	"github.com/taerae/platformchannel/internal/versionquery"
)

func testApp(t *testing.T) *cli.App {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg := registry.NewRegistry(quiet)
	_, err := versionquery.Register(reg, versionquery.DefaultChannel,
		versionquery.WithDetector(platform.Static("Windows", "10.0.22631")),
		versionquery.WithLogger(quiet),
	)
	require.NoError(t, err)
	require.NoError(t, reg.Register("silent", sdk.MethodCallHandlerFunc(func(context.Context, sdk.MethodCall) sdk.Response {
		return sdk.NotImplemented()
	})))

	return &cli.App{
		Registry:       reg,
		Executor:       runtime.NewExecutor(reg, nil, quiet, runtime.DefaultExecutorConfig()),
		DefaultChannel: versionquery.DefaultChannel,
	}
}

func TestRegisterTools_ListTools(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    "test",
		Version: "1.0.0",
		Capabilities: mcp.Capabilities{
			Tools: true,
		},
	})

	require.NoError(t, RegisterTools(srv, ToolDependencies{App: testApp(t)}))

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)

	names := make(map[any]bool)
	for _, tool := range tools {
		names[tool["name"]] = true
	}
	for _, want := range []string{"channel.invoke", "channel.list", "platform.version", "cli.version"} {
		assert.True(t, names[want], "%s should be registered", want)
	}
}

func TestRegisterTools_RequiresApp(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{Name: "test", Version: "1.0.0"})

	assert.Error(t, RegisterTools(nil, ToolDependencies{}))
	assert.Error(t, RegisterTools(srv, ToolDependencies{}))
}

func TestInvokeTool(t *testing.T) {
	ctx := context.Background()
	invoke := invokeTool(testApp(t))

	t.Run("default channel", func(t *testing.T) {
		result, err := invoke(ctx, invokeInput{Method: versionquery.MethodGetPlatformVersion})

		require.NoError(t, err)
		assert.Equal(t, versionquery.DefaultChannel, result.Channel)
		assert.Equal(t, "success", result.Kind)
		assert.Equal(t, "Windows 10.0.22631", result.Value)
	})

	t.Run("not implemented", func(t *testing.T) {
		result, err := invoke(ctx, invokeInput{Method: "unknownMethod"})

		require.NoError(t, err)
		assert.Equal(t, "not_implemented", result.Kind)
		assert.Nil(t, result.Value)
		assert.Nil(t, result.Error)
	})

	t.Run("unknown channel", func(t *testing.T) {
		_, err := invoke(ctx, invokeInput{Channel: "nope", Method: "x"})

		assert.True(t, sdk.IsChannelNotFound(err))
	})
}

func TestPlatformVersionTool(t *testing.T) {
	ctx := context.Background()
	tool := platformVersionTool(testApp(t))

	out, err := tool(ctx, platformVersionInput{})
	require.NoError(t, err)
	assert.Equal(t, "Windows 10.0.22631", out["platform"])

	_, err = tool(ctx, platformVersionInput{Channel: "silent"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not answer getPlatformVersion")
}

func TestListTool(t *testing.T) {
	channels, err := listTool(testApp(t))(context.Background(), struct{}{})

	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, versionquery.DefaultChannel, channels[0].Channel)
	assert.Equal(t, versionquery.PluginID, channels[0].PluginID)
	assert.Equal(t, []string{versionquery.MethodGetPlatformVersion}, channels[0].Methods)
	assert.Equal(t, "silent", channels[1].Channel)
	assert.Empty(t, channels[1].PluginID)
}
