package mcp

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/felixgeelhaar/mcp-go/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taerae/platformchannel/internal/app"
	"github.com/taerae/platformchannel/internal/platform"
	"github.com/taerae/platformchannel/internal/versionquery"
	"github.com/taerae/platformchannel/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:            "test",
		Channel:           versionquery.DefaultChannel,
		PluginSearchPaths: []string{t.TempDir()},
		CallTimeout:       5 * time.Second,
		BreakerEnabled:    true,
		BreakerThreshold:  5,
		BreakerTimeout:    30 * time.Second,
		MCPAddr:           "127.0.0.1:0",
	}
}

func TestFieldsToArgs(t *testing.T) {
	args := fieldsToArgs([]middleware.Field{
		{Key: "tool", Value: "channel.invoke"},
		{Key: "duration_ms", Value: 12},
	})

	assert.Equal(t, []any{"tool", "channel.invoke", "duration_ms", 12}, args)
	assert.Empty(t, fieldsToArgs(nil))
}

func TestMCPLogger(t *testing.T) {
	var buf bytes.Buffer
	l := mcpLogger{logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	l.Info("request", middleware.Field{Key: "method", Value: "tools/call"})
	l.Warn("slow")
	l.Error("failed")
	l.Debug("trace")

	out := buf.String()
	assert.Contains(t, out, "method=tools/call")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "level=DEBUG")
}

func TestMiddlewareStack(t *testing.T) {
	cfg := testConfig(t)
	adapter := mcpLogger{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	plain := middlewareStack(cfg, adapter)
	cfg.MCPAuthToken = "secret"
	authed := middlewareStack(cfg, adapter)

	assert.Len(t, authed, len(plain)+1)
}

func TestNewServer(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	container, err := app.NewContainer(context.Background(), testConfig(t), quiet,
		app.WithVersionHandlerOptions(versionquery.WithDetector(platform.Static("Linux", "6.1.0"))))
	require.NoError(t, err)
	defer container.Close(context.Background())

	cliApp := NewCLIApp(container)
	assert.Equal(t, versionquery.DefaultChannel, cliApp.DefaultChannel)
	assert.Same(t, container.Executor, cliApp.Executor)

	srv, err := NewServer(cliApp)
	require.NoError(t, err)
	assert.NotNil(t, srv)
}

func TestServe_RequiresConfig(t *testing.T) {
	assert.Error(t, Serve(context.Background(), nil, nil, nil))
	assert.Error(t, Serve(context.Background(), testConfig(t), nil, nil))
}
