package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
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

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		AppEnv:            "test",
		Channel:           "custom_channel",
		PluginSearchPaths: []string{t.TempDir()},
		CallTimeout:       time.Second,
		BreakerEnabled:    true,
		BreakerThreshold:  3,
		BreakerTimeout:    time.Second,
		MCPAddr:           "127.0.0.1:0",
	}
}

func newTestContainer(t *testing.T, cfg *config.Config) *Container {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	c, err := NewContainer(context.Background(), cfg, logger,
		WithVersionHandlerOptions(versionquery.WithDetector(platform.Static("Linux", "6.1.0"))),
	)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(context.Background()) })
	return c
}

func TestNewContainer(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer(t, testConfig(t))

	assert.Equal(t, []string{"custom_channel", versionquery.DefaultChannel, versionquery.AltChannel},
		channelNames(c.Registry))
	require.NotNil(t, c.VersionHandler)
	assert.Equal(t, "custom_channel", c.VersionHandler.Channel())

	for _, ch := range channelNames(c.Registry) {
		resp, err := c.Executor.Invoke(ctx, ch, sdk.NewMethodCall(versionquery.MethodGetPlatformVersion, nil))
		require.NoError(t, err)
		assert.Equal(t, "Linux 6.1.0", resp.Value)
	}

	assert.Equal(t, int64(1), c.Metrics.GetCounter(observability.MetricCallsTotal,
		observability.T("channel", "custom_channel"), observability.T("result", "success")))

	health := c.Health.GetOverallHealth(ctx)
	assert.Equal(t, observability.HealthStatusHealthy, health.Status)
	assert.Len(t, health.Checks, 3)
}

func TestNewContainer_DefaultChannelNotDuplicated(t *testing.T) {
	cfg := testConfig(t)
	cfg.Channel = versionquery.DefaultChannel

	c := newTestContainer(t, cfg)

	assert.Equal(t, 2, c.Registry.Count())
}

func TestNewContainer_DiscoversPlugins(t *testing.T) {
	cfg := testConfig(t)
	dir := filepath.Join(cfg.PluginSearchPaths[0], "echo")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, registry.SaveManifest(filepath.Join(dir, registry.DefaultManifestFilename), &registry.Manifest{
		ID:            "test.echo",
		Name:          "Echo",
		Version:       "0.1.0",
		Channel:       "echo_channel",
		BinaryPath:    "echo-plugin",
		MinAPIVersion: "1.0.0",
	}))

	c := newTestContainer(t, cfg)

	status, err := c.Registry.Status("echo_channel")
	require.NoError(t, err)
	assert.Equal(t, registry.StatusUnloaded, status)
}

func channelNames(r *registry.Registry) []string {
	var names []string
	for _, e := range r.List() {
		names = append(names, e.Channel)
	}
	return names
}
