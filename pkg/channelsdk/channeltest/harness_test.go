package channeltest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taerae/platformchannel/internal/channel/sdk"
	"github.com/taerae/platformchannel/internal/platform"
	"github.com/taerae/platformchannel/internal/versionquery"
)

// greedy answers every method, including ones it should not.
type greedy struct{}

func (greedy) HandleMethodCall(context.Context, sdk.MethodCall) sdk.Response {
	return sdk.Success(42)
}

func (greedy) Metadata() sdk.PluginMetadata {
	return sdk.PluginMetadata{ID: "greedy", Name: "Greedy", Version: "0.1.0", Channel: "greedy", MinAPIVersion: "1.0.0"}
}

func (greedy) Channel() string { return "greedy" }
func (greedy) HealthCheck(context.Context) sdk.HealthStatus { return sdk.NewHealthStatus(true, "ok") }
func (greedy) Shutdown(context.Context) error { return nil }

func TestHarness_VersionQuery(t *testing.T) {
	h := NewHarness(versionquery.New(versionquery.WithDetector(platform.Static("macOS", "14.2"))))

	value, err := h.CallString(versionquery.MethodGetPlatformVersion, nil)
	require.NoError(t, err)
	assert.Equal(t, "macOS 14.2", value)

	require.NoError(t, h.CheckContract())
	assert.True(t, h.HealthCheck().Healthy)
	assert.Equal(t, versionquery.PluginID, h.Metadata().ID)
	assert.NoError(t, h.Shutdown())

	_, err = h.CallString("unknownMethod", nil)
	var re *ResultError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "unknownMethod", re.Method)
	assert.True(t, re.Response.IsNotImplemented())
}

func TestHarness_CheckContractRejectsGreedyPlugin(t *testing.T) {
	h := NewHarness(greedy{})

	err := h.CheckContract()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected result")

	_, err = h.CallString("anything", nil)
	require.Error(t, err)
}
