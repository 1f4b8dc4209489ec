package sdk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMetadata() PluginMetadata {
	return PluginMetadata{
		ID:            "taerae.platform",
		Name:          "Platform",
		Version:       "1.0.0",
		Channel:       "flutter_taerae",
		MinAPIVersion: "1.0.0",
		Methods:       []string{"getPlatformVersion"},
	}
}

func TestPluginMetadata_Validate(t *testing.T) {
	t.Run("valid metadata passes validation", func(t *testing.T) {
		assert.NoError(t, validMetadata().Validate())
	})

	tests := []struct {
		name    string
		mutate  func(m *PluginMetadata)
		wantErr string
	}{
		{"empty ID", func(m *PluginMetadata) { m.ID = "" }, "plugin ID is required"},
		{"empty name", func(m *PluginMetadata) { m.Name = "" }, "plugin name is required"},
		{"empty version", func(m *PluginMetadata) { m.Version = "" }, "plugin version is required"},
		{"empty channel", func(m *PluginMetadata) { m.Channel = "" }, "plugin channel is required"},
		{"empty min API version", func(m *PluginMetadata) { m.MinAPIVersion = "" }, "minimum API version is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMetadata()
			tt.mutate(&m)

			err := m.Validate()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPluginMetadata_HasMethod(t *testing.T) {
	m := validMetadata()

	assert.True(t, m.HasMethod("getPlatformVersion"))
	assert.False(t, m.HasMethod("getBatteryLevel"))
	assert.False(t, m.HasMethod(""))
}

func TestHealthStatus(t *testing.T) {
	h := NewHealthStatus(true, "ok").WithDetails(map[string]any{"label": "Linux"})

	assert.True(t, h.Healthy)
	assert.Equal(t, "ok", h.Message)
	assert.Equal(t, "Linux", h.Details["label"])
	assert.False(t, h.CheckedAt.IsZero())
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("1.2.3")
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 1, Minor: 2, Patch: 3}, v)
	assert.Equal(t, "1.2.3", v.String())

	_, err = ParseVersion("one.two")
	assert.Error(t, err)
}

func TestVersion_Compatible(t *testing.T) {
	tests := []struct {
		name  string
		v     Version
		other Version
		want  bool
	}{
		{"same version", Version{1, 0, 0}, Version{1, 0, 0}, true},
		{"newer minor", Version{1, 2, 0}, Version{1, 1, 0}, true},
		{"older minor", Version{1, 0, 0}, Version{1, 1, 0}, false},
		{"older patch", Version{1, 1, 0}, Version{1, 1, 1}, false},
		{"different major", Version{2, 0, 0}, Version{1, 0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Compatible(tt.other))
		})
	}
}

func TestVersion_Compare(t *testing.T) {
	assert.Equal(t, 0, Version{1, 2, 3}.Compare(Version{1, 2, 3}))
	assert.Equal(t, -1, Version{1, 2, 3}.Compare(Version{1, 3, 0}))
	assert.Equal(t, 1, Version{2, 0, 0}.Compare(Version{1, 9, 9}))
	assert.Equal(t, 1, Version{1, 2, 4}.Compare(Version{1, 2, 3}))
}
