package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taerae/platformchannel/internal/channel/sdk"
)

func validManifest() *Manifest {
	return &Manifest{
		ID:            "test.platform",
		Name:          "Test Platform",
		Version:       "1.2.3",
		Channel:       "test_channel",
		BinaryPath:    "test-plugin",
		MinAPIVersion: "1.0.0",
		Methods:       []string{"getPlatformVersion"},
	}
}

func writeManifest(t *testing.T, dir string, m *Manifest) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, DefaultManifestFilename)
	require.NoError(t, SaveManifest(path, m))
	return path
}

func TestLoadManifest(t *testing.T) {
	t.Run("loads a valid manifest", func(t *testing.T) {
		dir := t.TempDir()
		path := writeManifest(t, dir, validManifest())

		m, err := LoadManifest(path)

		require.NoError(t, err)
		assert.Equal(t, "test.platform", m.ID)
		assert.Equal(t, "test_channel", m.Channel)
		assert.Equal(t, dir, m.Dir())
		assert.Equal(t, filepath.Join(dir, "test-plugin"), m.BinaryAbsPath())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.json"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read manifest")
	})

	t.Run("invalid JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), DefaultManifestFilename)
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		_, err := LoadManifest(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse manifest")
	})
}

func TestManifest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Manifest)
		wantErr error
		wantMsg string
	}{
		{"valid", func(*Manifest) {}, nil, ""},
		{"missing id", func(m *Manifest) { m.ID = "" }, sdk.ErrInvalidManifest, "id is required"},
		{"missing channel", func(m *Manifest) { m.Channel = "" }, sdk.ErrInvalidManifest, "channel is required"},
		{"bad version", func(m *Manifest) { m.Version = "one" }, sdk.ErrInvalidManifest, "version failed semver validation"},
		{"empty method name", func(m *Manifest) { m.Methods = []string{""} }, sdk.ErrInvalidManifest, "is required"},
		{"short checksum", func(m *Manifest) { m.Checksum = "abc" }, sdk.ErrInvalidManifest, "checksum failed len validation"},
		{"future SDK", func(m *Manifest) { m.MinAPIVersion = "2.0.0" }, sdk.ErrVersionIncompatible, "not compatible"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validManifest()
			tt.mutate(m)

			err := m.Validate()

			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestManifest_BinaryAbsPath(t *testing.T) {
	m := validManifest()
	m.BinaryPath = "/opt/taerae/plugin"

	assert.Equal(t, "/opt/taerae/plugin", m.BinaryAbsPath())
}

func TestManifest_ToMetadata(t *testing.T) {
	m := validManifest()
	m.Description = "answers getPlatformVersion"

	md := m.ToMetadata()

	assert.Equal(t, m.ID, md.ID)
	assert.Equal(t, m.Channel, md.Channel)
	assert.Equal(t, m.Description, md.Description)
	assert.True(t, md.HasMethod("getPlatformVersion"))
	assert.NoError(t, md.Validate())
}

func TestFindManifestInDir(t *testing.T) {
	dir := t.TempDir()

	_, err := FindManifestInDir(dir)
	assert.Error(t, err)

	path := writeManifest(t, dir, validManifest())
	found, err := FindManifestInDir(dir)
	require.NoError(t, err)
	assert.Equal(t, path, found)
}

func TestManifestSchema(t *testing.T) {
	data, err := ManifestSchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(data, &schema))

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "id")
	assert.Contains(t, props, "channel")
	assert.Contains(t, props, "min_api_version")
	assert.NotContains(t, props, "dir")
}
