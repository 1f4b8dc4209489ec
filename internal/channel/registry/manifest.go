package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"

	"github.com/taerae/platformchannel/internal/channel/sdk"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Manifest describes a channel plugin and its requirements.
// It is loaded from a plugin.json file in the plugin directory.
type Manifest struct {
	// ID is the unique identifier (e.g., "taerae.platform").
	ID string `json:"id" validate:"required" jsonschema:"description=Unique plugin identifier"`

	// Name is a human-readable name.
	Name string `json:"name" validate:"required"`

	// Version is the semantic version (e.g., "1.0.0").
	Version string `json:"version" validate:"required,semver"`

	// Channel is the channel name the plugin answers on.
	Channel string `json:"channel" validate:"required" jsonschema:"description=Method channel name"`

	// BinaryPath is the path to the plugin binary (relative to manifest).
	BinaryPath string `json:"binary_path,omitempty"`

	// MinAPIVersion is the minimum SDK version required.
	MinAPIVersion string `json:"min_api_version" validate:"required,semver"`

	// Methods lists the method names the plugin recognizes.
	Methods []string `json:"methods,omitempty" validate:"dive,required"`

	// Author is the author or organization.
	Author string `json:"author,omitempty"`

	// Description describes what the plugin does.
	Description string `json:"description,omitempty"`

	// Checksum is the hex SHA256 checksum of the binary.
	Checksum string `json:"checksum,omitempty" validate:"omitempty,len=64,hexadecimal"`

	// ConfigDefaults provides default plugin configuration values.
	ConfigDefaults map[string]any `json:"config_defaults,omitempty"`

	dir  string
	path string
}

// LoadManifest loads a manifest from a file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	manifest.dir = filepath.Dir(path)
	manifest.path = path

	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	return &manifest, nil
}

// Validate validates the manifest fields and SDK compatibility.
func (m *Manifest) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: %s", sdk.ErrInvalidManifest, describeValidation(err))
	}

	minVersion, err := sdk.ParseVersion(m.MinAPIVersion)
	if err != nil {
		return fmt.Errorf("%w: invalid min_api_version: %w", sdk.ErrInvalidManifest, err)
	}

	if !sdk.SDKVersion.Compatible(minVersion) {
		return fmt.Errorf("%w: SDK version %s is not compatible with required %s",
			sdk.ErrVersionIncompatible, sdk.SDKVersion.String(), m.MinAPIVersion)
	}

	return nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Manifest.")
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// BinaryAbsPath returns the absolute path to the plugin binary.
func (m *Manifest) BinaryAbsPath() string {
	if filepath.IsAbs(m.BinaryPath) {
		return m.BinaryPath
	}
	return filepath.Join(m.dir, m.BinaryPath)
}

// Path returns the file the manifest was loaded from, or "" when it was
// built in memory.
func (m *Manifest) Path() string {
	return m.path
}

// Dir returns the directory containing the manifest.
func (m *Manifest) Dir() string {
	return m.dir
}

// ToMetadata converts the manifest to PluginMetadata.
func (m *Manifest) ToMetadata() sdk.PluginMetadata {
	return sdk.PluginMetadata{
		ID:            m.ID,
		Name:          m.Name,
		Version:       m.Version,
		Channel:       m.Channel,
		Description:   m.Description,
		MinAPIVersion: m.MinAPIVersion,
		Methods:       m.Methods,
	}
}

// SaveManifest saves a manifest to a file.
func SaveManifest(path string, manifest *Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// ManifestSchema returns the JSON Schema for plugin.json.
func ManifestSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(&Manifest{})

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	return data, nil
}

// DefaultManifestFilename is the default filename for plugin manifests.
const DefaultManifestFilename = "plugin.json"

// FindManifestInDir searches for a manifest file in a directory.
func FindManifestInDir(dir string) (string, error) {
	path := filepath.Join(dir, DefaultManifestFilename)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("manifest not found in %s: %w", dir, err)
	}
	return path, nil
}
