package sdk

import (
	"fmt"
	"slices"
	"time"
)

// PluginMetadata provides identification for a channel plugin.
type PluginMetadata struct {
	// ID is a unique identifier for the plugin (e.g., "taerae.platform").
	ID string `json:"id"`

	// Name is a human-readable name for the plugin.
	Name string `json:"name"`

	// Version is the semantic version of the plugin (e.g., "1.0.0").
	Version string `json:"version"`

	// Channel is the channel name the plugin answers on.
	Channel string `json:"channel"`

	// Description is a brief description of what the plugin does.
	Description string `json:"description,omitempty"`

	// MinAPIVersion is the minimum SDK version required (e.g., "1.0.0").
	MinAPIVersion string `json:"min_api_version"`

	// Methods lists the method names the plugin recognizes.
	Methods []string `json:"methods"`
}

// Validate checks if the metadata is valid.
func (m PluginMetadata) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("plugin ID is required")
	}
	if m.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("plugin version is required")
	}
	if m.Channel == "" {
		return fmt.Errorf("plugin channel is required")
	}
	if m.MinAPIVersion == "" {
		return fmt.Errorf("minimum API version is required")
	}
	return nil
}

// HasMethod checks if the plugin recognizes a method name.
func (m PluginMetadata) HasMethod(name string) bool {
	return slices.Contains(m.Methods, name)
}

// HealthStatus represents the current health of a plugin.
type HealthStatus struct {
	// Healthy indicates if the plugin is functioning correctly.
	Healthy bool `json:"healthy"`

	// Message provides additional context about the health status.
	Message string `json:"message,omitempty"`

	// Details contains plugin-specific health information.
	Details map[string]any `json:"details,omitempty"`

	// CheckedAt is when the health check was performed.
	CheckedAt time.Time `json:"checked_at"`
}

// NewHealthStatus creates a status with the given message.
func NewHealthStatus(healthy bool, message string) HealthStatus {
	return HealthStatus{
		Healthy:   healthy,
		Message:   message,
		CheckedAt: time.Now(),
	}
}

// WithDetails adds details to the health status.
func (h HealthStatus) WithDetails(details map[string]any) HealthStatus {
	h.Details = details
	return h
}

// Version represents a semantic version.
type Version struct {
	Major int
	Minor int
	Patch int
}

// SDKVersion is the current SDK version.
var SDKVersion = Version{Major: 1, Minor: 0, Patch: 0}

// String returns the string representation of the version.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compatible checks if this version is compatible with another.
// Major version must match, and this version must be >= other.
func (v Version) Compatible(other Version) bool {
	if v.Major != other.Major {
		return false
	}
	return v.Compare(other) >= 0
}

// ParseVersion parses a version string in "major.minor.patch" format.
func ParseVersion(s string) (Version, error) {
	var v Version
	n, err := fmt.Sscanf(s, "%d.%d.%d", &v.Major, &v.Minor, &v.Patch)
	if err != nil {
		return v, fmt.Errorf("invalid version format: %w", err)
	}
	if n != 3 {
		return v, fmt.Errorf("invalid version format: expected major.minor.patch")
	}
	return v, nil
}

// Compare returns -1 if v < other, 0 if v == other, 1 if v > other.
func (v Version) Compare(other Version) int {
	switch {
	case v.Major != other.Major:
		return cmpInt(v.Major, other.Major)
	case v.Minor != other.Minor:
		return cmpInt(v.Minor, other.Minor)
	default:
		return cmpInt(v.Patch, other.Patch)
	}
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
