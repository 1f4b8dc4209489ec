// Package platform reports the host operating system label and version.
package platform

import (
	"context"
	"log/slog"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// UnknownVersion is reported when no version source answers.
const UnknownVersion = "unknown"

// Info identifies the host operating system.
type Info struct {
	// Label is the fixed platform name for the build target (e.g. "Linux").
	Label string `json:"label"`

	// Version is the host-reported version string. Never empty.
	Version string `json:"version"`
}

// String returns "<Label> <Version>".
func (i Info) String() string {
	return i.Label + " " + i.Version
}

// Detector reads host version information.
type Detector interface {
	Detect(ctx context.Context) Info
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func(ctx context.Context) Info

// Detect calls f(ctx).
func (f DetectorFunc) Detect(ctx context.Context) Info {
	return f(ctx)
}

// Static returns a detector that always reports the given label and version.
func Static(label, version string) Detector {
	info := Info{Label: label, Version: version}
	return DetectorFunc(func(context.Context) Info { return info })
}

type versionSource func(ctx context.Context) (string, error)

// HostDetector reads the version from the build target's primary source
// and falls back to the kernel version reported by gopsutil.
type HostDetector struct {
	label    string
	primary  versionSource
	fallback versionSource
	logger   *slog.Logger
}

// HostOption configures a HostDetector.
type HostOption func(*HostDetector)

// WithLogger sets the logger used to report fallbacks.
func WithLogger(logger *slog.Logger) HostOption {
	return func(d *HostDetector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewHostDetector creates a detector for the running build target.
func NewHostDetector(opts ...HostOption) *HostDetector {
	d := &HostDetector{
		label:    LabelFor(runtime.GOOS),
		primary:  primaryVersion,
		fallback: kernelVersion,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Label returns the platform label for the build target.
func (d *HostDetector) Label() string {
	return d.label
}

// Detect implements Detector.
func (d *HostDetector) Detect(ctx context.Context) Info {
	info := Info{Label: d.label}

	v, err := d.primary(ctx)
	if err == nil && strings.TrimSpace(v) != "" {
		info.Version = strings.TrimSpace(v)
		return info
	}
	if err != nil {
		d.logger.Debug("primary version source failed", "label", d.label, "error", err)
	}

	v, err = d.fallback(ctx)
	if err == nil && strings.TrimSpace(v) != "" {
		info.Version = strings.TrimSpace(v)
		return info
	}
	if err != nil {
		d.logger.Debug("kernel version fallback failed", "label", d.label, "error", err)
	}

	info.Version = UnknownVersion
	return info
}

// Detect reads host information with a default HostDetector.
func Detect(ctx context.Context) Info {
	return NewHostDetector().Detect(ctx)
}

var labels = map[string]string{
	"linux":     "Linux",
	"darwin":    "macOS",
	"windows":   "Windows",
	"freebsd":   "FreeBSD",
	"openbsd":   "OpenBSD",
	"netbsd":    "NetBSD",
	"dragonfly": "DragonFly",
	"solaris":   "Solaris",
	"illumos":   "illumos",
	"aix":       "AIX",
	"plan9":     "Plan 9",
	"android":   "Android",
	"ios":       "iOS",
}

// LabelFor returns the platform label for a GOOS value.
func LabelFor(goos string) string {
	if label, ok := labels[goos]; ok {
		return label
	}
	if goos == "" {
		return "Unknown"
	}
	return strings.ToUpper(goos[:1]) + goos[1:]
}

func kernelVersion(ctx context.Context) (string, error) {
	return host.KernelVersionWithContext(ctx)
}
