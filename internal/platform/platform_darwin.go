//go:build darwin

package platform

import (
	"context"

	"github.com/shirou/gopsutil/v4/host"
)

// primaryVersion returns the macOS product version (e.g. "14.2.1").
func primaryVersion(ctx context.Context) (string, error) {
	_, _, version, err := host.PlatformInformationWithContext(ctx)
	return version, err
}
