//go:build !linux && !darwin && !windows

package platform

import (
	"context"

	"github.com/shirou/gopsutil/v4/host"
)

func primaryVersion(ctx context.Context) (string, error) {
	_, _, version, err := host.PlatformInformationWithContext(ctx)
	return version, err
}
