//go:build windows

package platform

import (
	"context"
	"fmt"

	"golang.org/x/sys/windows"
)

func primaryVersion(_ context.Context) (string, error) {
	v := windows.RtlGetVersion()
	return fmt.Sprintf("%d.%d.%d", v.MajorVersion, v.MinorVersion, v.BuildNumber), nil
}
