//go:build linux

package platform

import (
	"context"
	"fmt"

	"golang.org/x/sys/unix"
)

// primaryVersion returns the version field of uname(2), which on Linux
// carries the kernel build string (e.g. "#1 SMP PREEMPT_DYNAMIC ...").
func primaryVersion(_ context.Context) (string, error) {
	var uname unix.Utsname
	if err := unix.Uname(&uname); err != nil {
		return "", fmt.Errorf("uname: %w", err)
	}
	return unix.ByteSliceToString(uname.Version[:]), nil
}
