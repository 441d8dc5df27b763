//go:build linux

package fixture

import (
	"time"

	"golang.org/x/sys/unix"
)

func (SystemClock) ThreadCPU() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_THREAD_CPUTIME_ID, &ts); err != nil {
		return 0
	}
	return time.Duration(ts.Nano())
}
