//go:build !linux

package fixture

import "time"

var processStart = time.Now()

// ThreadCPU falls back to elapsed wall time where no per-thread cpu clock is
// available.
func (SystemClock) ThreadCPU() time.Duration {
	return time.Since(processStart)
}
