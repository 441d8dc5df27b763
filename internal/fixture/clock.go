package fixture

import "time"

// Clock is the time source for one worker thread.
type Clock interface {
	Now() time.Time
	// ThreadCPU returns the cpu time consumed so far by the calling OS thread.
	ThreadCPU() time.Duration
}

// SystemClock reads the wall clock and the per-thread cpu clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
