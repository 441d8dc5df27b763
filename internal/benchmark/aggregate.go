package benchmark

import (
	"time"

	benchErrors "benchcore/internal/errors"
	"benchcore/internal/fixture"
)

// TimeUnitMultiplier returns how many nanoseconds one unit spans. Adjusted
// times divide by it, which keeps the four supported units exact.
func TimeUnitMultiplier(u TimeUnit) float64 {
	switch u {
	case Microsecond:
		return 1e3
	case Millisecond:
		return 1e6
	case Second:
		return 1e9
	default:
		return 1
	}
}

// AdjustedTime converts an accumulated time to the given unit per iteration.
// With zero iterations the accumulated value is returned unconverted, in
// nanoseconds.
func AdjustedTime(acc time.Duration, iterations int64, unit TimeUnit) float64 {
	if iterations == 0 {
		return float64(acc)
	}
	return float64(acc) / TimeUnitMultiplier(unit) / float64(iterations)
}

// AdjustedRealTime is the wall time per iteration in the record's unit.
func (r Run) AdjustedRealTime() float64 {
	return AdjustedTime(r.RealAccumulatedTime, r.Iterations, r.TimeUnit)
}

// AdjustedCPUTime is the cpu time per iteration in the record's unit.
func (r Run) AdjustedCPUTime() float64 {
	return AdjustedTime(r.CPUAccumulatedTime, r.Iterations, r.TimeUnit)
}

// wallSeconds approximates the elapsed wall span: real time is summed over
// threads, so it is divided by the thread count.
func (r Run) wallSeconds() float64 {
	threads := r.Threads
	if threads < 1 {
		threads = 1
	}
	return r.RealAccumulatedTime.Seconds() / float64(threads)
}

// ItemsPerSecond is the total item throughput, or 0 when not reported.
func (r Run) ItemsPerSecond() float64 {
	secs := r.wallSeconds()
	if r.ItemsProcessed == 0 || secs <= 0 {
		return 0
	}
	return float64(r.ItemsProcessed) / secs
}

// BytesPerSecond is the total byte throughput, or 0 when not reported.
func (r Run) BytesPerSecond() float64 {
	secs := r.wallSeconds()
	if r.BytesProcessed == 0 || secs <= 0 {
		return 0
	}
	return float64(r.BytesProcessed) / secs
}

// Totals is the sum of the per-thread samples of one instantiation.
type Totals struct {
	Real       time.Duration
	CPU        time.Duration
	Iterations int64
	Items      int64
	Bytes      int64
	Label      string
	Error      string
}

// Aggregate sums per-thread samples. Every thread runs the same loop bound, so
// differing iteration counts are a contract violation unless a thread stopped
// early with an error.
func Aggregate(samples []fixture.Sample) (Totals, error) {
	var t Totals
	if len(samples) == 0 {
		return t, benchErrors.NewContractViolation("no samples to aggregate")
	}

	t.Iterations = samples[0].Iterations
	mismatch := false
	for _, s := range samples {
		if s.Real < 0 || s.CPU < 0 {
			return t, benchErrors.NewContractViolation("negative elapsed time in sample")
		}
		t.Real += s.Real
		t.CPU += s.CPU
		t.Items += s.Items
		t.Bytes += s.Bytes
		if s.Iterations != t.Iterations {
			mismatch = true
		}
		if t.Label == "" {
			t.Label = s.Label
		}
		if t.Error == "" {
			t.Error = s.Error
		}
	}
	if mismatch && t.Error == "" {
		return t, benchErrors.NewContractViolation("threads ran different iteration counts")
	}
	return t, nil
}
