package benchmark

import (
	"time"

	benchErrors "benchcore/internal/errors"
	"benchcore/internal/fixture"
)

// State is handed to the benchmark body on each thread. It drives the timed
// loop and collects what the thread measured. A State is not shared between
// threads.
type State struct {
	tc    fixture.ThreadContext
	args  []int64
	max   int64
	clock fixture.Clock

	count   int64
	started bool
	running bool

	realStart time.Time
	cpuStart  time.Duration
	real      time.Duration
	cpu       time.Duration

	items, bytes int64
	label        string
	errMsg       string
}

func newState(tc fixture.ThreadContext, args []int64, max int64, clock fixture.Clock) *State {
	return &State{tc: tc, args: args, max: max, clock: clock}
}

// Next reports whether another iteration should run. The timer starts on the
// first call and stops when Next returns false.
//
//	for st.Next() {
//		work()
//	}
func (s *State) Next() bool {
	if !s.started {
		s.started = true
		if s.errMsg == "" {
			s.ResumeTiming()
		}
	}
	if s.errMsg == "" && s.count < s.max {
		s.count++
		return true
	}
	if s.running {
		s.PauseTiming()
	}
	return false
}

// Range returns argument i of the instantiation's argument tuple.
func (s *State) Range(i int) int64 {
	benchErrors.Check(i >= 0 && i < len(s.args), "argument %d out of range, instantiation has %d", i, len(s.args))
	return s.args[i]
}

// ThreadIndex is this thread's index; 0 is the leader.
func (s *State) ThreadIndex() int { return s.tc.Index }

// Threads is the number of threads running the instantiation.
func (s *State) Threads() int { return s.tc.Threads }

// Iterations is the number of iterations started so far.
func (s *State) Iterations() int64 { return s.count }

// MaxIterations is the loop bound of this thread.
func (s *State) MaxIterations() int64 { return s.max }

func (s *State) SetItemsProcessed(n int64) { s.items = n }

func (s *State) SetBytesProcessed(n int64) { s.bytes = n }

func (s *State) SetLabel(label string) { s.label = label }

// PauseTiming stops the timer, e.g. around per-iteration setup.
func (s *State) PauseTiming() {
	benchErrors.Check(s.running, "PauseTiming called while timer is stopped")
	s.real += s.clock.Now().Sub(s.realStart)
	s.cpu += s.clock.ThreadCPU() - s.cpuStart
	s.running = false
}

// ResumeTiming restarts the timer after PauseTiming.
func (s *State) ResumeTiming() {
	benchErrors.Check(!s.running, "ResumeTiming called while timer is running")
	s.realStart = s.clock.Now()
	s.cpuStart = s.clock.ThreadCPU()
	s.running = true
}

// SkipWithError marks the run as failed. Next returns false from the next
// call on.
func (s *State) SkipWithError(msg string) {
	if msg == "" {
		msg = "skipped"
	}
	s.errMsg = msg
	if s.running {
		s.PauseTiming()
	}
}

// Errored reports whether SkipWithError was called.
func (s *State) Errored() bool { return s.errMsg != "" }

// finish checks the loop ran to its bound and returns the thread's sample.
func (s *State) finish() fixture.Sample {
	if s.errMsg == "" {
		benchErrors.Check(s.count == s.max, "benchmark body returned after %d of %d iterations", s.count, s.max)
		benchErrors.Check(!s.running, "benchmark body returned with the timer running")
	}
	if s.running {
		s.PauseTiming()
	}
	return fixture.Sample{
		Real:       s.real,
		CPU:        s.cpu,
		Iterations: s.count,
		Items:      s.items,
		Bytes:      s.bytes,
		Label:      s.label,
		Error:      s.errMsg,
	}
}
