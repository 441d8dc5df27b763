// Package fixture drives one benchmark instantiation across a pool of worker
// threads that share a single fixture instance.
//
// Every worker runs the same sequence:
//
//	SetUp -> barrier -> body -> barrier -> TearDown
//
// Shared state lives in SharedSlot values owned by the coordinator: they are
// constructed once before any worker starts and released once after every
// worker has torn down. Fixtures that still create shared state from the
// leader's SetUp are safe as well, because the leader's TearDown only runs after
// every follower finished its own TearDown.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	benchErrors "benchcore/internal/errors"
)

// ErrInvalidSession indicates a session that cannot be started.
var ErrInvalidSession = errors.New("invalid fixture session")

// ThreadContext identifies a worker thread within an instantiation.
type ThreadContext struct {
	Index   int
	Threads int
}

// IsLeader reports whether this is thread 0.
func (tc ThreadContext) IsLeader() bool {
	return tc.Index == 0
}

// Fixture is user state with per-thread setup and teardown hooks.
type Fixture interface {
	SetUp(tc ThreadContext)
	TearDown(tc ThreadContext)
}

// NopFixture is used when a benchmark has no fixture.
type NopFixture struct{}

func (NopFixture) SetUp(ThreadContext)    {}
func (NopFixture) TearDown(ThreadContext) {}

// Sample is what one worker thread measured during the timed region.
type Sample struct {
	Real       time.Duration
	CPU        time.Duration
	Iterations int64
	Items      int64
	Bytes      int64
	Label      string
	Error      string
}

// Session describes one instantiation.
type Session struct {
	Threads int
	Fixture Fixture
	// Body runs the timed region of one thread and reports its measurement.
	Body func(tc ThreadContext) Sample
}

// Coordinator runs sessions.
type Coordinator struct {
	logger *slog.Logger
}

// NewCoordinator creates a Coordinator logging through logger, or the default
// logger when nil.
func NewCoordinator(logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{logger: logger}
}

// Run executes the session and returns one Sample per thread, ordered by
// thread index. A panic on any thread, in any phase, aborts the session and is
// returned as a *errors.ContractViolation. The context is only checked before
// the session starts.
func (c *Coordinator) Run(ctx context.Context, s Session) ([]Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Threads < 1 {
		return nil, fmt.Errorf("%w: thread count must be positive, got %d", ErrInvalidSession, s.Threads)
	}
	if s.Body == nil {
		return nil, fmt.Errorf("%w: missing body", ErrInvalidSession)
	}
	fx := s.Fixture
	if fx == nil {
		fx = NopFixture{}
	}

	var shared []Resource
	if sp, ok := fx.(SharedProvider); ok {
		shared = sp.SharedResources()
	}
	for _, r := range shared {
		if cv := guard(benchErrors.NoThread, benchErrors.PhaseShared, r.construct); cv != nil {
			return nil, cv
		}
	}

	c.logger.Debug("fixture session starting", "threads", s.Threads)

	var (
		first   atomic.Pointer[benchErrors.ContractViolation]
		samples = make([]Sample, s.Threads)
		b       = newBarrier(s.Threads)
		wg      conc.WaitGroup
	)
	fail := func(cv *benchErrors.ContractViolation) {
		first.CompareAndSwap(nil, cv)
		b.Break()
	}

	for i := 0; i < s.Threads; i++ {
		tc := ThreadContext{Index: i, Threads: s.Threads}
		wg.Go(func() {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			runThread(tc, fx, s.Body, b, &samples[i], fail)
		})
	}
	if r := wg.WaitAndRecover(); r != nil {
		fail(benchErrors.FromPanic(r.Value, benchErrors.NoThread, benchErrors.PhaseUnknown, r.Stack))
	}

	if cv := first.Load(); cv != nil {
		c.logger.Error("fixture session aborted", "thread", cv.Thread, "phase", cv.Phase, "error", cv.Message)
		return nil, cv
	}

	for i := len(shared) - 1; i >= 0; i-- {
		if cv := guard(benchErrors.NoThread, benchErrors.PhaseShared, shared[i].release); cv != nil {
			return nil, cv
		}
	}

	c.logger.Debug("fixture session finished", "threads", s.Threads)
	return samples, nil
}

func runThread(tc ThreadContext, fx Fixture, body func(ThreadContext) Sample, b *barrier, out *Sample, fail func(*benchErrors.ContractViolation)) {
	phase := func(p benchErrors.Phase, fn func()) bool {
		if cv := guard(tc.Index, p, fn); cv != nil {
			fail(cv)
			return false
		}
		return true
	}

	if !phase(benchErrors.PhaseSetUp, func() { fx.SetUp(tc) }) {
		return
	}
	if b.Wait() != nil {
		return
	}

	var sample Sample
	if !phase(benchErrors.PhaseBody, func() { sample = body(tc) }) {
		return
	}
	*out = sample

	// All timed regions are complete past this point.
	if b.Wait() != nil {
		return
	}
	if !tc.IsLeader() {
		if !phase(benchErrors.PhaseTearDown, func() { fx.TearDown(tc) }) {
			return
		}
	}
	// Followers are done with the fixture past this point.
	if b.Wait() != nil {
		return
	}
	if tc.IsLeader() {
		phase(benchErrors.PhaseTearDown, func() { fx.TearDown(tc) })
	}
}

func guard(thread int, p benchErrors.Phase, fn func()) *benchErrors.ContractViolation {
	var pc panics.Catcher
	pc.Try(fn)
	if r := pc.Recovered(); r != nil {
		return benchErrors.FromPanic(r.Value, thread, p, r.Stack)
	}
	return nil
}
