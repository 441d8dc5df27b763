package fixture

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	benchErrors "benchcore/internal/errors"
)

// recorder logs fixture calls in global order and per thread.
type recorder struct {
	mu       sync.Mutex
	events   []string
	byThread map[int][]string
}

func newRecorder() *recorder {
	return &recorder{byThread: make(map[int][]string)}
}

func (r *recorder) add(tc ThreadContext, what string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf("%s:%d", what, tc.Index))
	r.byThread[tc.Index] = append(r.byThread[tc.Index], what)
}

func (r *recorder) lastIndex(prefix string) int {
	last := -1
	for i, e := range r.events {
		if len(e) > len(prefix) && e[:len(prefix)] == prefix {
			last = i
		}
	}
	return last
}

func (r *recorder) firstIndex(prefix string) int {
	for i, e := range r.events {
		if len(e) > len(prefix) && e[:len(prefix)] == prefix {
			return i
		}
	}
	return -1
}

// leaderOwnedFixture creates its shared data from the leader's SetUp and
// releases it from the leader's TearDown.
type leaderOwnedFixture struct {
	rec  *recorder
	data *int
	seq  atomic.Int64

	followerLast atomic.Int64
	leaderStart  atomic.Int64
}

func (f *leaderOwnedFixture) SetUp(tc ThreadContext) {
	f.rec.add(tc, "setup")
	if tc.IsLeader() {
		benchErrors.Check(f.data == nil, "data already set")
		v := 42
		f.data = &v
	}
}

func (f *leaderOwnedFixture) TearDown(tc ThreadContext) {
	if tc.IsLeader() {
		f.leaderStart.Store(f.seq.Add(1))
		benchErrors.Check(f.data != nil, "data missing at teardown")
		f.data = nil
	} else {
		benchErrors.Check(f.data != nil && *f.data == 42, "follower saw released data")
		stamp := f.seq.Add(1)
		for {
			cur := f.followerLast.Load()
			if stamp <= cur || f.followerLast.CompareAndSwap(cur, stamp) {
				break
			}
		}
	}
	f.rec.add(tc, "teardown")
}

func TestCoordinator_LeaderOwnedSharedState(t *testing.T) {
	rec := newRecorder()
	fx := &leaderOwnedFixture{rec: rec}

	var nilSeen atomic.Int32
	samples, err := NewCoordinator(nil).Run(context.Background(), Session{
		Threads: 4,
		Fixture: fx,
		Body: func(tc ThreadContext) Sample {
			rec.add(tc, "body")
			for i := 0; i < 100; i++ {
				if fx.data == nil || *fx.data != 42 {
					nilSeen.Add(1)
				}
			}
			return Sample{Iterations: 100}
		},
	})
	require.NoError(t, err)
	require.Len(t, samples, 4)

	assert.Zero(t, nilSeen.Load(), "a follower observed uninitialized shared data")
	assert.Nil(t, fx.data)
	assert.Less(t, rec.lastIndex("setup:"), rec.firstIndex("body:"))
	assert.Less(t, rec.lastIndex("body:"), rec.firstIndex("teardown:"))
	assert.Equal(t, "teardown:0", rec.events[len(rec.events)-1])
	assert.Less(t, fx.followerLast.Load(), fx.leaderStart.Load())
}

type slotFixture struct {
	data      *SharedSlot[*int]
	destroyed atomic.Int32
	rec       *recorder
}

func newSlotFixture(rec *recorder) *slotFixture {
	f := &slotFixture{rec: rec}
	f.data = NewSharedSlot(func() *int {
		v := 42
		return &v
	}, func(*int) {
		f.destroyed.Add(1)
	})
	return f
}

func (f *slotFixture) SetUp(tc ThreadContext) {
	benchErrors.Check(*f.data.Get() == 42, "slot not ready in setup")
	f.rec.add(tc, "setup")
}

func (f *slotFixture) TearDown(tc ThreadContext) {
	benchErrors.Check(f.data.Live(), "slot released before teardown")
	f.rec.add(tc, "teardown")
}

func (f *slotFixture) SharedResources() []Resource {
	return []Resource{f.data}
}

func TestCoordinator_SharedSlotLifecycle(t *testing.T) {
	rec := newRecorder()
	fx := newSlotFixture(rec)

	_, err := NewCoordinator(nil).Run(context.Background(), Session{
		Threads: 4,
		Fixture: fx,
		Body: func(tc ThreadContext) Sample {
			for i := 0; i < 50; i++ {
				benchErrors.Check(*fx.data.Get() == 42, "bad shared value")
			}
			return Sample{Iterations: 50}
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), fx.destroyed.Load())
	assert.False(t, fx.data.Live())

	// A second session on the same fixture constructs the slot again.
	_, err = NewCoordinator(nil).Run(context.Background(), Session{
		Threads: 2,
		Fixture: fx,
		Body:    func(ThreadContext) Sample { return Sample{} },
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), fx.destroyed.Load())
}

func TestCoordinator_SingleThreadMatchesCollapsedSequence(t *testing.T) {
	run := func(threads int) *recorder {
		rec := newRecorder()
		fx := &leaderOwnedFixture{rec: rec}
		_, err := NewCoordinator(nil).Run(context.Background(), Session{
			Threads: threads,
			Fixture: fx,
			Body: func(tc ThreadContext) Sample {
				rec.add(tc, "body")
				return Sample{Iterations: 1}
			},
		})
		require.NoError(t, err)
		return rec
	}

	single := run(1)
	multi := run(4)

	want := []string{"setup", "body", "teardown"}
	assert.Equal(t, want, single.byThread[0])
	for i := 0; i < 4; i++ {
		assert.Equal(t, want, multi.byThread[i], "thread %d", i)
	}
}

func TestCoordinator_SamplesOrderedByThread(t *testing.T) {
	samples, err := NewCoordinator(nil).Run(context.Background(), Session{
		Threads: 3,
		Body: func(tc ThreadContext) Sample {
			return Sample{Iterations: 10, Items: int64(tc.Index)}
		},
	})
	require.NoError(t, err)
	for i, s := range samples {
		assert.Equal(t, int64(i), s.Items)
	}
}

func TestCoordinator_PanicAbortsSession(t *testing.T) {
	phases := []struct {
		name  string
		phase benchErrors.Phase
		fx    func() Fixture
		body  func(ThreadContext) Sample
	}{
		{
			name:  "setup",
			phase: benchErrors.PhaseSetUp,
			fx:    func() Fixture { return panicFixture{onSetUp: 2} },
			body:  func(ThreadContext) Sample { return Sample{} },
		},
		{
			name:  "body",
			phase: benchErrors.PhaseBody,
			fx:    func() Fixture { return NopFixture{} },
			body: func(tc ThreadContext) Sample {
				benchErrors.Check(tc.Index != 1, "assertion failed")
				return Sample{}
			},
		},
		{
			name:  "teardown",
			phase: benchErrors.PhaseTearDown,
			fx:    func() Fixture { return panicFixture{onTearDown: 0} },
			body:  func(ThreadContext) Sample { return Sample{} },
		},
	}

	for _, tt := range phases {
		t.Run(tt.name, func(t *testing.T) {
			samples, err := NewCoordinator(nil).Run(context.Background(), Session{
				Threads: 4,
				Fixture: tt.fx(),
				Body:    tt.body,
			})
			require.Error(t, err)
			assert.Nil(t, samples)

			var cv *benchErrors.ContractViolation
			require.ErrorAs(t, err, &cv)
			assert.Equal(t, tt.phase, cv.Phase)
			assert.NotEmpty(t, cv.Stack)
		})
	}
}

type panicFixture struct {
	onSetUp    int
	onTearDown int
}

func (p panicFixture) SetUp(tc ThreadContext) {
	if p.onSetUp > 0 && tc.Index == p.onSetUp {
		panic("setup exploded")
	}
}

func (p panicFixture) TearDown(tc ThreadContext) {
	if p.onSetUp == 0 && tc.Index == p.onTearDown {
		panic("teardown exploded")
	}
}

func TestCoordinator_InvalidSession(t *testing.T) {
	c := NewCoordinator(nil)

	_, err := c.Run(context.Background(), Session{Threads: 0, Body: func(ThreadContext) Sample { return Sample{} }})
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = c.Run(context.Background(), Session{Threads: 1})
	assert.ErrorIs(t, err, ErrInvalidSession)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Run(ctx, Session{Threads: 1, Body: func(ThreadContext) Sample { return Sample{} }})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSharedSlot_AccessOutsideLifetime(t *testing.T) {
	slot := NewSharedSlot(func() int { return 7 }, nil)

	assert.PanicsWithError(t,
		"contract violation in harness: shared resource accessed outside its lifetime",
		func() { slot.Get() })

	slot.construct()
	assert.Equal(t, 7, slot.Get())
	assert.Panics(t, func() { slot.construct() })

	slot.release()
	assert.Panics(t, func() { slot.Get() })
	assert.Panics(t, func() { slot.release() })
}

func TestBarrier(t *testing.T) {
	t.Run("single party never blocks", func(t *testing.T) {
		b := newBarrier(1)
		for i := 0; i < 3; i++ {
			assert.NoError(t, b.Wait())
		}
	})

	t.Run("releases all parties per generation", func(t *testing.T) {
		const parties = 4
		b := newBarrier(parties)
		var arrived atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < parties; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for round := 0; round < 3; round++ {
					arrived.Add(1)
					assert.NoError(t, b.Wait())
					assert.GreaterOrEqual(t, arrived.Load(), int32(parties*(round+1)))
					assert.NoError(t, b.Wait())
				}
			}()
		}
		wg.Wait()
	})

	t.Run("break releases waiters", func(t *testing.T) {
		b := newBarrier(2)
		done := make(chan error)
		go func() { done <- b.Wait() }()
		b.Break()
		assert.ErrorIs(t, <-done, errBarrierBroken)
		assert.ErrorIs(t, b.Wait(), errBarrierBroken)
	})
}

func TestSystemClock_ThreadCPUMonotonic(t *testing.T) {
	var c SystemClock
	before := c.ThreadCPU()
	x := 0
	for i := 0; i < 1_000_000; i++ {
		x += i
	}
	_ = x
	assert.GreaterOrEqual(t, c.ThreadCPU(), before)
}
