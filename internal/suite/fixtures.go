package suite

import (
	"container/list"

	"benchcore/internal/benchmark"
	benchErrors "benchcore/internal/errors"
	"benchcore/internal/fixture"
)

// sharedFixture gives every thread of an instantiation the same *int. The
// value exists from before the first SetUp until after the last TearDown.
type sharedFixture struct {
	data *fixture.SharedSlot[*int]
}

func newSharedFixture() *sharedFixture {
	return &sharedFixture{
		data: fixture.NewSharedSlot(func() *int {
			v := 42
			return &v
		}, nil),
	}
}

func (f *sharedFixture) SetUp(tc fixture.ThreadContext) {
	benchErrors.Check(*f.data.Get() == 42, "shared data not ready on thread %d", tc.Index)
}

func (f *sharedFixture) TearDown(tc fixture.ThreadContext) {
	benchErrors.Check(f.data.Live(), "shared data released before teardown on thread %d", tc.Index)
}

func (f *sharedFixture) SharedResources() []fixture.Resource {
	return []fixture.Resource{f.data}
}

// leaderFixture creates its data from the leader's SetUp and drops it in the
// leader's TearDown; followers only read it in between.
type leaderFixture struct {
	data *int
}

func (f *leaderFixture) SetUp(tc fixture.ThreadContext) {
	if tc.IsLeader() {
		benchErrors.Check(f.data == nil, "data already initialized")
		v := 42
		f.data = &v
	}
}

func (f *leaderFixture) TearDown(tc fixture.ThreadContext) {
	if tc.IsLeader() {
		benchErrors.Check(f.data != nil, "data released twice")
		f.data = nil
	}
}

func sharedFixtures() []*benchmark.Definition {
	foo := func(fx *leaderFixture, st *benchmark.State) {
		benchErrors.Check(fx.data != nil && *fx.data == 42, "data missing")
		for st.Next() {
		}
	}

	bar := func(fx *sharedFixture, st *benchmark.State) {
		if st.ThreadIndex() == 0 {
			benchErrors.Check(*fx.data.Get() == 42, "data missing")
		}
		for st.Next() {
			benchErrors.Check(*fx.data.Get() == 42, "data changed")
		}
		st.SetItemsProcessed(st.Range(0))
	}

	test := func(fx *sharedFixture, st *benchmark.State) {
		if st.ThreadIndex() == 0 {
			benchErrors.Check(*fx.data.Get() == 42, "data missing")
		}
		for st.Next() {
			v := *fx.data.Get()
			benchErrors.Check(v == 42, "read %d", v)
		}
		st.SetItemsProcessed(st.Range(0))
	}

	newLeader := func() *leaderFixture { return &leaderFixture{} }

	return []*benchmark.Definition{
		benchmark.WithFixture("MyFixture/Foo", newLeader, foo).ThreadPerCPU(),
		benchmark.WithFixture("MyFixture/Bar", newSharedFixture, bar).Arg(42),
		benchmark.WithFixture("MyFixture/Bar", newSharedFixture, bar).Arg(42).ThreadPerCPU(),
		benchmark.WithFixture("MyFixture/Test", newSharedFixture, test).Arg(42).Baseline("MyFixture/Bar"),
		benchmark.WithFixture("MyFixture/Test", newSharedFixture, test).Arg(42).ThreadPerCPU().Baseline("MyFixture/Bar"),
	}
}

// pusher is a container a templated fixture can grow.
type pusher interface {
	Push(v int)
	Len() int
}

type sliceContainer struct{ s []int }

func (c *sliceContainer) Push(v int) { c.s = append(c.s, v) }
func (c *sliceContainer) Len() int   { return len(c.s) }

type listContainer struct{ l list.List }

func (c *listContainer) Push(v int) { c.l.PushBack(v) }
func (c *listContainer) Len() int   { return c.l.Len() }

// templatedFixture is one fixture shape instantiated per container type.
type templatedFixture[C pusher] struct {
	fixture.NopFixture
	data C
}

func newTemplated[C pusher](newC func() C) func() *templatedFixture[C] {
	return func() *templatedFixture[C] { return &templatedFixture[C]{data: newC()} }
}

func push[C pusher](fx *templatedFixture[C], st *benchmark.State) {
	for st.Next() {
		fx.data.Push(1)
	}
	sink = fx.data.Len()
}

func templatedFixtures() []*benchmark.Definition {
	newSlice := newTemplated(func() *sliceContainer { return &sliceContainer{} })
	newList := newTemplated(func() *listContainer { return &listContainer{} })

	return []*benchmark.Definition{
		benchmark.WithFixture("TemplatedFixture/PushSlice", newSlice, push[*sliceContainer]),
		benchmark.WithFixture("TemplatedFixture/PushList", newList, push[*listContainer]).
			Baseline("TemplatedFixture/PushSlice"),
		benchmark.WithFixture("TemplatedFixture/PushSlice", newSlice, push[*sliceContainer]).Args(1).Args(8).Args(16),
		benchmark.WithFixture("TemplatedFixture/PushList", newList, push[*listContainer]).Args(1).Args(8).Args(16).
			Baseline("TemplatedFixture/PushSlice"),
	}
}
