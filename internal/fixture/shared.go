package fixture

import (
	"sync/atomic"

	benchErrors "benchcore/internal/errors"
)

// Resource is a piece of fixture state shared by every worker thread of an
// instantiation. Only SharedSlot implements it; the coordinator owns its
// lifecycle.
type Resource interface {
	construct()
	release()
}

// SharedProvider is implemented by fixtures that hold shared resources.
type SharedProvider interface {
	SharedResources() []Resource
}

const (
	slotEmpty int32 = iota
	slotLive
)

// SharedSlot holds a value constructed once before the setup barrier releases
// and destroyed once after every thread finished its teardown. Workers read it
// with Get during the timed region.
type SharedSlot[T any] struct {
	newValue func() T
	destroy  func(T)

	state atomic.Int32
	value T
}

// NewSharedSlot creates a slot. destroy may be nil.
func NewSharedSlot[T any](newValue func() T, destroy func(T)) *SharedSlot[T] {
	benchErrors.Check(newValue != nil, "shared slot needs a constructor")
	return &SharedSlot[T]{newValue: newValue, destroy: destroy}
}

// Get returns the shared value. Reading an unconstructed or destroyed slot is a
// contract violation.
func (s *SharedSlot[T]) Get() T {
	benchErrors.Check(s.state.Load() == slotLive, "shared resource accessed outside its lifetime")
	return s.value
}

// Live reports whether the value is currently constructed.
func (s *SharedSlot[T]) Live() bool {
	return s.state.Load() == slotLive
}

func (s *SharedSlot[T]) construct() {
	benchErrors.Check(s.state.Load() == slotEmpty, "shared resource constructed twice")
	s.value = s.newValue()
	s.state.Store(slotLive)
}

func (s *SharedSlot[T]) release() {
	benchErrors.Check(s.state.Load() == slotLive, "shared resource released while not live")
	s.state.Store(slotEmpty)
	if s.destroy != nil {
		s.destroy(s.value)
	}
	var zero T
	s.value = zero
}
