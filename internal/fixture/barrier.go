package fixture

import (
	"errors"
	"sync"
)

var errBarrierBroken = errors.New("barrier broken")

// barrier is a reusable full barrier for a fixed number of parties. There is
// no timeout: a party that never arrives stalls the others until the barrier
// is broken.
type barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	parties int
	waiting int
	gen     uint64
	broken  bool
}

func newBarrier(parties int) *barrier {
	b := &barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Wait blocks until all parties have called Wait for the current generation.
func (b *barrier) Wait() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.broken {
		return errBarrierBroken
	}

	b.waiting++
	if b.waiting == b.parties {
		b.waiting = 0
		b.gen++
		b.cond.Broadcast()
		return nil
	}

	gen := b.gen
	for gen == b.gen && !b.broken {
		b.cond.Wait()
	}
	if gen == b.gen {
		return errBarrierBroken
	}
	return nil
}

// Break releases every waiting party with an error. Later Wait calls fail
// immediately.
func (b *barrier) Break() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broken = true
	b.cond.Broadcast()
}
