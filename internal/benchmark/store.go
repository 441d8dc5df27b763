package benchmark

import "slices"

// RunStore holds the completed runs of one reporting session in append order.
// It is written by the orchestrating goroutine only and needs no locking.
type RunStore struct {
	runs    []Run
	byIndex map[int]int // run index -> slot
}

// NewRunStore creates an empty store.
func NewRunStore() *RunStore {
	return &RunStore{byIndex: make(map[int]int)}
}

// Append adds a batch of runs, keeping their order and their pre-assigned
// indices. Duplicate indices are not detected; lookups return the first one.
func (s *RunStore) Append(batch []Run) {
	if len(batch) == 0 {
		return
	}
	s.runs = slices.Grow(s.runs, len(batch))
	for _, r := range batch {
		if _, dup := s.byIndex[r.Index]; !dup {
			s.byIndex[r.Index] = len(s.runs)
		}
		s.runs = append(s.runs, r)
	}
}

// GetByIndex returns the run whose Index equals i.
func (s *RunStore) GetByIndex(i int) (*Run, bool) {
	slot, ok := s.byIndex[i]
	if !ok {
		return nil, false
	}
	return &s.runs[slot], true
}

// FindByKey returns the run for key, preferring one with the given thread
// count and falling back to the first run of that key.
func (s *RunStore) FindByKey(key Key, threads int) (*Run, bool) {
	var first *Run
	for i := range s.runs {
		r := &s.runs[i]
		if !r.Key.Equal(key) {
			continue
		}
		if r.Threads == threads {
			return r, true
		}
		if first == nil {
			first = r
		}
	}
	return first, first != nil
}

// Runs returns the stored runs in append order. Callers must not modify them.
func (s *RunStore) Runs() []Run {
	return s.runs[:len(s.runs):len(s.runs)]
}

// Len returns the number of stored runs.
func (s *RunStore) Len() int {
	return len(s.runs)
}
