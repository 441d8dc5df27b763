package benchmark

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"benchcore/internal/fixture"
	"benchcore/internal/sysinfo"
)

// ErrInvalidDefinition is returned for definitions that cannot be instantiated.
var ErrInvalidDefinition = errors.New("invalid benchmark definition")

// Definition describes a benchmark and the instantiations it expands to: one
// per argument tuple and thread count.
type Definition struct {
	name       string
	newFixture func() fixture.Fixture
	body       func(fx fixture.Fixture, st *State)

	args         [][]int64
	threads      []int
	threadPerCPU bool
	unit         TimeUnit
	minTime      time.Duration
	iterations   int64
	baseline     string

	// cpus resolves the thread-per-CPU count when instances are built.
	cpus func() int
}

// New defines a benchmark without a fixture.
func New(name string, fn func(st *State)) *Definition {
	return &Definition{
		name:       name,
		newFixture: func() fixture.Fixture { return fixture.NopFixture{} },
		body:       func(_ fixture.Fixture, st *State) { fn(st) },
		cpus:       defaultCPUs,
	}
}

// WithFixture defines a benchmark whose threads share one fixture instance per
// instantiation. newFixture is called once for each instantiation.
func WithFixture[F fixture.Fixture](name string, newFixture func() F, fn func(fx F, st *State)) *Definition {
	return &Definition{
		name:       name,
		newFixture: func() fixture.Fixture { return newFixture() },
		body:       func(fx fixture.Fixture, st *State) { fn(fx.(F), st) },
		cpus:       defaultCPUs,
	}
}

func defaultCPUs() int {
	return sysinfo.Get().NumCPUs
}

// Name returns the benchmark name.
func (d *Definition) Name() string { return d.name }

// Args adds an argument tuple. Each call produces its own instantiations.
func (d *Definition) Args(args ...int64) *Definition {
	d.args = append(d.args, slices.Clone(args))
	return d
}

// Arg adds a single-argument tuple.
func (d *Definition) Arg(v int64) *Definition {
	return d.Args(v)
}

// Threads adds explicit thread counts.
func (d *Definition) Threads(counts ...int) *Definition {
	d.threads = append(d.threads, counts...)
	return d
}

// ThreadPerCPU adds an instantiation with one thread per logical core.
func (d *Definition) ThreadPerCPU() *Definition {
	d.threadPerCPU = true
	return d
}

// Unit sets the display unit of adjusted times.
func (d *Definition) Unit(u TimeUnit) *Definition {
	d.unit = u
	return d
}

// MinTime overrides the runner's minimum measured time.
func (d *Definition) MinTime(t time.Duration) *Definition {
	d.minTime = t
	return d
}

// Iterations fixes the iteration count and disables iteration growth.
func (d *Definition) Iterations(n int64) *Definition {
	d.iterations = n
	return d
}

// Baseline reports every instantiation relative to the benchmark named base
// with the same argument tuple.
func (d *Definition) Baseline(base string) *Definition {
	d.baseline = base
	return d
}

// BaselineName returns the declared baseline benchmark, if any.
func (d *Definition) BaselineName() string { return d.baseline }

// Instance is one instantiation of a Definition.
type Instance struct {
	def     *Definition
	Key     Key
	Threads int
}

// Name returns the display name of the instantiation.
func (i Instance) Name() string {
	return Run{Key: i.Key, Threads: i.Threads}.Name()
}

// Keys returns the instantiation keys of d, one per argument tuple.
func (d *Definition) Keys() []Key {
	if len(d.args) == 0 {
		return []Key{{Name: d.name}}
	}
	keys := make([]Key, 0, len(d.args))
	for _, a := range d.args {
		keys = append(keys, Key{Name: d.name, Args: a})
	}
	return keys
}

func (d *Definition) validate() error {
	if d.name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDefinition)
	}
	if d.body == nil {
		return fmt.Errorf("%w: %s has no body", ErrInvalidDefinition, d.name)
	}
	for _, t := range d.threads {
		if t < 1 {
			return fmt.Errorf("%w: %s has thread count %d", ErrInvalidDefinition, d.name, t)
		}
	}
	if d.iterations < 0 {
		return fmt.Errorf("%w: %s has negative iteration count", ErrInvalidDefinition, d.name)
	}
	if d.minTime < 0 {
		return fmt.Errorf("%w: %s has negative min time", ErrInvalidDefinition, d.name)
	}
	if d.baseline == d.name {
		return fmt.Errorf("%w: %s is its own baseline", ErrInvalidDefinition, d.name)
	}
	return nil
}

// Instances expands d into its instantiations: argument tuples in declaration
// order, each with its thread counts. The per-CPU count is resolved here.
func (d *Definition) Instances() ([]Instance, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	counts := slices.Clone(d.threads)
	if d.threadPerCPU {
		n := d.cpus()
		if n < 1 {
			n = 1
		}
		counts = append(counts, n)
	}
	if len(counts) == 0 {
		counts = []int{1}
	}

	var out []Instance
	for _, k := range d.Keys() {
		for _, t := range counts {
			out = append(out, Instance{def: d, Key: k, Threads: t})
		}
	}
	return out, nil
}
