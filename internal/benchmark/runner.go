package benchmark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"benchcore/internal/fixture"
)

// ErrSessionAborted wraps the fatal error that stopped a session. The
// underlying *errors.ContractViolation stays reachable through errors.As.
var ErrSessionAborted = errors.New("benchmark session aborted")

const (
	DefaultMinTime       = 500 * time.Millisecond
	DefaultMaxIterations = int64(1_000_000_000)
)

// Observer is notified as a session progresses. Calls come from the
// orchestrating goroutine only.
type Observer interface {
	RunCompleted(r Run)
	SessionAborted(name string, err error)
}

// Results is the outcome of a session: the completed runs and the baseline
// links declared for them.
type Results struct {
	Store     *RunStore
	Baselines *Registry
}

// Runner executes benchmark definitions.
type Runner struct {
	coordinator   *fixture.Coordinator
	logger        *slog.Logger
	clock         fixture.Clock
	minTime       time.Duration
	maxIterations int64
	observers     []Observer
}

// Option configures a Runner.
type Option func(*Runner)

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

func WithClock(c fixture.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithMinTime sets the per-thread real time an instantiation must reach
// before its iteration count stops growing.
func WithMinTime(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.minTime = d
		}
	}
}

func WithMaxIterations(n int64) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxIterations = n
		}
	}
}

func WithObserver(o Observer) Option {
	return func(r *Runner) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger:        slog.Default(),
		clock:         fixture.SystemClock{},
		minTime:       DefaultMinTime,
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.coordinator = fixture.NewCoordinator(r.logger)
	return r
}

// Run executes every instantiation of defs in order. All baseline links are
// declared before the first instantiation runs. Each definition's runs are
// appended to the store as one batch once the definition completes.
//
// A contract violation stops the session: the returned Results hold the runs
// of the definitions that completed, and the error wraps ErrSessionAborted.
func (r *Runner) Run(ctx context.Context, defs []*Definition) (*Results, error) {
	res := &Results{Store: NewRunStore(), Baselines: NewRegistry()}

	plans := make([][]Instance, len(defs))
	for i, d := range defs {
		instances, err := d.Instances()
		if err != nil {
			return res, err
		}
		plans[i] = instances
		if d.baseline == "" {
			continue
		}
		for _, k := range d.Keys() {
			res.Baselines.Declare(k, Key{Name: d.baseline, Args: k.Args})
		}
	}

	index := 0
	for i, instances := range plans {
		batch := make([]Run, 0, len(instances))
		for _, inst := range instances {
			if err := ctx.Err(); err != nil {
				res.Store.Append(batch)
				return res, err
			}
			run, err := r.runInstance(ctx, inst)
			if err != nil {
				res.Store.Append(batch)
				r.logger.Error("benchmark session aborted", "benchmark", inst.Name(), "error", err)
				for _, o := range r.observers {
					o.SessionAborted(inst.Name(), err)
				}
				return res, fmt.Errorf("%w: %s: %w", ErrSessionAborted, inst.Name(), err)
			}
			run.Index = index
			index++
			if base, ok := res.Baselines.BaselineOf(run.Key); ok {
				run.Baseline = &base
			}
			batch = append(batch, run)
			r.logger.Debug("benchmark finished",
				"benchmark", run.Name(),
				"iterations", run.Iterations,
				"real_per_iter", run.AdjustedRealTime(),
				"unit", run.TimeUnit.String())
			for _, o := range r.observers {
				o.RunCompleted(run)
			}
		}
		res.Store.Append(batch)
		r.logger.Debug("definition complete", "benchmark", defs[i].Name(), "runs", len(batch))
	}
	return res, nil
}

func (r *Runner) runInstance(ctx context.Context, inst Instance) (Run, error) {
	def := inst.def
	minTime := r.minTime
	if def.minTime > 0 {
		minTime = def.minTime
	}
	fixed := def.iterations > 0
	iters := int64(1)
	if fixed {
		iters = def.iterations
	}

	for {
		totals, err := r.measure(ctx, inst, iters)
		if err != nil {
			return Run{}, err
		}
		perThread := totals.Real / time.Duration(inst.Threads)
		if fixed || totals.Error != "" || iters >= r.maxIterations || perThread >= minTime {
			return Run{
				Key:                 inst.Key,
				Threads:             inst.Threads,
				Iterations:          totals.Iterations,
				RealAccumulatedTime: totals.Real,
				CPUAccumulatedTime:  totals.CPU,
				TimeUnit:            def.unit,
				ItemsProcessed:      totals.Items,
				BytesProcessed:      totals.Bytes,
				ReportLabel:         totals.Label,
				ErrorOccurred:       totals.Error != "",
				ErrorMessage:        totals.Error,
			}, nil
		}
		iters = nextIterations(iters, perThread, minTime, r.maxIterations)
	}
}

// measure runs one session of the instantiation with a fresh fixture.
func (r *Runner) measure(ctx context.Context, inst Instance, iters int64) (Totals, error) {
	fx := inst.def.newFixture()
	samples, err := r.coordinator.Run(ctx, fixture.Session{
		Threads: inst.Threads,
		Fixture: fx,
		Body: func(tc fixture.ThreadContext) fixture.Sample {
			st := newState(tc, inst.Key.Args, iters, r.clock)
			inst.def.body(fx, st)
			return st.finish()
		},
	})
	if err != nil {
		return Totals{}, err
	}
	return Aggregate(samples)
}

// nextIterations predicts the iteration count that reaches minTime, with 40%
// headroom. Short measurements grow by at most 10x since their timing is too
// noisy to extrapolate from.
func nextIterations(iters int64, elapsed, minTime time.Duration, limit int64) int64 {
	seconds := elapsed.Seconds()
	multiplier := minTime.Seconds() * 1.4 / max(seconds, 1e-9)
	if seconds/minTime.Seconds() <= 0.1 {
		multiplier = min(10, multiplier)
	}
	if multiplier <= 1 {
		multiplier = 2
	}
	next := max(int64(multiplier*float64(iters)), iters+1)
	return min(next, limit)
}
