package benchmark

import "fmt"

// Ratio relates a run to its declared baseline.
type Ratio struct {
	Run      *Run
	Baseline *Run
	// Ratios are Run/Baseline of the per-iteration times; 0 when the
	// baseline time is not positive.
	RealRatio float64
	CPURatio  float64
}

func (r Ratio) String() string {
	return fmt.Sprintf("%s vs %s: %.2fx real, %.2fx cpu", r.Run.Name(), r.Baseline.Name(), r.RealRatio, r.CPURatio)
}

// CompareBaselines computes a Ratio for every stored run that has a declared
// baseline with a record. Runs whose baseline is unavailable are returned in
// missing, in store order.
func CompareBaselines(store *RunStore, reg *Registry) (ratios []Ratio, missing []*Run) {
	runs := store.Runs()
	for i := range runs {
		run := &runs[i]
		if _, declared := reg.BaselineOf(run.Key); !declared {
			continue
		}
		base, ok := reg.Resolve(store, run)
		if !ok {
			missing = append(missing, run)
			continue
		}
		ratios = append(ratios, Ratio{
			Run:       run,
			Baseline:  base,
			RealRatio: ratio(perIteration(run.RealAccumulatedTime.Nanoseconds(), run.Iterations), perIteration(base.RealAccumulatedTime.Nanoseconds(), base.Iterations)),
			CPURatio:  ratio(perIteration(run.CPUAccumulatedTime.Nanoseconds(), run.Iterations), perIteration(base.CPUAccumulatedTime.Nanoseconds(), base.Iterations)),
		})
	}
	return ratios, missing
}

func perIteration(ns, iterations int64) float64 {
	if iterations == 0 {
		return float64(ns)
	}
	return float64(ns) / float64(iterations)
}

func ratio(v, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return v / base
}

// Comparison is the change of one instantiation between two sessions.
type Comparison struct {
	Name       string
	RealDiff   float64 // Percentage change
	CPUDiff    float64 // Percentage change
	ItemsDiff  float64 // Percentage change of items/s
	Prev, Curr Run
}

// Compare matches runs of two sessions by display name and returns the
// comparisons for the ones present in both, in curr order.
func Compare(prev, curr []Run) []Comparison {
	prevMap := make(map[string]Run, len(prev))
	for _, r := range prev {
		if _, ok := prevMap[r.Name()]; !ok {
			prevMap[r.Name()] = r
		}
	}

	var comparisons []Comparison
	for _, c := range curr {
		p, ok := prevMap[c.Name()]
		if !ok {
			continue
		}
		comp := Comparison{Name: c.Name(), Prev: p, Curr: c}
		comp.RealDiff = percent(perIteration(p.RealAccumulatedTime.Nanoseconds(), p.Iterations), perIteration(c.RealAccumulatedTime.Nanoseconds(), c.Iterations))
		comp.CPUDiff = percent(perIteration(p.CPUAccumulatedTime.Nanoseconds(), p.Iterations), perIteration(c.CPUAccumulatedTime.Nanoseconds(), c.Iterations))
		comp.ItemsDiff = percent(p.ItemsPerSecond(), c.ItemsPerSecond())
		comparisons = append(comparisons, comp)
	}
	return comparisons
}

func percent(prev, curr float64) float64 {
	if prev <= 0 {
		return 0
	}
	return (curr - prev) / prev * 100
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s: %+.2f%% real/iter", c.Name, c.RealDiff)
}
