package benchmark

// Registry links dependent instantiations to the baseline they are reported
// against. Links are declared before any run executes.
type Registry struct {
	links map[string][]link
}

type link struct {
	dependent, baseline Key
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{links: make(map[string][]link)}
}

// Declare records that dependent is reported relative to baseline. A later
// declaration for the same dependent replaces the earlier one.
func (r *Registry) Declare(dependent, baseline Key) {
	bucket := r.links[dependent.Name]
	for i := range bucket {
		if bucket[i].dependent.Equal(dependent) {
			bucket[i].baseline = baseline
			return
		}
	}
	r.links[dependent.Name] = append(bucket, link{dependent: dependent, baseline: baseline})
}

// BaselineOf returns the baseline declared for dependent.
func (r *Registry) BaselineOf(dependent Key) (Key, bool) {
	for _, l := range r.links[dependent.Name] {
		if l.dependent.Equal(dependent) {
			return l.baseline, true
		}
	}
	return Key{}, false
}

// Len returns the number of declared links.
func (r *Registry) Len() int {
	n := 0
	for _, bucket := range r.links {
		n += len(bucket)
	}
	return n
}

// Resolve returns the baseline record for run. It is unavailable when no link
// was declared or the baseline never produced a record in store.
func (r *Registry) Resolve(store *RunStore, run *Run) (*Run, bool) {
	if run == nil {
		return nil, false
	}
	key, ok := r.BaselineOf(run.Key)
	if !ok {
		return nil, false
	}
	return store.FindByKey(key, run.Threads)
}

// ResultsFromRuns rebuilds session results from stored runs, declaring the
// baseline link each run carries.
func ResultsFromRuns(runs []Run) *Results {
	res := &Results{Store: NewRunStore(), Baselines: NewRegistry()}
	for _, run := range runs {
		if run.Baseline != nil {
			res.Baselines.Declare(run.Key, *run.Baseline)
		}
	}
	res.Store.Append(runs)
	return res
}
