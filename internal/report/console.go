package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"benchcore/internal/benchmark"
)

// Console writes one table row per run.
type Console struct {
	w   io.Writer
	ctx *Context
}

func NewConsole(w io.Writer, ctx *Context) *Console {
	return &Console{w: w, ctx: ctx}
}

// Report prints every run of res in store order. Baseline columns are added
// when the context asks for them; runs whose baseline has no record show "-".
func (c *Console) Report(res *benchmark.Results) error {
	ratios := map[int]benchmark.Ratio{}
	if c.ctx.ReportBaseline() {
		found, _ := benchmark.CompareBaselines(res.Store, res.Baselines)
		for _, r := range found {
			ratios[r.Run.Index] = r
		}
	}

	w := tabwriter.NewWriter(c.w, 0, 0, 3, ' ', 0)
	header := "BENCHMARK\tTIME\tCPU\tITERATIONS\tRATE"
	if c.ctx.ReportBaseline() {
		header += "\tBASELINE\tREAL RATIO\tCPU RATIO"
	}
	fmt.Fprintln(w, header)

	for _, run := range res.Store.Runs() {
		if run.ErrorOccurred {
			fmt.Fprintf(w, "%s\tERROR OCCURRED: '%s'\n", run.Name(), run.ErrorMessage)
			continue
		}
		unit := run.TimeUnit.String()
		fmt.Fprintf(w, "%s\t%s %s\t%s %s\t%d\t%s",
			run.Name(),
			formatTime(run.AdjustedRealTime()), unit,
			formatTime(run.AdjustedCPUTime()), unit,
			run.Iterations,
			rate(run))
		if c.ctx.ReportBaseline() {
			if r, ok := ratios[run.Index]; ok {
				fmt.Fprintf(w, "\t%s\t%.2f\t%.2f", r.Baseline.Name(), r.RealRatio, r.CPURatio)
			} else {
				fmt.Fprint(w, "\t-\t-\t-")
			}
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

// formatTime keeps about three significant digits for small values.
func formatTime(v float64) string {
	switch {
	case v < 10:
		return fmt.Sprintf("%.2f", v)
	case v < 100:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

func rate(run benchmark.Run) string {
	var out string
	if v := run.BytesPerSecond(); v > 0 {
		out = humanize(v, 1024) + "B/s"
	}
	if v := run.ItemsPerSecond(); v > 0 {
		if out != "" {
			out += " "
		}
		out += humanize(v, 1000) + " items/s"
	}
	if run.ReportLabel != "" {
		if out != "" {
			out += " "
		}
		out += run.ReportLabel
	}
	if out == "" {
		return "-"
	}
	return out
}

func humanize(v float64, base float64) string {
	suffixes := []string{"", "k", "M", "G", "T", "P"}
	i := 0
	for v >= base && i < len(suffixes)-1 {
		v /= base
		i++
	}
	return fmt.Sprintf("%.4g%s", v, suffixes[i])
}
