package report

import (
	"bufio"
	"fmt"
	"io"
	"time"

	benchErrors "benchcore/internal/errors"
)

const (
	timestampLayout = "2006-01-02 15:04:05"

	scalingWarning = "***WARNING*** CPU scaling is enabled, the benchmark real time measurements may be noisy and will incur extra overhead."
	debugWarning   = "***WARNING*** Library was built as DEBUG. Timings may be affected."
)

// Banner prints the context header of a session. Downstream tools parse its
// output, so the wording is fixed.
type Banner struct {
	Now   func() time.Time
	Debug func() bool
}

// DefaultBanner uses the local wall clock and the binary's build settings.
var DefaultBanner = Banner{Now: time.Now, Debug: builtAsDebug}

// PrintBasicContext writes the context header of ctx to w.
func PrintBasicContext(w io.Writer, ctx *Context) error {
	return DefaultBanner.Print(w, ctx)
}

// Print writes the context header of ctx to w. A nil ctx or writer is a
// contract violation.
func (b Banner) Print(w io.Writer, ctx *Context) error {
	benchErrors.CheckPhase(benchErrors.PhaseReport, w != nil, "banner output cannot be nil")
	benchErrors.CheckPhase(benchErrors.PhaseReport, ctx != nil, "report context cannot be nil")

	now := time.Now
	if b.Now != nil {
		now = b.Now
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, now().Local().Format(timestampLayout))
	if ctx.executable != "" {
		fmt.Fprintf(bw, "Running %s\n", ctx.executable)
	}

	info := ctx.cpu
	plural := ""
	if info.NumCPUs > 1 {
		plural = "s"
	}
	fmt.Fprintf(bw, "Run on (%d X %.6g MHz CPU %s)\n", info.NumCPUs, info.MHz(), plural)

	if len(info.Caches) > 0 {
		fmt.Fprintln(bw, "CPU Caches:")
		for _, c := range info.Caches {
			fmt.Fprintf(bw, "  L%d %s %dK", c.Level, c.Type, c.Size/1000)
			if c.NumSharing != 0 {
				fmt.Fprintf(bw, " (x%d)", info.NumCPUs/c.NumSharing)
			}
			fmt.Fprintln(bw)
		}
	}

	if info.ScalingEnabled {
		fmt.Fprintln(bw, scalingWarning)
	}
	if b.Debug != nil && b.Debug() {
		fmt.Fprintln(bw, debugWarning)
	}
	return bw.Flush()
}
