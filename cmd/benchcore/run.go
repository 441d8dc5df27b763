package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"benchcore/internal/benchmark"
	"benchcore/internal/config"
	"benchcore/internal/db"
	"benchcore/internal/metrics"
	"benchcore/internal/report"
	"benchcore/internal/suite"
	"benchcore/internal/telemetry"
)

// Swappable in tests.
var (
	suiteFunc      = suite.Default
	newHistoryFunc = func(cfg db.StoreConfig) (db.History, error) { return db.NewStore(cfg) }
	newContextFunc = report.NewContext
)

type runOptions struct {
	compare   bool
	threshold float64
	failRegr  bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	unit := &unitFlag{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the registered benchmarks and print a report",
		Long: `Prints the environment banner, runs every registered benchmark and
reports per-iteration timings. Runs that declared a baseline are shown with
their ratio against it.

A contract violation in a fixture or benchmark body aborts the session: the
runs completed so far are reported and the command exits with status 1.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmarks(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.Duration("min-time", benchmark.DefaultMinTime, "Minimum real time per instantiation")
	flags.Var(unit, "unit", "Display unit for adjusted times (ns, us, ms, s)")
	flags.Int64("max-iterations", benchmark.DefaultMaxIterations, "Upper bound on iterations per instantiation")
	flags.Bool("report-baseline", true, "Show baseline ratio columns")
	flags.Bool("save", false, "Save the session to history")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address while running")
	flags.BoolVar(&opts.compare, "compare", false, "Compare with the previous saved session")
	flags.Float64Var(&opts.threshold, "threshold", 10.0, "Percentage slowdown reported as a regression")
	flags.BoolVar(&opts.failRegr, "fail-on-regression", false, "Return an error when a regression is found")

	viper.BindPFlag("min_time", flags.Lookup("min-time"))
	viper.BindPFlag("time_unit", flags.Lookup("unit"))
	viper.BindPFlag("max_iterations", flags.Lookup("max-iterations"))
	viper.BindPFlag("report_baseline", flags.Lookup("report-baseline"))
	viper.BindPFlag("store.save", flags.Lookup("save"))
	viper.BindPFlag("metrics_addr", flags.Lookup("metrics-addr"))

	return cmd
}

func runBenchmarks(cmd *cobra.Command, opts *runOptions) error {
	settings, err := config.Current()
	if err != nil {
		return err
	}
	unit, err := benchmark.ParseTimeUnit(settings.TimeUnit)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	rctx := newContextFunc(os.Args[0], settings.ReportBaseline)
	if err := report.PrintBasicContext(out, rctx); err != nil {
		return err
	}

	m := metrics.NewMetrics()
	if settings.MetricsAddr != "" {
		srv, err := telemetry.StartMetricsServer(settings.MetricsAddr, m.Handler())
		if err != nil {
			return err
		}
		defer srv.Shutdown(context.Background())
		telemetry.LogInfo("metrics server listening", "addr", srv.Addr())
	}

	defs := suiteFunc()
	telemetry.LogDebug("running suite", "definitions", len(defs), "min_time", settings.MinTime, "unit", unit.String())
	for _, d := range defs {
		d.Unit(unit)
	}
	runner := benchmark.NewRunner(
		benchmark.WithLogger(slog.Default()),
		benchmark.WithMinTime(settings.MinTime),
		benchmark.WithMaxIterations(settings.MaxIterations),
		benchmark.WithObserver(m),
	)
	res, runErr := runner.Run(ctx, defs)
	if res != nil {
		if err := report.NewConsole(out, rctx).Report(res); err != nil {
			return err
		}
	}
	if runErr != nil {
		if errors.Is(runErr, benchmark.ErrSessionAborted) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", runErr)
			exit(1)
			return nil
		}
		return runErr
	}
	telemetry.LogInfof("session finished with %d runs", res.Store.Len())

	if !settings.Store.Save && !opts.compare {
		return nil
	}
	history, err := newHistoryFunc(db.StoreConfig{Type: settings.Store.Type, ConnectionString: settings.Store.DSN})
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer history.Close()

	var prev []db.SessionInfo
	if opts.compare {
		if prev, err = history.ListSessions(ctx, 1); err != nil {
			return err
		}
	}

	if settings.Store.Save {
		cpu := rctx.CPU()
		id, err := history.SaveSession(ctx, db.SessionInfo{
			Executable: rctx.Executable(),
			NumCPUs:    cpu.NumCPUs,
			MHz:        cpu.MHz(),
		}, res.Store.Runs())
		if err != nil {
			telemetry.LogError("failed to save session", err, "store", settings.Store.Type)
			return fmt.Errorf("save session: %w", err)
		}
		telemetry.LogDebug("session saved", "id", id, "runs", res.Store.Len())
		fmt.Fprintf(out, "\nResults saved as session %s\n", id)
	}

	if !opts.compare {
		return nil
	}
	if len(prev) == 0 {
		fmt.Fprintln(out, "\nNo previous session to compare with.")
		return nil
	}
	prevRuns, err := history.LoadRuns(ctx, prev[0].ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nComparison with previous session %s:\n", prev[0].ID)
	regressions := printComparison(out, benchmark.Compare(prevRuns, res.Store.Runs()), opts.threshold)
	if regressions > 0 && opts.failRegr {
		return fmt.Errorf("performance regression detected in %d benchmark(s)", regressions)
	}
	return nil
}

// printComparison writes a comparison table and returns how many entries
// slowed down by more than threshold percent.
func printComparison(w io.Writer, comps []benchmark.Comparison, threshold float64) int {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "BENCHMARK\tREAL/ITER\tCPU/ITER\tITEMS/S\t")
	regressions := 0
	for _, c := range comps {
		status := ""
		if c.RealDiff > threshold {
			status = "REGRESSION"
			regressions++
		}
		fmt.Fprintf(tw, "%s\t%+.2f%%\t%+.2f%%\t%+.2f%%\t%s\n", c.Name, c.RealDiff, c.CPUDiff, c.ItemsDiff, status)
	}
	tw.Flush()
	return regressions
}
