package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"benchcore/internal/benchmark"
	"benchcore/internal/config"
	"benchcore/internal/db"
	"benchcore/internal/report"
	"benchcore/internal/sysinfo"
	"benchcore/internal/utils"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect saved benchmark sessions",
	}
	cmd.AddCommand(newHistoryListCmd(), newHistoryShowCmd(), newHistoryDiffCmd(), newHistoryTrendCmd())
	return cmd
}

func openHistory(cmd *cobra.Command) (db.History, context.Context, error) {
	settings, err := config.Current()
	if err != nil {
		return nil, nil, err
	}
	h, err := newHistoryFunc(db.StoreConfig{Type: settings.Store.Type, ConnectionString: settings.Store.DSN})
	if err != nil {
		return nil, nil, fmt.Errorf("open history: %w", err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return h, ctx, nil
}

func newHistoryListCmd() *cobra.Command {
	var (
		limit int
		since string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			var cutoff time.Time
			if since != "" {
				var err error
				if cutoff, err = utils.ParseSince(since, now); err != nil {
					return err
				}
			}

			h, ctx, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer h.Close()

			sessions, err := h.ListSessions(ctx, limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			shown := 0
			for _, s := range sessions {
				if s.CreatedAt.Before(cutoff) {
					continue
				}
				if shown == 0 {
					fmt.Fprintln(w, "ID\tCREATED\tAGE\tCPUS\tMHZ\tRUNS")
				}
				shown++
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.0f\t%d\n",
					s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04:05"), utils.FormatAge(s.CreatedAt, now),
					s.NumCPUs, s.MHz, s.RunCount)
			}
			if shown == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved sessions.")
				return nil
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of sessions to list")
	cmd.Flags().StringVar(&since, "since", "", "Only sessions newer than this age (7d, 24h) or date (YYYY-MM-DD)")
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Report the runs of a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, ctx, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer h.Close()

			info, err := h.LoadSession(ctx, args[0])
			if errors.Is(err, db.ErrSessionNotFound) {
				return fmt.Errorf("session %q not found", args[0])
			}
			if err != nil {
				return err
			}
			runs, err := h.LoadRuns(ctx, args[0])
			if err != nil {
				return err
			}
			// The stored session describes the host it ran on, not this one.
			cpu := &sysinfo.CPUInfo{NumCPUs: info.NumCPUs, CyclesPerSecond: info.MHz * 1e6}
			rctx := report.NewContextWithCPU(info.Executable, cpu, true)
			return report.NewConsole(cmd.OutOrStdout(), rctx).Report(benchmark.ResultsFromRuns(runs))
		},
	}
}

func newHistoryDiffCmd() *cobra.Command {
	var threshold float64
	cmd := &cobra.Command{
		Use:   "diff <old-session-id> <new-session-id>",
		Short: "Compare two saved sessions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, ctx, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer h.Close()

			prev, err := h.LoadRuns(ctx, args[0])
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}
			curr, err := h.LoadRuns(ctx, args[1])
			if err != nil {
				return fmt.Errorf("load %s: %w", args[1], err)
			}
			comps := benchmark.Compare(prev, curr)
			if len(comps) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No benchmarks in common.")
				return nil
			}
			printComparison(cmd.OutOrStdout(), comps, threshold)
			return nil
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", 10.0, "Percentage slowdown reported as a regression")
	return cmd
}

func newHistoryTrendCmd() *cobra.Command {
	var threads, limit int
	cmd := &cobra.Command{
		Use:   "trend <benchmark> [arg...]",
		Short: "Show recent saved runs of one benchmark instantiation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := benchmark.Key{Name: args[0]}
			for _, a := range args[1:] {
				v, err := strconv.ParseInt(a, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid argument %q: %w", a, err)
				}
				key.Args = append(key.Args, v)
			}

			h, ctx, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer h.Close()

			runs, err := h.RunsForKey(ctx, key, threads, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No saved runs of %s.\n", key)
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "SESSION\tCREATED\tTIME\tCPU\tITERATIONS")
			for _, r := range runs {
				unit := r.TimeUnit.String()
				fmt.Fprintf(w, "%s\t%s\t%.2f %s\t%.2f %s\t%d\n",
					r.SessionID, r.CreatedAt.Format("2006-01-02 15:04:05"),
					r.AdjustedRealTime(), unit, r.AdjustedCPUTime(), unit, r.Iterations)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&threads, "threads", 1, "Thread count of the instantiation")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of runs to show")
	return cmd
}
