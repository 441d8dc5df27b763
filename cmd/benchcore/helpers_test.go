package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"benchcore/internal/benchmark"
	"benchcore/internal/report"
	"benchcore/internal/sysinfo"
)

// executeCommand executes a cobra command and returns its output. Exits are
// turned into an "exit-N" panic and recovered, with the code reported back.
func executeCommand(root *cobra.Command, args ...string) (out string, code int, err error) {
	resetFlags(root)
	oldExit := exit
	exit = func(c int) {
		if c != 0 {
			panic(fmt.Sprintf("exit-%d", c))
		}
	}
	defer func() { exit = oldExit }()

	b := new(bytes.Buffer)
	defer func() {
		if r := recover(); r != nil {
			if s, ok := r.(string); ok && strings.HasPrefix(s, "exit-") {
				fmt.Sscanf(s, "exit-%d", &code)
				out = b.String()
				return
			}
			panic(r)
		}
	}()
	root.SetArgs(args)
	root.SetOut(b)
	root.SetErr(b)
	err = root.Execute()
	return b.String(), 0, err
}

// resetFlags resets all flags to their default values.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

var testCPU = &sysinfo.CPUInfo{
	NumCPUs:         4,
	CyclesPerSecond: 2_400_000_000,
	Caches:          []sysinfo.CacheInfo{{Level: 1, Type: "Data", Size: 32_000, NumSharing: 2}},
}

// isolate runs the command in an empty directory with a fixed CPU snapshot,
// a history database under it and the given suite.
func isolate(t *testing.T, defs func() []*benchmark.Definition) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	dsn := filepath.Join(dir, "history.db")
	t.Setenv("BENCHCORE_STORE_DSN", dsn)

	oldSuite, oldContext := suiteFunc, newContextFunc
	t.Cleanup(func() { suiteFunc, newContextFunc = oldSuite, oldContext })
	suiteFunc = defs
	newContextFunc = func(exe string, reportBaseline bool) *report.Context {
		return report.NewContextWithCPU(exe, testCPU, reportBaseline)
	}
	return dsn
}

func quickSuite() []*benchmark.Definition {
	loop := func(st *benchmark.State) {
		for st.Next() {
		}
	}
	return []*benchmark.Definition{
		benchmark.New("BM_Base", loop).Iterations(100),
		benchmark.New("BM_Dep", loop).Iterations(100).Baseline("BM_Base"),
	}
}
