// Package suite holds the built-in demo benchmarks run by the CLI.
package suite

import (
	"container/list"
	"unsafe"

	"benchcore/internal/benchmark"
)

// insertArgs mirrors a 1..1024 sweep with a multiplier of 8.
var insertArgs = []int64{1, 8, 64, 512, 1024}

// Default returns the demo suite in registration order.
func Default() []*benchmark.Definition {
	var defs []*benchmark.Definition
	defs = append(defs, containerInserts()...)
	defs = append(defs, sharedFixtures()...)
	defs = append(defs, templatedFixtures()...)
	return defs
}

func withArgs(d *benchmark.Definition, args []int64) *benchmark.Definition {
	for _, a := range args {
		d.Arg(a)
	}
	return d
}

func reportInserts(st *benchmark.State) {
	n := st.Range(0)
	st.SetItemsProcessed(st.Iterations() * n)
	st.SetBytesProcessed(st.Iterations() * n * int64(unsafe.Sizeof(int(0))))
}

func containerInserts() []*benchmark.Definition {
	insertSlice := benchmark.New("BM_InsertSlice", func(st *benchmark.State) {
		v := 42
		n := st.Range(0)
		for st.Next() {
			var c []int
			for i := n; i > 1; i-- {
				c = append(c, v)
			}
			sink = len(c)
		}
		reportInserts(st)
	})

	insertList := benchmark.New("BM_InsertList", func(st *benchmark.State) {
		v := 42
		n := st.Range(0)
		for st.Next() {
			c := list.New()
			for i := n; i > 1; i-- {
				c.PushBack(v)
			}
			sink = c.Len()
		}
		reportInserts(st)
	}).Baseline("BM_InsertSlice")

	insertMap := benchmark.New("BM_InsertMap", func(st *benchmark.State) {
		v := 42
		n := st.Range(0)
		for st.Next() {
			c := map[int]struct{}{}
			for i := n; i > 1; i-- {
				c[v] = struct{}{}
			}
			sink = len(c)
		}
		reportInserts(st)
	}).Baseline("BM_InsertList")

	return []*benchmark.Definition{
		withArgs(insertSlice, insertArgs),
		withArgs(insertList, insertArgs),
		withArgs(insertMap, insertArgs),
	}
}

// sink keeps loop results observable.
var sink int
