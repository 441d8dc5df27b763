package main

import (
	"github.com/spf13/pflag"

	"benchcore/internal/benchmark"
)

// unitFlag is a pflag.Value accepting ns, us, ms or s.
type unitFlag struct {
	unit benchmark.TimeUnit
}

var _ pflag.Value = (*unitFlag)(nil)

func (f *unitFlag) String() string { return f.unit.String() }

func (f *unitFlag) Set(s string) error {
	u, err := benchmark.ParseTimeUnit(s)
	if err != nil {
		return err
	}
	f.unit = u
	return nil
}

func (f *unitFlag) Type() string { return "unit" }
