// Package report renders benchmark sessions for people.
package report

import (
	benchErrors "benchcore/internal/errors"
	"benchcore/internal/sysinfo"
)

// Context is the environment metadata of one reporting session. It is built
// once and never modified.
type Context struct {
	executable     string
	cpu            *sysinfo.CPUInfo
	reportBaseline bool
}

// NewContext builds a Context from the process-wide cpu snapshot. The first
// call in a process triggers the probe.
func NewContext(executable string, reportBaseline bool) *Context {
	return NewContextWithCPU(executable, sysinfo.Get(), reportBaseline)
}

// NewContextWithCPU builds a Context around an existing snapshot. The snapshot
// is shared, not copied.
func NewContextWithCPU(executable string, cpu *sysinfo.CPUInfo, reportBaseline bool) *Context {
	benchErrors.CheckPhase(benchErrors.PhaseReport, cpu != nil, "report context requires a cpu snapshot")
	return &Context{executable: executable, cpu: cpu, reportBaseline: reportBaseline}
}

// Executable is the name of the running program; empty when unknown.
func (c *Context) Executable() string { return c.executable }

func (c *Context) CPU() *sysinfo.CPUInfo { return c.cpu }

// ReportBaseline reports whether baseline ratio columns are rendered.
func (c *Context) ReportBaseline() bool { return c.reportBaseline }
