// Package sysinfo describes the host a benchmark session runs on.
//
// The description is probed once per process and shared read-only by every
// reporting session afterwards.
package sysinfo

import "errors"

// ErrProbe indicates that part of the host description could not be read.
var ErrProbe = errors.New("cpu probe failed")

// CacheInfo describes one level of the CPU cache hierarchy.
type CacheInfo struct {
	Level int    `json:"level"`
	Type  string `json:"type"` // Data, Instruction or Unified
	Size  int64  `json:"size"` // bytes
	// NumSharing is the number of logical cores sharing one instance of this
	// cache. Zero when unknown.
	NumSharing int `json:"num_sharing"`
}

// CPUInfo is the environment snapshot consumed by the reporting layer.
type CPUInfo struct {
	NumCPUs         int         `json:"num_cpus"`
	CyclesPerSecond float64     `json:"cycles_per_second"`
	Caches          []CacheInfo `json:"caches"`
	ScalingEnabled  bool        `json:"scaling_enabled"`
}

// MHz returns the clock rate in megahertz.
func (c *CPUInfo) MHz() float64 {
	return c.CyclesPerSecond / 1000000.0
}
