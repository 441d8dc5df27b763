package sysinfo

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const sysfsCPURoot = "/sys/devices/system/cpu"

// Prober reads the host description. The zero value is not usable; use
// NewProber.
type Prober struct {
	FS afero.Fs

	logicalCores func(ctx context.Context) (int, error)
	clockMHz     func(ctx context.Context) (float64, error)
	cpuid        *cpuid.CPUInfo
}

// NewProber returns a Prober backed by the real filesystem, gopsutil and cpuid.
func NewProber() *Prober {
	return &Prober{
		FS: afero.NewOsFs(),
		logicalCores: func(ctx context.Context) (int, error) {
			return cpu.CountsWithContext(ctx, true)
		},
		clockMHz: func(ctx context.Context) (float64, error) {
			infos, err := cpu.InfoWithContext(ctx)
			if err != nil {
				return 0, err
			}
			for _, info := range infos {
				if info.Mhz > 0 {
					return info.Mhz, nil
				}
			}
			return 0, nil
		},
		cpuid: &cpuid.CPU,
	}
}

// Probe builds a fresh snapshot. Independent sources are queried concurrently.
// A non-nil error comes with a partially filled snapshot that is still usable.
func (p *Prober) Probe(ctx context.Context) (*CPUInfo, error) {
	info := &CPUInfo{}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := p.logicalCores(ctx)
		if err != nil || n <= 0 {
			slog.Debug("falling back to runtime core count", "error", err)
			n = runtime.NumCPU()
		}
		info.NumCPUs = n
		return nil
	})

	g.Go(func() error {
		mhz, err := p.clockMHz(ctx)
		if err == nil && mhz > 0 {
			info.CyclesPerSecond = mhz * 1000000.0
			return nil
		}
		if p.cpuid != nil && p.cpuid.Hz > 0 {
			info.CyclesPerSecond = float64(p.cpuid.Hz)
		}
		return nil
	})

	var cacheErr error
	g.Go(func() error {
		caches, err := readSysfsCaches(p.FS, sysfsCPURoot+"/cpu0/cache")
		if err != nil {
			cacheErr = err
		}
		if len(caches) == 0 {
			caches = cpuidCaches(p.cpuid)
		}
		info.Caches = caches
		return nil
	})

	g.Go(func() error {
		enabled, err := scalingEnabled(p.FS, sysfsCPURoot)
		if err != nil {
			return fmt.Errorf("%w: scaling governor: %w", ErrProbe, err)
		}
		info.ScalingEnabled = enabled
		return nil
	})

	if err := g.Wait(); err != nil {
		return info, err
	}
	if cacheErr != nil {
		return info, fmt.Errorf("%w: caches: %w", ErrProbe, cacheErr)
	}
	return info, nil
}

// cpuidCaches reports what cpuid knows about the cache hierarchy. Used when the
// platform exposes no sysfs cache description.
func cpuidCaches(c *cpuid.CPUInfo) []CacheInfo {
	if c == nil {
		return nil
	}
	var caches []CacheInfo
	add := func(level int, typ string, size, sharing int) {
		if size > 0 {
			caches = append(caches, CacheInfo{Level: level, Type: typ, Size: int64(size), NumSharing: sharing})
		}
	}
	add(1, "Data", c.Cache.L1D, c.ThreadsPerCore)
	add(1, "Instruction", c.Cache.L1I, c.ThreadsPerCore)
	add(2, "Unified", c.Cache.L2, c.ThreadsPerCore)
	add(3, "Unified", c.Cache.L3, 0)
	return caches
}

// Get returns the process-wide snapshot. The first call probes the host; later
// calls return the same value.
var Get = sync.OnceValue(func() *CPUInfo {
	info, err := NewProber().Probe(context.Background())
	if err != nil {
		slog.Warn("incomplete cpu description", "error", err)
	}
	return info
})
