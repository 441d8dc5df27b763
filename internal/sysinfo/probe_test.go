package sysinfo

import (
	"context"
	"errors"
	"testing"

	"github.com/klauspost/cpuid/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0644))
	}
}

func testProber(fs afero.Fs, cores int, mhz float64) *Prober {
	return &Prober{
		FS:           fs,
		logicalCores: func(context.Context) (int, error) { return cores, nil },
		clockMHz:     func(context.Context) (float64, error) { return mhz, nil },
	}
}

func TestProbe_Sysfs(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/sys/devices/system/cpu/cpu0/cache/index0/level":          "1\n",
		"/sys/devices/system/cpu/cpu0/cache/index0/type":           "Data\n",
		"/sys/devices/system/cpu/cpu0/cache/index0/size":           "32K\n",
		"/sys/devices/system/cpu/cpu0/cache/index0/shared_cpu_map": "00000000,00000003\n",
		"/sys/devices/system/cpu/cpu0/cache/index1/level":          "2\n",
		"/sys/devices/system/cpu/cpu0/cache/index1/type":           "Unified\n",
		"/sys/devices/system/cpu/cpu0/cache/index1/size":           "256K\n",
		"/sys/devices/system/cpu/cpu0/cache/index1/shared_cpu_map": "03\n",
		"/sys/devices/system/cpu/cpu0/cache/index2/level":          "3\n",
		"/sys/devices/system/cpu/cpu0/cache/index2/type":           "Unified\n",
		"/sys/devices/system/cpu/cpu0/cache/index2/size":           "8M\n",
		"/sys/devices/system/cpu/cpu0/cache/index2/shared_cpu_map": "ff\n",
		"/sys/devices/system/cpu/cpu0/cpufreq/scaling_governor":    "performance\n",
		"/sys/devices/system/cpu/cpu1/cpufreq/scaling_governor":    "powersave\n",
	})

	info, err := testProber(fs, 8, 3600).Probe(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 8, info.NumCPUs)
	assert.Equal(t, 3600e6, info.CyclesPerSecond)
	assert.Equal(t, 3600.0, info.MHz())
	assert.True(t, info.ScalingEnabled)
	require.Len(t, info.Caches, 3)
	assert.Equal(t, CacheInfo{Level: 1, Type: "Data", Size: 32 * 1024, NumSharing: 2}, info.Caches[0])
	assert.Equal(t, CacheInfo{Level: 2, Type: "Unified", Size: 256 * 1024, NumSharing: 2}, info.Caches[1])
	assert.Equal(t, CacheInfo{Level: 3, Type: "Unified", Size: 8 * 1024 * 1024, NumSharing: 8}, info.Caches[2])
}

func TestProbe_Fallbacks(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := testProber(fs, 0, 0)
	p.logicalCores = func(context.Context) (int, error) { return 0, errors.New("unsupported") }
	p.cpuid = &cpuid.CPUInfo{Hz: 2_000_000_000, ThreadsPerCore: 2}
	p.cpuid.Cache.L1D = 48 * 1024
	p.cpuid.Cache.L1I = -1
	p.cpuid.Cache.L2 = 1024 * 1024
	p.cpuid.Cache.L3 = 0

	info, err := p.Probe(context.Background())
	require.NoError(t, err)

	assert.Positive(t, info.NumCPUs)
	assert.Equal(t, 2e9, info.CyclesPerSecond)
	assert.False(t, info.ScalingEnabled)
	assert.Equal(t, []CacheInfo{
		{Level: 1, Type: "Data", Size: 48 * 1024, NumSharing: 2},
		{Level: 2, Type: "Unified", Size: 1024 * 1024, NumSharing: 2},
	}, info.Caches)
}

func TestProbe_MalformedCache(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/sys/devices/system/cpu/cpu0/cache/index0/level": "one\n",
		"/sys/devices/system/cpu/cpu0/cache/index0/type":  "Data\n",
		"/sys/devices/system/cpu/cpu0/cache/index0/size":  "32K\n",
	})

	info, err := testProber(fs, 4, 1000).Probe(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProbe)
	require.NotNil(t, info)
	assert.Equal(t, 4, info.NumCPUs)
}

func TestParseCacheSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "32K", want: 32768},
		{in: "2M", want: 2 * 1024 * 1024},
		{in: "1G", want: 1 << 30},
		{in: "512", want: 512},
		{in: "", wantErr: true},
		{in: "xK", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseCacheSize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCountCPUMask(t *testing.T) {
	n, err := countCPUMask("00000000,0000000f")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = countCPUMask("zz")
	assert.Error(t, err)
}

func TestGet_Memoized(t *testing.T) {
	first := Get()
	second := Get()
	require.NotNil(t, first)
	assert.Same(t, first, second)
	assert.Positive(t, first.NumCPUs)
}
