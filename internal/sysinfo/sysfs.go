package sysinfo

import (
	"fmt"
	"math/bits"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// readSysfsCaches parses the index*/ directories of a Linux cpu cache
// description. A missing directory yields no caches and no error.
func readSysfsCaches(fs afero.Fs, dir string) ([]CacheInfo, error) {
	entries, err := afero.Glob(fs, path.Join(dir, "index*"))
	if err != nil {
		return nil, err
	}

	var caches []CacheInfo
	for _, entry := range entries {
		typ, err := readTrimmed(fs, path.Join(entry, "type"))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return caches, err
		}

		levelStr, err := readTrimmed(fs, path.Join(entry, "level"))
		if err != nil {
			return caches, err
		}
		level, err := strconv.Atoi(levelStr)
		if err != nil {
			return caches, fmt.Errorf("%s: invalid level %q", entry, levelStr)
		}

		sizeStr, err := readTrimmed(fs, path.Join(entry, "size"))
		if err != nil {
			return caches, err
		}
		size, err := parseCacheSize(sizeStr)
		if err != nil {
			return caches, fmt.Errorf("%s: %w", entry, err)
		}

		sharing := 0
		if mapStr, err := readTrimmed(fs, path.Join(entry, "shared_cpu_map")); err == nil {
			sharing, err = countCPUMask(mapStr)
			if err != nil {
				return caches, fmt.Errorf("%s: %w", entry, err)
			}
		}

		caches = append(caches, CacheInfo{
			Level:      level,
			Type:       typ,
			Size:       size,
			NumSharing: sharing,
		})
	}
	return caches, nil
}

// parseCacheSize accepts sysfs sizes such as "32K" or "8M".
func parseCacheSize(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty cache size")
	}
	mult := int64(1)
	switch s[len(s)-1] {
	case 'K':
		mult = 1024
		s = s[:len(s)-1]
	case 'M':
		mult = 1024 * 1024
		s = s[:len(s)-1]
	case 'G':
		mult = 1024 * 1024 * 1024
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cache size %q", s)
	}
	return n * mult, nil
}

// countCPUMask counts the set bits of a comma separated hex cpu mask.
func countCPUMask(mask string) (int, error) {
	count := 0
	for _, r := range strings.ReplaceAll(mask, ",", "") {
		v, err := strconv.ParseUint(string(r), 16, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid cpu mask %q", mask)
		}
		count += bits.OnesCount8(uint8(v))
	}
	return count, nil
}

// scalingEnabled reports whether any cpu runs a frequency governor other than
// "performance". Hosts without cpufreq report false.
func scalingEnabled(fs afero.Fs, root string) (bool, error) {
	governors, err := afero.Glob(fs, path.Join(root, "cpu*", "cpufreq", "scaling_governor"))
	if err != nil {
		return false, err
	}
	for _, g := range governors {
		value, err := readTrimmed(fs, g)
		if err != nil {
			continue
		}
		if value != "performance" {
			return true, nil
		}
	}
	return false, nil
}

func readTrimmed(fs afero.Fs, name string) (string, error) {
	data, err := afero.ReadFile(fs, name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
