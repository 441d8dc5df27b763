package report

import (
	"runtime/debug"
	"strings"
)

// builtAsDebug reports whether the binary was compiled with optimizations or
// inlining disabled.
func builtAsDebug() bool {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return false
	}
	return debugFlags(info.Settings)
}

func debugFlags(settings []debug.BuildSetting) bool {
	for _, s := range settings {
		if s.Key != "-gcflags" {
			continue
		}
		for _, f := range strings.Fields(s.Value) {
			// Flags may be scoped, e.g. "all=-N".
			if i := strings.LastIndexByte(f, '='); i >= 0 {
				f = f[i+1:]
			}
			if f == "-N" || f == "-l" {
				return true
			}
		}
	}
	return false
}
