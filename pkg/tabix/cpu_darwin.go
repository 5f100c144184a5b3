//go:build darwin

package tabix

import (
	"runtime"
	"syscall"
)

// detectOptimalWorkers prefers performance cores on Apple Silicon.
func detectOptimalWorkers() int {
	for _, name := range []string{"hw.perflevel0.physicalcpu", "hw.physicalcpu"} {
		if n := sysctlInt(name); n > 0 {
			return n
		}
	}
	return runtime.NumCPU()
}

// sysctlInt decodes a little-endian integer sysctl value.
func sysctlInt(name string) int {
	// syscall.Sysctl returns raw bytes, not a string
	result, err := syscall.Sysctl(name)
	if err != nil {
		return 0
	}
	n := 0
	for i := 0; i < len(result) && i < 8; i++ {
		n |= int(result[i]) << (8 * i)
	}
	return n
}
