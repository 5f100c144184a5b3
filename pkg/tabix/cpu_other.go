//go:build !darwin && !linux

package tabix

import "runtime"

// detectOptimalWorkers fallback for unsupported operating systems
func detectOptimalWorkers() int {
	return runtime.NumCPU()
}
