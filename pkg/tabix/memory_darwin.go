//go:build darwin

package tabix

// detectSystemMemory detects system memory on macOS
func detectSystemMemory() (total int64, available int64) {
	total = int64(sysctlInt("hw.memsize"))

	// vm_stat is not reachable through sysctl; estimate conservatively
	return total, total * 3 / 4
}
