//go:build linux

package tabix

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// detectSystemMemory reads /proc/meminfo, capped by a cgroup v2 memory limit.
func detectSystemMemory() (total int64, available int64) {
	file, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, 0
	}
	defer file.Close()

	var memFree, buffers, cached int64
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		value, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}

		// /proc/meminfo reports in KB
		switch strings.TrimSuffix(fields[0], ":") {
		case "MemTotal":
			total = value * KB
		case "MemAvailable":
			available = value * KB
		case "MemFree":
			memFree = value * KB
		case "Buffers":
			buffers = value * KB
		case "Cached":
			cached = value * KB
		}
	}

	// Older kernels have no MemAvailable
	if total > 0 && available == 0 {
		available = memFree + buffers + cached
	}

	if limit := cgroupMemoryLimit(); limit > 0 && limit < total {
		total = limit
		available = min(available, limit)
	}
	return total, available
}

func cgroupMemoryLimit() int64 {
	data, err := os.ReadFile("/sys/fs/cgroup/memory.max")
	if err != nil {
		return 0
	}
	limit, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0
	}
	return limit
}
