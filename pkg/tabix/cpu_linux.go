//go:build linux

package tabix

import (
	"os"
	"runtime"
	"strconv"
	"strings"
)

// detectOptimalWorkers returns the CPUs usable by this process, honouring a
// cgroup v2 CPU quota when one is set.
func detectOptimalWorkers() int {
	cpus := runtime.NumCPU()
	if quota := cgroupCPUQuota(); quota > 0 && quota < cpus {
		return quota
	}
	return cpus
}

// cgroupCPUQuota reads /sys/fs/cgroup/cpu.max ("<quota> <period>" or "max <period>").
func cgroupCPUQuota() int {
	data, err := os.ReadFile("/sys/fs/cgroup/cpu.max")
	if err != nil {
		return 0
	}
	fields := strings.Fields(string(data))
	if len(fields) != 2 || fields[0] == "max" {
		return 0
	}
	quota, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	period, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || period <= 0 {
		return 0
	}
	n := int(quota / period)
	if n < 1 {
		n = 1
	}
	return n
}
