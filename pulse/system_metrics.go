package pulse

import (
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemMetrics reports host memory usage for the status endpoint
type SystemMetrics struct {
	MemoryUsedGB  float64 `json:"memory_used_gb"`
	MemoryTotalGB float64 `json:"memory_total_gb"`
	MemoryPercent float64 `json:"memory_percent"`
}

// GetSystemMetrics returns current memory usage. Returns zeros when the
// host stats are unavailable rather than failing the status request.
func GetSystemMetrics() SystemMetrics {
	v, err := mem.VirtualMemory()
	if err != nil || v.Total == 0 {
		return SystemMetrics{}
	}

	totalGB := float64(v.Total) / 1024 / 1024 / 1024
	usedGB := float64(v.Total-v.Available) / 1024 / 1024 / 1024

	return SystemMetrics{
		MemoryUsedGB:  usedGB,
		MemoryTotalGB: totalGB,
		MemoryPercent: (usedGB / totalGB) * 100,
	}
}
