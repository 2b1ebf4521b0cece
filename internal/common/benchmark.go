package common

import (
	"fmt"
	"runtime"
	"time"
)

// MemoryStats holds the subset of runtime memory statistics reported by
// pipeline benchmarks.
type MemoryStats struct {
	Alloc         uint64
	TotalAlloc    uint64
	Sys           uint64
	HeapAlloc     uint64
	HeapObjects   uint64
	NumGC         uint32
	GCCPUFraction float64
}

// GetMemoryStats returns current memory statistics.
func GetMemoryStats() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemoryStats{
		Alloc:         m.Alloc,
		TotalAlloc:    m.TotalAlloc,
		Sys:           m.Sys,
		HeapAlloc:     m.HeapAlloc,
		HeapObjects:   m.HeapObjects,
		NumGC:         m.NumGC,
		GCCPUFraction: m.GCCPUFraction,
	}
}

// String returns a formatted string representation of memory stats.
func (m MemoryStats) String() string {
	return fmt.Sprintf("Alloc: %d KB, Total: %d KB, Sys: %d KB, GC: %d (%.2f%% CPU)",
		m.Alloc/1024,
		m.TotalAlloc/1024,
		m.Sys/1024,
		m.NumGC,
		m.GCCPUFraction*100)
}

// BenchmarkResult holds the outcome of one benchmark run.
type BenchmarkResult struct {
	Name         string
	Duration     time.Duration
	MemoryBefore MemoryStats
	MemoryAfter  MemoryStats
	Iterations   int
	Error        error
}

// String returns a formatted string representation of the benchmark result.
func (br BenchmarkResult) String() string {
	if br.Error != nil {
		return fmt.Sprintf("%s: ERROR - %v", br.Name, br.Error)
	}

	memDiff := br.MemoryAfter.Alloc - br.MemoryBefore.Alloc
	avgDuration := br.Duration / time.Duration(br.Iterations)

	return fmt.Sprintf("%s: %d iterations, avg: %v, total: %v, mem: +%d KB",
		br.Name, br.Iterations, avgDuration, br.Duration,
		int64(memDiff)/1024) //nolint:gosec // G115: Safe conversion for memory display
}
