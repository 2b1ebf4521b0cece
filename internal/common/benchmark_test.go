package common

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetMemoryStats(t *testing.T) {
	stats := GetMemoryStats()
	assert.Positive(t, stats.Alloc)
	assert.Positive(t, stats.TotalAlloc)
	assert.Positive(t, stats.Sys)

	str := stats.String()
	assert.Contains(t, str, "Alloc:")
	assert.Contains(t, str, "KB")
}

func TestBenchmarkResult(t *testing.T) {
	result := BenchmarkResult{
		Name:         "extract_receipt",
		Duration:     100 * time.Millisecond,
		Iterations:   10,
		MemoryBefore: MemoryStats{Alloc: 1000},
		MemoryAfter:  MemoryStats{Alloc: 2000},
	}

	str := result.String()
	assert.Contains(t, str, "extract_receipt")
	assert.Contains(t, str, "10 iterations")
	assert.Contains(t, str, "10ms")  // avg duration
	assert.Contains(t, str, "100ms") // total duration

	errorResult := BenchmarkResult{
		Name:  "failed_run",
		Error: errors.New("engine unavailable"),
	}

	str = errorResult.String()
	assert.Contains(t, str, "failed_run")
	assert.Contains(t, str, "ERROR")
	assert.Contains(t, str, "engine unavailable")
}

func BenchmarkMemoryStatsRetrieval(b *testing.B) {
	for range b.N {
		GetMemoryStats()
	}
}
