package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimer(t *testing.T) {
	timer := NewNamedTimer("variant_generation")
	assert.Equal(t, "variant_generation", timer.Name())

	time.Sleep(10 * time.Millisecond)

	duration := timer.Stop()
	assert.GreaterOrEqual(t, duration, 10*time.Millisecond)
	assert.Equal(t, duration, timer.Duration())

	str := timer.String()
	assert.Contains(t, str, "variant_generation")
	assert.Contains(t, str, "ms")
}

func TestTimerUnnamed(t *testing.T) {
	timer := NewTimer()
	assert.Empty(t, timer.Name())

	timer.Stop()
	assert.NotContains(t, timer.String(), ":")
}

func TestTimerElapsedMs(t *testing.T) {
	timer := NewTimer()
	time.Sleep(5 * time.Millisecond)

	ms := timer.ElapsedMs()
	assert.GreaterOrEqual(t, ms, int64(5))

	// ElapsedMs does not stop the timer
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, timer.ElapsedMs(), ms)
}
