package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay(t *testing.T) {
	base := 500 * time.Millisecond
	maxDelay := 5 * time.Second

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1 * time.Second},
		{3, 2 * time.Second},
		{4, 4 * time.Second},
		{5, 5 * time.Second},
		{10, 5 * time.Second},
		{0, 500 * time.Millisecond},
		{-3, 500 * time.Millisecond},
	}

	for _, tt := range tests {
		got := BackoffDelay(tt.attempt, base, maxDelay)
		assert.Equal(t, tt.want, got, "attempt %d", tt.attempt)
	}
}

func TestBackoffDelayZeroBase(t *testing.T) {
	assert.Equal(t, time.Duration(0), BackoffDelay(3, 0, time.Second))
}

func TestBackoffDelayNoCap(t *testing.T) {
	got := BackoffDelay(4, time.Second, 0)
	assert.Equal(t, 8*time.Second, got)
}
