package server

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterMinuteCap(t *testing.T) {
	rl := NewRateLimiter(3, 0)

	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Allow("client-a", 100))
	}

	err := rl.Allow("client-a", 100)
	require.Error(t, err)

	var rle *RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, "minute", rle.Type)
	assert.Equal(t, int64(3), rle.Limit)
	assert.Greater(t, rle.RetryAfter.Seconds(), 0.0)
}

func TestRateLimiterDataQuota(t *testing.T) {
	rl := NewRateLimiter(0, 1000)

	require.NoError(t, rl.Allow("client-a", 600))
	require.NoError(t, rl.Allow("client-a", 400))

	err := rl.Allow("client-a", 1)
	require.Error(t, err)

	var rle *RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, "data", rle.Type)
	assert.Equal(t, int64(1000), rle.Limit)
}

func TestRateLimiterClientsIndependent(t *testing.T) {
	rl := NewRateLimiter(1, 0)

	require.NoError(t, rl.Allow("client-a", 0))
	require.Error(t, rl.Allow("client-a", 0))

	// other clients keep their own budget
	require.NoError(t, rl.Allow("client-b", 0))
}

func TestRateLimiterZeroLimitsDisableChecks(t *testing.T) {
	rl := NewRateLimiter(0, 0)

	for i := 0; i < 100; i++ {
		require.NoError(t, rl.Allow("client-a", 1<<20))
	}
}

func TestRateLimiterUsage(t *testing.T) {
	rl := NewRateLimiter(10, 10000)

	require.NoError(t, rl.Allow("client-a", 250))
	require.NoError(t, rl.Allow("client-a", 250))

	requests, data := rl.Usage("client-a")
	assert.Equal(t, 2, requests)
	assert.Equal(t, int64(500), data)

	requests, data = rl.Usage("unknown")
	assert.Equal(t, 0, requests)
	assert.Equal(t, int64(0), data)
}

func TestRateLimitErrorMessage(t *testing.T) {
	err := &RateLimitError{Type: "minute", Limit: 60}
	assert.Contains(t, err.Error(), "minute")
	assert.Contains(t, err.Error(), "60")
}
