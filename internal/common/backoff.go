package common

import "time"

// BackoffDelay returns the delay before retry attempt n (1-based), doubling
// from base and capped at maxDelay. Attempt values below 1 yield base.
func BackoffDelay(attempt int, base, maxDelay time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if maxDelay > 0 && d >= maxDelay {
			return maxDelay
		}
	}
	if maxDelay > 0 && d > maxDelay {
		return maxDelay
	}
	return d
}
