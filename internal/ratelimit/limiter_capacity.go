// Package ratelimit throttles the block cache's flush/read-ahead I/O
// against a backend device, grounded on jacobsa/ratelimit's token-bucket
// design: a Throttle hands out tokens at a steady rate up to a fixed
// capacity, and ThrottledReader wraps an io.Reader so every Read first
// waits for enough tokens to cover its buffer.
package ratelimit

import (
	"fmt"
	"time"
)

// ChooseLimiterCapacity picks a token bucket capacity appropriate for
// limiting to rate Hz with a reasonable burst window: large enough that a
// caller bursting for the whole window doesn't stall sooner than it has
// to, small enough that the limiter doesn't let a caller run far ahead of
// the intended rate. Capacity is chosen as rate*window/50, rounded down,
// matching the original's empirical "window / 50 refill slices" choice.
func ChooseLimiterCapacity(rate float64, window time.Duration) (uint64, error) {
	if !(rate > 0) {
		return 0, fmt.Errorf("Illegal rate: %f", rate)
	}
	if window <= 0 {
		return 0, fmt.Errorf("Illegal window: %v", window)
	}

	capacity := uint64(rate * float64(window) / float64(50*time.Second))
	if capacity == 0 {
		return 0, fmt.Errorf(
			"Can't use a token bucket to limit to %f Hz over a window of %v (result is a capacity of %f)",
			rate, window, float64(capacity))
	}
	return capacity, nil
}
