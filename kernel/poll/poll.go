// Package poll provides a bounded busy-poll helper for the VirtIO
// drivers' polling loops (transmit completion, RNG completion), since
// this kernel has no interrupts (spec.md's "interrupt-driven I/O"
// Non-goal).
//
// The iteration cap itself is spec.md §4.7.4's exact "give up after
// ≈100,000 polling iterations" contract. An x/time/rate token bucket is
// consulted once per iteration with the non-blocking Allow, so it does
// not delay or slow the loop; the iteration cap alone bounds the wait.
// No teacher package does this.
package poll

import (
	"golang.org/x/time/rate"
)

// Limiter pairs a bounded retry budget with a token bucket. The bucket is
// only consulted, never waited on, so iterations run back to back.
type Limiter struct {
	max     int
	limiter *rate.Limiter
}

// NewLimiter returns a Limiter that allows up to max iterations;
// ratePerSec and burst configure the token bucket that Until consults.
func NewLimiter(max int, ratePerSec float64, burst int) *Limiter {
	return &Limiter{max: max, limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst)}
}

// Until busy-polls cond, taking one token per iteration with Allow, which
// never blocks: iterations are not delayed once the burst is exhausted.
// Returns true if cond became true within max
// iterations, false on exhaustion (the caller maps this to
// kerr.ErrTimeout).
func (l *Limiter) Until(cond func() bool) bool {
	for i := 0; i < l.max; i++ {
		if cond() {
			return true
		}
		l.limiter.Allow()
	}
	return false
}
