// Package ratelimit provides token-bucket rate limiting, per-domain and
// with an optional shared global cap.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Bucket is a constant-rate token bucket. Tokens accumulate at Rate per
// second up to Capacity and are consumed one at a time by Acquire.
//
// A single mutex guards the token count and last-refill timestamp; any
// sleep needed to wait for a token happens outside the lock so other
// goroutines can keep refilling and consuming concurrently.
type Bucket struct {
	mu         sync.Mutex
	rate       float64
	capacity   float64
	tokens     float64
	lastRefill time.Time
}

// NewBucket creates a Bucket with the given refill rate (tokens/second).
// capacity bounds burst size; if capacity <= 0 it defaults to rate.
func NewBucket(rate, capacity float64) *Bucket {
	if capacity <= 0 {
		capacity = rate
	}
	return &Bucket{
		rate:       rate,
		capacity:   capacity,
		tokens:     capacity,
		lastRefill: time.Now(),
	}
}

// refill adds tokens for elapsed time since the last refill. Must be
// called with mu held.
func (b *Bucket) refill() {
	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens = min(b.capacity, b.tokens+elapsed*b.rate)
	b.lastRefill = now
}

// waitTime computes how long to wait for one token. Must be called with
// mu held.
func (b *Bucket) waitTime() time.Duration {
	if b.tokens >= 1 {
		return 0
	}
	if b.rate <= 0 {
		return 0
	}
	secs := (1 - b.tokens) / b.rate
	return time.Duration(secs * float64(time.Second))
}

// Acquire consumes one token. If blocking is true and no token is
// immediately available, Acquire waits until one is, then returns true.
// If blocking is false, Acquire returns false immediately when starved.
//
// If ctx is canceled while waiting, Acquire abandons the wait and returns
// false without consuming a token.
func (b *Bucket) Acquire(ctx context.Context, blocking bool) bool {
	b.mu.Lock()
	b.refill()

	if b.tokens >= 1 {
		b.tokens--
		b.mu.Unlock()
		return true
	}

	if !blocking {
		b.mu.Unlock()
		return false
	}

	wait := b.waitTime()
	b.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return false
	}

	b.mu.Lock()
	b.refill()
	b.tokens--
	b.mu.Unlock()
	return true
}

// AvailableTokens reports the current token count after an implicit
// refill. Intended for debugging and tests.
func (b *Bucket) AvailableTokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	return b.tokens
}
