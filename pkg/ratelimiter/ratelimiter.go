// Package ratelimiter paces resolver API calls.
package ratelimiter

import (
	"context"
	"time"
)

// RateLimiter enforces a fixed interval between operations. The first call
// to Wait passes immediately; later calls block on the ticker.
type RateLimiter struct {
	ticker  *time.Ticker
	ctx     context.Context
	first   chan struct{}
	stopped bool
}

// New creates a RateLimiter that releases one token per rate interval.
func New(rate time.Duration, ctx context.Context) *RateLimiter {
	rl := &RateLimiter{
		ticker: time.NewTicker(rate),
		ctx:    ctx,
		first:  make(chan struct{}, 1),
	}
	rl.first <- struct{}{}
	return rl
}

// Wait blocks until the next token is available or the context is done.
func (r *RateLimiter) Wait() error {
	select {
	case <-r.first:
		return nil
	default:
	}

	select {
	case <-r.ticker.C:
		return nil
	case <-r.ctx.Done():
		r.stopped = true
		return r.ctx.Err()
	}
}

// Stop releases the limiter's ticker.
func (r *RateLimiter) Stop() {
	if !r.stopped {
		r.ticker.Stop()
		r.stopped = true
	}
}
