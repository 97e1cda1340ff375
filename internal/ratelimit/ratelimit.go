// Package ratelimit implements fixed-window per-client request limiting over
// a pluggable counter store. The default in-memory store is best-effort,
// single-instance protection; multi-instance deployments must use the
// DynamoDB-backed store so all instances share one set of counters.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// CounterStore persists windowed request counters. Implementations must be
// safe for concurrent use. Keys are already window-bucketed by the Limiter,
// so Incr is a plain increment-and-return; ttl only bounds how long a dead
// bucket may linger before cleanup.
type CounterStore interface {
	// Incr increments the counter for key, creating it at 1 if absent,
	// and returns the new count.
	Incr(ctx context.Context, key string, ttl time.Duration) (int, error)
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter applies a max-requests-per-window policy per client key. scope
// namespaces this limiter's counters so limiters sharing one CounterStore
// never alias into each other's buckets.
type Limiter struct {
	store  CounterStore
	scope  string
	max    int
	window time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock substitutes the time source. Tests use this to pin the window.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a Limiter allowing max requests per window per client key,
// counting under the given scope.
func New(store CounterStore, scope string, max int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		scope:  scope,
		max:    max,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records one request for clientKey and reports whether it fits in the
// current window. When the store errors, the request is allowed: losing a
// window of accounting is better than taking the site down with it.
func (l *Limiter) Allow(ctx context.Context, clientKey string) (Decision, error) {
	now := l.now()
	bucket := now.Unix() / int64(l.window.Seconds())
	key := fmt.Sprintf("%s:%s:%d", l.scope, clientKey, bucket)

	// Counters outlive their window by one extra window so a clock-skewed
	// sweeper never deletes a live bucket.
	count, err := l.store.Incr(ctx, key, 2*l.window)
	if err != nil {
		return Decision{Allowed: true, Remaining: l.max}, err
	}

	if count > l.max {
		windowEnd := time.Unix((bucket+1)*int64(l.window.Seconds()), 0)
		return Decision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: windowEnd.Sub(now),
		}, nil
	}

	return Decision{Allowed: true, Remaining: l.max - count}, nil
}

// Max returns the configured per-window request ceiling.
func (l *Limiter) Max() int { return l.max }
