// Package ratelimit bounds calls per minute to quota-constrained external APIs.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Window is the accounting period for a limit.
const Window = 60 * time.Second

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Limiter admits at most limit calls per Window. A limit <= 0 never blocks.
// It is safe for concurrent use.
type Limiter struct {
	name  string
	limit int
	now   func() time.Time
	sleep Sleeper

	mu          sync.Mutex
	windowStart time.Time
	count       int

	logger *zap.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithSleeper replaces the timed wait used when the window is exhausted.
func WithSleeper(s Sleeper) Option {
	return func(l *Limiter) { l.sleep = s }
}

// WithLogger sets a logger for wait events.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Limiter) { l.logger = logger }
}

// New creates a limiter admitting limit calls per minute.
func New(name string, limit int, opts ...Option) *Limiter {
	l := &Limiter{
		name:   name,
		limit:  limit,
		now:    time.Now,
		sleep:  sleepContext,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.windowStart = l.now()
	return l
}

// Acquire blocks until one more call is permitted, then records it.
// Returns ctx.Err() if ctx is done while waiting.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l == nil || l.limit <= 0 {
		return nil
	}
	l.mu.Lock()
	for {
		now := l.now()
		if now.Sub(l.windowStart) > Window {
			l.count = 0
			l.windowStart = now
		}
		if l.count < l.limit {
			l.count++
			l.mu.Unlock()
			return nil
		}
		wait := Window - now.Sub(l.windowStart)
		if wait <= 0 {
			l.count = 0
			l.windowStart = now
			continue
		}
		observed := l.windowStart
		l.mu.Unlock()

		l.logger.Info("rate limit reached, waiting",
			zap.String("api", l.name),
			zap.Int("limit", l.limit),
			zap.Duration("wait", wait),
		)
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}

		l.mu.Lock()
		// Only the first waiter to wake resets the window; the rest re-check it.
		if l.windowStart.Equal(observed) {
			l.count = 0
			l.windowStart = l.now()
		}
	}
}

// Limit returns the configured calls per minute.
func (l *Limiter) Limit() int {
	if l == nil {
		return 0
	}
	return l.limit
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
