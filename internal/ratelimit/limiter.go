package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultInterval is the spacing used when none is configured. 300ms keeps
// a sequential caller at roughly 33 requests per 10 seconds.
const DefaultInterval = 300 * time.Millisecond

// Limiter blocks the caller until a remote call may start.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Spacing enforces a minimum interval between granted slots.
type Spacing struct {
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	last    time.Time
	granted int
}

var _ Limiter = (*Spacing)(nil)

// NewSpacing returns a limiter that spaces slots by interval. A non-positive
// interval falls back to DefaultInterval.
func NewSpacing(interval time.Duration) *Spacing {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Spacing{interval: interval, now: time.Now}
}

// Interval reports the configured spacing.
func (s *Spacing) Interval() time.Duration {
	if s == nil {
		return 0
	}
	return s.interval
}

// Wait blocks until at least Interval has passed since the previous slot was
// granted, then grants a new one. The first slot is granted immediately.
func (s *Spacing) Wait(ctx context.Context) error {
	if s == nil {
		return errors.New("rate limiter unavailable")
	}
	if ctx == nil {
		return errors.New("context unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.last.IsZero() {
		// Loop because a timer may fire a hair before the monotonic clock
		// agrees the interval has passed.
		for {
			remaining := s.interval - s.now().Sub(s.last)
			if remaining <= 0 {
				break
			}
			if err := SleepWithContext(ctx, remaining); err != nil {
				return err
			}
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}
	s.last = s.now()
	s.granted++
	return nil
}

// Granted returns how many slots have been handed out.
func (s *Spacing) Granted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.granted
}

// Nop never blocks.
type Nop struct{}

// Wait returns immediately unless ctx is already done.
func (Nop) Wait(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}

// SleepWithContext blocks for the given duration, returning early if the
// context is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
