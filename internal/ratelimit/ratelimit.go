// Package ratelimit implements the per-user slow mode for FeedbackBridge.
//
// The limiter tracks the timestamp of the last accepted message per user
// in memory only; state is intentionally lost on restart. Administrators
// are never run through the limiter.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Eviction tuning. Entries idle longer than EvictAfterIntervals slow-mode
// intervals can never throttle again, so the sweeper drops them to keep
// the map bounded.
const (
	// EvictAfterIntervals is the idle age, in slow-mode intervals, after
	// which an entry is evicted.
	EvictAfterIntervals = 3
	// DefaultSweepPeriod is how often the background sweeper runs.
	DefaultSweepPeriod = 15 * time.Minute
)

// Limiter enforces a minimum interval between accepted messages per user.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[int64]time.Time
}

// New creates a Limiter with the given slow-mode interval.
func New(interval time.Duration) *Limiter {
	return &Limiter{
		interval: interval,
		last:     make(map[int64]time.Time),
	}
}

// Allow reports whether a message from userID at now is accepted. A user's
// very first message is always accepted. Accepted calls record now as the
// user's last-accepted timestamp; throttled calls leave state untouched.
func (l *Limiter) Allow(userID int64, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, seen := l.last[userID]
	if seen && now.Sub(last) < l.interval {
		slog.Debug("Limiter.Allow: throttled", "user_id", userID, "since_last", now.Sub(last), "interval", l.interval)
		return false
	}
	l.last[userID] = now
	return true
}

// Interval returns the configured slow-mode interval.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// TrackedCount returns the number of users currently tracked.
func (l *Limiter) TrackedCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.last)
}

// StartSweeper launches a background loop that evicts stale entries until
// the context is cancelled.
func (l *Limiter) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(DefaultSweepPeriod)
		defer ticker.Stop()
		slog.Debug("Limiter sweeper started", "period", DefaultSweepPeriod)
		for {
			select {
			case now := <-ticker.C:
				l.sweep(now)
			case <-ctx.Done():
				slog.Debug("Limiter sweeper stopping due to context cancellation")
				return
			}
		}
	}()
}

// sweep removes entries idle for at least EvictAfterIntervals intervals.
func (l *Limiter) sweep(now time.Time) {
	cutoff := time.Duration(EvictAfterIntervals) * l.interval
	l.mu.Lock()
	defer l.mu.Unlock()
	evicted := 0
	for userID, last := range l.last {
		if now.Sub(last) >= cutoff {
			delete(l.last, userID)
			evicted++
		}
	}
	if evicted > 0 {
		slog.Debug("Limiter sweep evicted stale entries", "evicted", evicted, "remaining", len(l.last))
	}
}
