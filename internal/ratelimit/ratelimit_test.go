package ratelimit

import (
	"testing"
	"time"
)

func TestFirstMessageAlwaysAllowed(t *testing.T) {
	l := New(time.Hour)
	if !l.Allow(1, time.Now()) {
		t.Error("first message throttled")
	}
}

func TestIntervalBoundary(t *testing.T) {
	interval := time.Hour
	l := New(interval)
	t0 := time.Unix(1_700_000_000, 0)

	if !l.Allow(1, t0) {
		t.Fatal("message at t0 throttled")
	}
	if l.Allow(1, t0.Add(interval-time.Second)) {
		t.Error("message inside the interval allowed")
	}
	if !l.Allow(1, t0.Add(interval)) {
		t.Error("message at exactly the interval throttled")
	}
}

func TestThrottledCallDoesNotRecord(t *testing.T) {
	interval := time.Hour
	l := New(interval)
	t0 := time.Unix(1_700_000_000, 0)

	l.Allow(1, t0)
	l.Allow(1, t0.Add(30*time.Minute)) // throttled, must not reset the window
	if !l.Allow(1, t0.Add(interval)) {
		t.Error("throttled attempt reset the slow-mode window")
	}
}

func TestUsersAreIndependent(t *testing.T) {
	l := New(time.Hour)
	t0 := time.Unix(1_700_000_000, 0)

	if !l.Allow(1, t0) || !l.Allow(2, t0) {
		t.Fatal("independent users throttled on first message")
	}
	if l.Allow(1, t0.Add(time.Minute)) {
		t.Error("user 1 not throttled")
	}
	if !l.Allow(3, t0.Add(time.Minute)) {
		t.Error("user 3 throttled by user 1's state")
	}
}

func TestSweepEvictsStaleEntries(t *testing.T) {
	interval := time.Hour
	l := New(interval)
	t0 := time.Unix(1_700_000_000, 0)
	sweepAt := t0.Add(4 * interval)

	// At sweep time: user 1 idle four intervals, user 3 idle exactly
	// three (both at or past the cutoff), user 2 idle two (under it).
	l.Allow(1, t0)
	l.Allow(3, t0.Add(interval))
	l.Allow(2, t0.Add(2*interval))
	if l.TrackedCount() != 3 {
		t.Fatalf("tracked = %d, want 3", l.TrackedCount())
	}

	l.sweep(sweepAt)
	if l.TrackedCount() != 1 {
		t.Errorf("tracked after sweep = %d, want 1", l.TrackedCount())
	}
	// The near-cutoff entry must still throttle; it was not evicted.
	if l.Allow(2, t0.Add(2*interval+time.Minute)) {
		t.Error("surviving entry lost its slow-mode state")
	}
	// Evicted users start fresh.
	if !l.Allow(1, sweepAt.Add(time.Minute)) {
		t.Error("evicted user still throttled")
	}
}
