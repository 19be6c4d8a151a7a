package utils

import (
	"testing"
	"time"
)

func TestLatencyTrackerPercentile(t *testing.T) {
	tracker := NewLatencyTracker(100)
	for i := 1; i <= 100; i++ {
		tracker.Observe(time.Duration(i) * time.Millisecond)
	}

	if got := tracker.Count(); got != 100 {
		t.Errorf("Count = %d, want 100", got)
	}
	if got := tracker.Percentile(0); got != time.Millisecond {
		t.Errorf("p0 = %v, want 1ms", got)
	}
	if got := tracker.Percentile(100); got != 100*time.Millisecond {
		t.Errorf("p100 = %v, want 100ms", got)
	}
	p95 := tracker.Percentile(95)
	if p95 < 90*time.Millisecond || p95 > 100*time.Millisecond {
		t.Errorf("p95 = %v, out of expected range", p95)
	}
}

func TestLatencyTrackerEmpty(t *testing.T) {
	tracker := NewLatencyTracker(10)
	if got := tracker.Percentile(95); got != 0 {
		t.Errorf("empty tracker percentile = %v, want 0", got)
	}
}

func TestLatencyTrackerBoundsSamples(t *testing.T) {
	tracker := NewLatencyTracker(5)
	for i := 1; i <= 20; i++ {
		tracker.Observe(time.Duration(i) * time.Millisecond)
	}
	if got := tracker.Count(); got != 5 {
		t.Errorf("Count = %d, want 5 after overflow", got)
	}
	// Oldest samples are dropped first.
	if got := tracker.Percentile(0); got != 16*time.Millisecond {
		t.Errorf("p0 = %v, want 16ms", got)
	}
}
