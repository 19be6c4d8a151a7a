package engine

import (
	"testing"

	"github.com/dysphagialab/swallow-detect/internal/models"
)

func TestDetectEventsHysteresis(t *testing.T) {
	thr := models.Thresholds{High: 10, Low: 5}
	// Enters at index 2, dips into the hysteresis band at 4 without closing,
	// exits at index 6.
	signal := []float64{0, 0, 12, 11, 7, 11, 3, 0}

	events := DetectEvents(signal, thr, 0)
	want := []models.Event{{Start: 2, End: 5}}
	if !equalEvents(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestDetectEventsStrictInequalities(t *testing.T) {
	thr := models.Thresholds{High: 10, Low: 5}

	// Samples equal to High never open a candidate.
	if events := DetectEvents([]float64{0, 10, 10, 0}, thr, 0); len(events) != 0 {
		t.Errorf("value == High should not trigger, got %v", events)
	}

	// Samples equal to Low never close one; the candidate runs to the end.
	events := DetectEvents([]float64{0, 12, 5, 5, 5}, thr, 0)
	want := []models.Event{{Start: 1, End: 4}}
	if !equalEvents(events, want) {
		t.Errorf("value == Low should not close, got %v, want %v", events, want)
	}
}

func TestDetectEventsMinDuration(t *testing.T) {
	thr := models.Thresholds{High: 10, Low: 5}
	signal := []float64{0, 12, 12, 0, 0, 12, 12, 12, 12, 0}

	events := DetectEvents(signal, thr, 4)
	// First candidate spans 2 samples and is dropped whole; second spans 4.
	want := []models.Event{{Start: 5, End: 8}}
	if !equalEvents(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestDetectEventsClosesAtSignalEnd(t *testing.T) {
	thr := models.Thresholds{High: 10, Low: 5}
	signal := []float64{0, 0, 12, 12, 12}

	events := DetectEvents(signal, thr, 3)
	want := []models.Event{{Start: 2, End: 4}}
	if !equalEvents(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}

	// The end-of-signal candidate obeys the duration gate too.
	if events := DetectEvents(signal, thr, 4); len(events) != 0 {
		t.Errorf("short trailing candidate should be dropped, got %v", events)
	}
}

func TestDetectEventsOrderedNonOverlapping(t *testing.T) {
	thr := models.Thresholds{High: 10, Low: 5}
	signal := []float64{0, 12, 12, 0, 12, 12, 0, 12, 12, 12}

	events := DetectEvents(signal, thr, 0)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %v", events)
	}
	for i, ev := range events {
		if ev.Start > ev.End {
			t.Errorf("event %d inverted: %v", i, ev)
		}
		if i > 0 && ev.Start <= events[i-1].End {
			t.Errorf("event %d overlaps predecessor: %v then %v", i, events[i-1], ev)
		}
	}
}

func TestDetectEventsEmptySignal(t *testing.T) {
	if events := DetectEvents(nil, models.Thresholds{High: 1, Low: 0}, 0); len(events) != 0 {
		t.Errorf("empty signal should yield no events, got %v", events)
	}
}

func equalEvents(got, want []models.Event) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
