package engine

import (
	"github.com/dysphagialab/swallow-detect/internal/models"
)

// DetectEvents runs a single left-to-right hysteresis scan over the signal.
// The scan enters a candidate when a sample strictly exceeds thr.High and
// leaves it when a sample strictly falls below thr.Low; the gap between the
// two thresholds keeps noise from retriggering while active. Candidates
// shorter than minDurationSamples are discarded whole; a candidate still open
// at the end of the signal closes at the last index under the same rule.
//
// The returned events are ordered and non-overlapping. Both inequalities are
// strict; a degenerate pair (High == Low over a flat baseline) therefore only
// closes a candidate once the signal drops below the baseline level.
func DetectEvents(signal []float64, thr models.Thresholds, minDurationSamples int) []models.Event {
	if minDurationSamples < 0 {
		minDurationSamples = 0
	}

	var events []models.Event
	inside := false
	start := 0

	for i, v := range signal {
		if !inside {
			if v > thr.High {
				inside = true
				start = i
			}
			continue
		}
		if v < thr.Low {
			if i-start >= minDurationSamples {
				events = append(events, models.Event{Start: start, End: i - 1})
			}
			// Too-short candidates are dropped entirely, never merged
			// with later activity.
			inside = false
		}
	}

	if inside && len(signal)-start >= minDurationSamples {
		events = append(events, models.Event{Start: start, End: len(signal) - 1})
	}

	return events
}
