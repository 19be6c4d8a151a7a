package engine

import (
	"github.com/dysphagialab/swallow-detect/internal/models"
	"github.com/dysphagialab/swallow-detect/internal/utils"
)

// FilterResult bundles the surviving events, their recomputed features, and
// the batch statistics after both outlier passes.
type FilterResult struct {
	Events   []models.Event
	Features []models.FeatureVector
	Stats    models.ProcessingStats
}

// FilterOutliers applies the two-pass statistical outlier filter.
//
// Stage A drops events whose peak z-score is below -peakZThreshold. All
// intervals and z-scores are then rebuilt from the survivors alone; values
// computed before the peak pass are never reused. Stage B makes one forward
// pass over the temporally ordered survivors: when the interval z-score at
// position i is defined and below -intervalZThreshold, the later event i+1 is
// dropped. The pass consults only the z-scores derived before it started; it
// does not reconverge after individual drops.
//
// Fewer than two events make both stages no-ops; fewer than three leave the
// interval z-scores undefined, which skips Stage B.
func FilterOutliers(signal []float64, events []models.Event, fs float64, p models.DetectionParams) (FilterResult, error) {
	if err := validateFilterParams(p); err != nil {
		return FilterResult{}, err
	}

	stats := models.ProcessingStats{Original: len(events)}

	features, err := ExtractFeatures(signal, events, fs, p.IntervalMethod)
	if err != nil {
		return FilterResult{}, err
	}

	if p.FilterLowPeaks {
		events = dropLowPeaks(events, features, p.PeakZThreshold)
	}
	stats.AfterPeakFilter = len(events)

	// Rebuild every derived statistic from the survivors before the
	// interval pass; Stage A may have changed batch membership.
	features, err = ExtractFeatures(signal, events, fs, p.IntervalMethod)
	if err != nil {
		return FilterResult{}, err
	}

	if p.FilterCloseEvents {
		events = dropCloseEvents(events, features, p.IntervalZThreshold)
	}
	stats.Final = len(events)

	features, err = ExtractFeatures(signal, events, fs, p.IntervalMethod)
	if err != nil {
		return FilterResult{}, err
	}

	if stats.Original > 0 {
		stats.RemovalRate = 100 * float64(stats.Original-stats.Final) / float64(stats.Original)
	}

	return FilterResult{Events: events, Features: features, Stats: stats}, nil
}

// dropLowPeaks removes events whose peak z-score falls below -threshold.
// The decision is order-independent: every event is judged against the same
// pre-pass batch statistics.
func dropLowPeaks(events []models.Event, features []models.FeatureVector, threshold float64) []models.Event {
	kept := make([]models.Event, 0, len(events))
	for i, ev := range events {
		if features[i].PeakZValid && features[i].PeakZ < -threshold {
			continue
		}
		kept = append(kept, ev)
	}
	return kept
}

// dropCloseEvents removes the later event of each abnormally close pair.
// A single forward pass marks drops against the pre-pass interval z-scores;
// an event already marked for removal still contributes its own interval
// judgement for the pair that follows it.
func dropCloseEvents(events []models.Event, features []models.FeatureVector, threshold float64) []models.Event {
	if len(events) < 2 {
		return events
	}

	dropped := make([]bool, len(events))
	for i := 0; i+1 < len(events); i++ {
		if features[i].IntervalZValid && features[i].IntervalZ < -threshold {
			dropped[i+1] = true
		}
	}

	kept := make([]models.Event, 0, len(events))
	for i, ev := range events {
		if !dropped[i] {
			kept = append(kept, ev)
		}
	}
	return kept
}

func validateFilterParams(p models.DetectionParams) error {
	if !p.IntervalMethod.Valid() {
		return utils.ConfigErrorf("unrecognised interval method %q", p.IntervalMethod)
	}
	if p.PeakZThreshold < 0 {
		return utils.ConfigErrorf("peak z-score threshold must be non-negative, got %g", p.PeakZThreshold)
	}
	if p.IntervalZThreshold < 0 {
		return utils.ConfigErrorf("interval z-score threshold must be non-negative, got %g", p.IntervalZThreshold)
	}
	return nil
}
