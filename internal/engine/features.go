package engine

import (
	"math"

	"github.com/dysphagialab/swallow-detect/internal/models"
	"github.com/dysphagialab/swallow-detect/internal/utils"
)

// ExtractFeatures computes one FeatureVector per event over the given signal.
// Per-event scalars (peak, duration, area, mean, RMS, first peak index) come
// from the event's segment; the inter-event interval and both z-scores are
// batch-scoped and must be recomputed whenever batch membership changes,
// which is why this function always rebuilds them from the events it is
// given and nothing else.
//
// The temporally last event has no interval; its IntervalValid flag stays
// false. Z-scores over fewer than two defined samples stay unset.
func ExtractFeatures(signal []float64, events []models.Event, fs float64, method models.IntervalMethod) ([]models.FeatureVector, error) {
	if fs <= 0 {
		return nil, utils.ConfigErrorf("sample rate must be positive, got %g", fs)
	}
	if !method.Valid() {
		return nil, utils.ConfigErrorf("unrecognised interval method %q", method)
	}
	if len(events) == 0 {
		return nil, nil
	}

	features := make([]models.FeatureVector, len(events))
	for i, ev := range events {
		if ev.Start < 0 || ev.End >= len(signal) || ev.Start > ev.End {
			return nil, utils.DataErrorf("event [%d,%d] outside signal of length %d", ev.Start, ev.End, len(signal))
		}
		features[i] = segmentFeatures(signal, ev, fs)
	}

	applyIntervals(features, events, fs, method)
	applyZScores(features)
	return features, nil
}

func segmentFeatures(signal []float64, ev models.Event, fs float64) models.FeatureVector {
	segment := signal[ev.Start : ev.End+1]

	peak := segment[0]
	peakOffset := 0
	sum := 0.0
	sumSq := 0.0
	for i, v := range segment {
		if v > peak {
			peak = v
			peakOffset = i
		}
		sum += v
		sumSq += v * v
	}

	n := float64(len(segment))
	return models.FeatureVector{
		Peak:        peak,
		DurationSec: n / fs,
		Area:        sum / fs,
		Mean:        sum / n,
		RMS:         math.Sqrt(sumSq / n),
		PeakIndex:   ev.Start + peakOffset,
	}
}

func applyIntervals(features []models.FeatureVector, events []models.Event, fs float64, method models.IntervalMethod) {
	for i := 0; i+1 < len(events); i++ {
		var samples int
		switch method {
		case models.IntervalPeakToPeak:
			samples = features[i+1].PeakIndex - features[i].PeakIndex
		case models.IntervalEndToStart:
			samples = events[i+1].Start - events[i].End
		case models.IntervalStartToStart:
			samples = events[i+1].Start - events[i].Start
		}
		features[i].IntervalSec = float64(samples) / fs
		features[i].IntervalValid = true
	}
}

// applyZScores standardises peaks and intervals over the current batch.
// Peaks are always defined, so they standardise whenever the batch has at
// least two events; intervals only exist for the first n-1 events, so the
// interval z-score needs at least three events.
func applyZScores(features []models.FeatureVector) {
	peaks := make([]float64, len(features))
	for i, f := range features {
		peaks[i] = f.Peak
	}
	if mean, std, ok := batchStats(peaks); ok {
		for i := range features {
			features[i].PeakZ = zScore(features[i].Peak, mean, std)
			features[i].PeakZValid = true
		}
	}

	var intervals []float64
	for _, f := range features {
		if f.IntervalValid {
			intervals = append(intervals, f.IntervalSec)
		}
	}
	if mean, std, ok := batchStats(intervals); ok {
		for i := range features {
			if features[i].IntervalValid {
				features[i].IntervalZ = zScore(features[i].IntervalSec, mean, std)
				features[i].IntervalZValid = true
			}
		}
	}
}

// batchStats reports mean and population std; ok is false when the batch has
// fewer than two samples and the statistic is undefined.
func batchStats(values []float64) (mean, std float64, ok bool) {
	if len(values) < 2 {
		return 0, 0, false
	}
	mean, std = meanStd(values)
	return mean, std, true
}

func zScore(v, mean, std float64) float64 {
	if std == 0 {
		return 0
	}
	return (v - mean) / std
}
