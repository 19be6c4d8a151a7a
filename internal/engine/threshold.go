package engine

import (
	"math"

	"github.com/dysphagialab/swallow-detect/internal/models"
	"github.com/dysphagialab/swallow-detect/internal/utils"
)

// EstimateThresholds derives a hysteresis threshold pair from the noise
// baseline prefix signal[0:baselineEnd]:
//
//	high = mean + highFactor*std
//	low  = mean + lowFactor*std
//
// The standard deviation is the population deviation over the baseline. A
// zero-variance baseline yields high == low == mean, which is valid but will
// not trigger on activity at the baseline level.
func EstimateThresholds(signal []float64, baselineEnd int, highFactor, lowFactor float64) (models.Thresholds, error) {
	if len(signal) == 0 {
		return models.Thresholds{}, utils.DataErrorf("empty signal")
	}
	if baselineEnd > len(signal) {
		return models.Thresholds{}, utils.DataErrorf("baseline window %d exceeds signal length %d", baselineEnd, len(signal))
	}
	if baselineEnd < 2 {
		return models.Thresholds{}, utils.DataErrorf("baseline window must span at least 2 samples, got %d", baselineEnd)
	}
	if highFactor < 0 || lowFactor < 0 {
		return models.Thresholds{}, utils.ConfigErrorf("threshold factors must be non-negative (high=%g low=%g)", highFactor, lowFactor)
	}
	if lowFactor > highFactor {
		return models.Thresholds{}, utils.ConfigErrorf("low factor %g exceeds high factor %g", lowFactor, highFactor)
	}

	baseline := signal[:baselineEnd]
	mean, std := meanStd(baseline)

	return models.Thresholds{
		High: mean + highFactor*std,
		Low:  mean + lowFactor*std,
	}, nil
}

// meanStd computes the arithmetic mean and population standard deviation.
func meanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}
