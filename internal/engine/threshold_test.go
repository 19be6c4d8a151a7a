package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/dysphagialab/swallow-detect/internal/utils"
)

func TestEstimateThresholds(t *testing.T) {
	signal := []float64{1, 2, 3, 4, 10, 10, 10}

	thr, err := EstimateThresholds(signal, 4, 3, 1.5)
	if err != nil {
		t.Fatalf("EstimateThresholds: %v", err)
	}

	// baseline [1 2 3 4]: mean 2.5, population std sqrt(1.25)
	mean := 2.5
	std := math.Sqrt(1.25)
	if got, want := thr.High, mean+3*std; math.Abs(got-want) > 1e-12 {
		t.Errorf("High = %g, want %g", got, want)
	}
	if got, want := thr.Low, mean+1.5*std; math.Abs(got-want) > 1e-12 {
		t.Errorf("Low = %g, want %g", got, want)
	}
	if thr.Low >= thr.High {
		t.Errorf("Low %g should stay below High %g", thr.Low, thr.High)
	}
}

func TestEstimateThresholdsZeroVarianceBaseline(t *testing.T) {
	signal := []float64{5, 5, 5, 5, 20}

	thr, err := EstimateThresholds(signal, 4, 3, 1.5)
	if err != nil {
		t.Fatalf("EstimateThresholds: %v", err)
	}
	if thr.High != 5 || thr.Low != 5 {
		t.Errorf("flat baseline should collapse both thresholds to the mean, got %+v", thr)
	}
}

func TestEstimateThresholdsRejectsBadInput(t *testing.T) {
	tests := []struct {
		name        string
		signal      []float64
		baselineEnd int
		high, low   float64
		wantErr     error
	}{
		{"empty signal", nil, 0, 3, 1.5, utils.ErrInvalidData},
		{"baseline past end", []float64{1, 2}, 3, 3, 1.5, utils.ErrInvalidData},
		{"baseline too short", []float64{1, 2, 3}, 1, 3, 1.5, utils.ErrInvalidData},
		{"negative factor", []float64{1, 2, 3}, 3, -1, 0, utils.ErrInvalidConfig},
		{"low above high", []float64{1, 2, 3}, 3, 1, 2, utils.ErrInvalidConfig},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := EstimateThresholds(tc.signal, tc.baselineEnd, tc.high, tc.low)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestMeanStd(t *testing.T) {
	mean, std := meanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5 {
		t.Errorf("mean = %g, want 5", mean)
	}
	if std != 2 {
		t.Errorf("std = %g, want 2 (population)", std)
	}
}
