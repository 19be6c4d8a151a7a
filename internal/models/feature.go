package models

// IntervalMethod selects how the inter-event interval is measured.
type IntervalMethod string

const (
	// IntervalPeakToPeak measures consecutive peak-index differences.
	IntervalPeakToPeak IntervalMethod = "peak_to_peak"
	// IntervalEndToStart measures the gap between consecutive events.
	IntervalEndToStart IntervalMethod = "end_to_start"
	// IntervalStartToStart measures consecutive start differences.
	IntervalStartToStart IntervalMethod = "start_to_start"
)

// Valid reports whether m is one of the recognised interval methods.
func (m IntervalMethod) Valid() bool {
	switch m {
	case IntervalPeakToPeak, IntervalEndToStart, IntervalStartToStart:
		return true
	}
	return false
}

// FeatureVector holds the per-event scalar features plus the batch-scoped
// interval and z-score statistics. Interval and z-score fields carry explicit
// validity flags: an unset statistic is undefined, never a numeric zero.
type FeatureVector struct {
	Peak        float64 `json:"peak"`
	DurationSec float64 `json:"durationSec"`
	Area        float64 `json:"area"`
	Mean        float64 `json:"mean"`
	RMS         float64 `json:"rms"`
	PeakIndex   int     `json:"peakIndex"`

	IntervalSec   float64 `json:"intervalSec"`
	IntervalValid bool    `json:"intervalValid"`

	PeakZ          float64 `json:"peakZ"`
	PeakZValid     bool    `json:"peakZValid"`
	IntervalZ      float64 `json:"intervalZ"`
	IntervalZValid bool    `json:"intervalZValid"`
}
