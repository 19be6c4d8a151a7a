package models

// Event is a closed sample-index interval [Start, End] into a channel signal.
// Events are always non-empty; they are created by the detector or the
// confirmer and never mutated afterwards.
type Event struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Length returns the number of samples the event spans.
func (e Event) Length() int {
	return e.End - e.Start + 1
}

// Thresholds is a per-channel hysteresis threshold pair derived from the
// baseline window. Meaningful only when High >= Low.
type Thresholds struct {
	High float64 `json:"high"`
	Low  float64 `json:"low"`
}

// ProcessingStats summarises outlier filtering for one analysis batch.
type ProcessingStats struct {
	Original        int     `json:"original"`
	AfterPeakFilter int     `json:"afterPeakFilter"`
	Final           int     `json:"final"`
	RemovalRate     float64 `json:"removalRate"`
}
