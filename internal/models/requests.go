package models

import "time"

// ChannelSignal is one channel of a recorded session: a precomputed EMG
// envelope plus the index one past its noise-baseline prefix.
type ChannelSignal struct {
	Label       string    `json:"label"`
	Samples     []float64 `json:"samples"`
	BaselineEnd int       `json:"baselineEnd"`
}

// DetectionParams is the full tunable surface of the pipeline. A zero value
// is not usable directly; resolve against defaults (and optionally a preset)
// via config.
type DetectionParams struct {
	HighFactor         float64        `json:"highFactor" yaml:"highFactor"`
	LowFactor          float64        `json:"lowFactor" yaml:"lowFactor"`
	MinDurationSec     float64        `json:"minDurationSec" yaml:"minDurationSec"`
	FilterLowPeaks     bool           `json:"filterLowPeaks" yaml:"filterLowPeaks"`
	PeakZThreshold     float64        `json:"peakZThreshold" yaml:"peakZThreshold"`
	FilterCloseEvents  bool           `json:"filterCloseEvents" yaml:"filterCloseEvents"`
	IntervalMethod     IntervalMethod `json:"intervalMethod" yaml:"intervalMethod"`
	IntervalZThreshold float64        `json:"intervalZThreshold" yaml:"intervalZThreshold"`
}

// AnalysisRequest carries one recorded session through the pipeline.
type AnalysisRequest struct {
	SessionID  string
	SampleRate float64
	Channels   []ChannelSignal
	Params     DetectionParams
}

// ChannelDetection reports the per-channel intermediate outputs that
// collaborators (plots, reports) consume alongside the confirmed events.
type ChannelDetection struct {
	Label      string     `json:"label"`
	Thresholds Thresholds `json:"thresholds"`
	Events     []Event    `json:"events"`
}

// AnalysisResult is the pipeline output for one session.
type AnalysisResult struct {
	AnalysisID string             `json:"analysisId"`
	SessionID  string             `json:"sessionId"`
	SampleRate float64            `json:"sampleRate"`
	Channels   []ChannelDetection `json:"channels"`
	Events     []Event            `json:"events"`
	Features   []FeatureVector    `json:"features"`
	Stats      ProcessingStats    `json:"stats"`
	Params     DetectionParams    `json:"params"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// ListAnalysesRequest filters stored analyses.
type ListAnalysesRequest struct {
	SessionID string
	Limit     int
}

// AnalysisSummary aggregates stored analyses for reporting.
type AnalysisSummary struct {
	TotalAnalyses  int     `json:"totalAnalyses"`
	UniqueSessions int     `json:"uniqueSessions"`
	TotalEvents    int     `json:"totalEvents"`
	MeanFinalCount float64 `json:"meanFinalCount"`
	MeanRemoval    float64 `json:"meanRemovalRate"`
}
