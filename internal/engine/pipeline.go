package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/dysphagialab/swallow-detect/internal/models"
	"github.com/dysphagialab/swallow-detect/internal/utils"
)

// Pipeline runs the four-stage swallow analysis over a recorded session:
// per-channel hysteresis detection, cross-channel confirmation, feature
// extraction, and two-pass outlier filtering.
type Pipeline struct {
	logger *slog.Logger
}

// NewPipeline constructs an analysis pipeline.
func NewPipeline(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{logger: logger}
}

// Analyze executes the full pipeline for one session. Channel detection runs
// concurrently (the channels are independent); confirmation, feature
// extraction, and filtering are sequential batch steps. Features are
// extracted over the first channel's envelope, which serves as the reference
// signal for the confirmed events.
func (p *Pipeline) Analyze(ctx context.Context, req models.AnalysisRequest) (models.AnalysisResult, error) {
	if err := validateRequest(req); err != nil {
		return models.AnalysisResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.AnalysisResult{}, err
	}

	minDuration := int(math.Round(req.Params.MinDurationSec * req.SampleRate))

	detections := make([]models.ChannelDetection, len(req.Channels))
	errs := make([]error, len(req.Channels))

	var wg sync.WaitGroup
	for i, ch := range req.Channels {
		wg.Add(1)
		go func(i int, ch models.ChannelSignal) {
			defer wg.Done()
			thr, err := EstimateThresholds(ch.Samples, ch.BaselineEnd, req.Params.HighFactor, req.Params.LowFactor)
			if err != nil {
				errs[i] = fmt.Errorf("channel %q: %w", ch.Label, err)
				return
			}
			detections[i] = models.ChannelDetection{
				Label:      ch.Label,
				Thresholds: thr,
				Events:     DetectEvents(ch.Samples, thr, minDuration),
			}
		}(i, ch)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return models.AnalysisResult{}, err
		}
	}

	lists := make([][]models.Event, len(detections))
	for i, d := range detections {
		lists[i] = d.Events
	}
	confirmed := ConfirmChannels(lists)

	reference := req.Channels[0].Samples
	filtered, err := FilterOutliers(reference, confirmed, req.SampleRate, req.Params)
	if err != nil {
		return models.AnalysisResult{}, err
	}

	p.logger.Debug("analysis complete",
		slog.String("session_id", req.SessionID),
		slog.Int("channels", len(req.Channels)),
		slog.Int("confirmed", len(confirmed)),
		slog.Int("final", len(filtered.Events)))

	return models.AnalysisResult{
		SessionID:  req.SessionID,
		SampleRate: req.SampleRate,
		Channels:   detections,
		Events:     filtered.Events,
		Features:   filtered.Features,
		Stats:      filtered.Stats,
		Params:     req.Params,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func validateRequest(req models.AnalysisRequest) error {
	if req.SampleRate <= 0 {
		return utils.ConfigErrorf("sample rate must be positive, got %g", req.SampleRate)
	}
	if len(req.Channels) == 0 {
		return utils.DataErrorf("no channels supplied")
	}
	if err := ValidateParams(req.Params); err != nil {
		return err
	}

	length := len(req.Channels[0].Samples)
	for _, ch := range req.Channels {
		if len(ch.Samples) == 0 {
			return utils.DataErrorf("channel %q: empty signal", ch.Label)
		}
		if len(ch.Samples) != length {
			return utils.DataErrorf("channel %q: length %d differs from reference length %d", ch.Label, len(ch.Samples), length)
		}
		if ch.BaselineEnd > len(ch.Samples) {
			return utils.DataErrorf("channel %q: baseline window %d exceeds signal length %d", ch.Label, ch.BaselineEnd, len(ch.Samples))
		}
	}
	return nil
}

// ValidateParams rejects parameter sets the pipeline cannot run with.
func ValidateParams(p models.DetectionParams) error {
	if p.HighFactor < 0 || p.LowFactor < 0 {
		return utils.ConfigErrorf("threshold factors must be non-negative (high=%g low=%g)", p.HighFactor, p.LowFactor)
	}
	if p.LowFactor >= p.HighFactor {
		return utils.ConfigErrorf("low factor %g must be below high factor %g", p.LowFactor, p.HighFactor)
	}
	if p.MinDurationSec < 0 {
		return utils.ConfigErrorf("minimum duration must be non-negative, got %g", p.MinDurationSec)
	}
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
