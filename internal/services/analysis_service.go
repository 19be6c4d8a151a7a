package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/dysphagialab/swallow-detect/internal/cache"
	"github.com/dysphagialab/swallow-detect/internal/engine"
	"github.com/dysphagialab/swallow-detect/internal/metrics"
	"github.com/dysphagialab/swallow-detect/internal/models"
	"github.com/dysphagialab/swallow-detect/internal/utils"
)

// ErrNotFound signals that a requested analysis does not exist.
var ErrNotFound = errors.New("analysis not found")

// AnalysisStore defines the persistence operations the service requires.
type AnalysisStore interface {
	StoreAnalysis(ctx context.Context, result models.AnalysisResult) (string, error)
	GetAnalysis(ctx context.Context, id string) (models.AnalysisResult, error)
	ListAnalyses(ctx context.Context, req models.ListAnalysesRequest) ([]models.AnalysisResult, error)
	Summary(ctx context.Context) (models.AnalysisSummary, error)
	Ping(ctx context.Context) error
}

// ParamOverrides carries optional per-request parameter overrides; nil fields
// keep the resolved preset or default value.
type ParamOverrides struct {
	HighFactor         *float64               `json:"highFactor"`
	LowFactor          *float64               `json:"lowFactor"`
	MinDurationSec     *float64               `json:"minDurationSec"`
	FilterLowPeaks     *bool                  `json:"filterLowPeaks"`
	PeakZThreshold     *float64               `json:"peakZThreshold"`
	FilterCloseEvents  *bool                  `json:"filterCloseEvents"`
	IntervalMethod     *models.IntervalMethod `json:"intervalMethod"`
	IntervalZThreshold *float64               `json:"intervalZThreshold"`
}

// AnalyzeInput is the service-level analysis request: the recording plus the
// preset name and overrides that resolve into pipeline parameters.
type AnalyzeInput struct {
	SessionID  string
	SampleRate float64
	Channels   []models.ChannelSignal
	Preset     string
	Overrides  ParamOverrides
}

// AnalysisService validates requests, resolves parameters, runs the pipeline,
// and persists the results.
type AnalysisService struct {
	logger    *slog.Logger
	pipeline  *engine.Pipeline
	presets   *engine.PresetStore
	store     AnalysisStore
	cache     cache.Provider
	cacheTTL  time.Duration
	defaults  models.DetectionParams
	latencies *utils.LatencyTracker
}

// NewAnalysisService constructs the analysis facade. presets may be nil
// (defaults only); cacheProvider may be nil (no caching).
func NewAnalysisService(
	logger *slog.Logger,
	pipeline *engine.Pipeline,
	presets *engine.PresetStore,
	store AnalysisStore,
	cacheProvider cache.Provider,
	cacheTTL time.Duration,
	defaults models.DetectionParams,
) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	if pipeline == nil {
		pipeline = engine.NewPipeline(logger)
	}
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	return &AnalysisService{
		logger:    logger,
		pipeline:  pipeline,
		presets:   presets,
		store:     store,
		cache:     cacheProvider,
		cacheTTL:  cacheTTL,
		defaults:  defaults,
		latencies: utils.NewLatencyTracker(1024),
	}
}

// Analyze resolves parameters, runs the pipeline, and persists the result.
func (s *AnalysisService) Analyze(ctx context.Context, input AnalyzeInput) (models.AnalysisResult, error) {
	params, err := s.resolveParams(input.Preset, input.Overrides)
	if err != nil {
		metrics.ObserveAnalysis(0, metrics.OutcomeError)
		return models.AnalysisResult{}, err
	}

	start := time.Now()
	result, err := s.pipeline.Analyze(ctx, models.AnalysisRequest{
		SessionID:  input.SessionID,
		SampleRate: input.SampleRate,
		Channels:   input.Channels,
		Params:     params,
	})
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveAnalysis(duration, metrics.OutcomeError)
		s.logger.Error("analysis failed", slog.String("session_id", input.SessionID), slog.Any("error", err))
		return models.AnalysisResult{}, err
	}

	s.latencies.Observe(duration)
	metrics.ObserveAnalysis(duration, metrics.OutcomeSuccess)
	metrics.ObserveFinalEvents(result.Stats.Final)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("analysis latency", slog.Duration("p95", s.latencies.Percentile(95)), slog.Int("samples", count))
	}

	if s.store != nil {
		id, err := s.store.StoreAnalysis(ctx, result)
		if err != nil {
			s.logger.Warn("failed to persist analysis", slog.Any("error", err))
		} else {
			result.AnalysisID = id
		}
	}

	return result, nil
}

// Get fetches a stored analysis by ID, consulting the cache first.
func (s *AnalysisService) Get(ctx context.Context, id string) (models.AnalysisResult, error) {
	if s.store == nil {
		return models.AnalysisResult{}, ErrNotFound
	}

	key := "analysis:" + id
	if data, err := s.cache.Get(ctx, key); err == nil {
		var result models.AnalysisResult
		if err := json.Unmarshal(data, &result); err == nil {
			return result, nil
		}
		// Corrupt entries are evicted and re-read from the store.
		_ = s.cache.Del(ctx, key)
	}

	result, err := s.store.GetAnalysis(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.AnalysisResult{}, ErrNotFound
		}
		return models.AnalysisResult{}, err
	}

	if data, err := json.Marshal(result); err == nil {
		_ = s.cache.Set(ctx, key, data, s.cacheTTL)
	}
	return result, nil
}

// List returns stored analyses, optionally filtered by session.
func (s *AnalysisService) List(ctx context.Context, req models.ListAnalysesRequest) ([]models.AnalysisResult, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListAnalyses(ctx, req)
}

// Summary aggregates stored analyses.
func (s *AnalysisService) Summary(ctx context.Context) (models.AnalysisSummary, error) {
	if s.store == nil {
		return models.AnalysisSummary{}, nil
	}
	return s.store.Summary(ctx)
}

// Healthy reports whether the store is reachable.
func (s *AnalysisService) Healthy(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	return s.store.Ping(ctx)
}

// LatencyP95 returns the current p95 analysis latency.
func (s *AnalysisService) LatencyP95() time.Duration {
	return s.latencies.Percentile(95)
}

// resolveParams layers request overrides over the named preset (or the
// service defaults), then validates the final parameter set.
func (s *AnalysisService) resolveParams(preset string, ov ParamOverrides) (models.DetectionParams, error) {
	params, err := s.presets.Resolve(preset, s.defaults)
	if err != nil {
		return models.DetectionParams{}, err
	}

	if ov.HighFactor != nil {
		params.HighFactor = *ov.HighFactor
	}
	if ov.LowFactor != nil {
		params.LowFactor = *ov.LowFactor
	}
	if ov.MinDurationSec != nil {
		params.MinDurationSec = *ov.MinDurationSec
	}
	if ov.FilterLowPeaks != nil {
		params.FilterLowPeaks = *ov.FilterLowPeaks
	}
	if ov.PeakZThreshold != nil {
		params.PeakZThreshold = *ov.PeakZThreshold
	}
	if ov.FilterCloseEvents != nil {
		params.FilterCloseEvents = *ov.FilterCloseEvents
	}
	if ov.IntervalMethod != nil {
		params.IntervalMethod = *ov.IntervalMethod
	}
	if ov.IntervalZThreshold != nil {
		params.IntervalZThreshold = *ov.IntervalZThreshold
	}

	if err := engine.ValidateParams(params); err != nil {
		return models.DetectionParams{}, err
	}
	return params, nil
}
