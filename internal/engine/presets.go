package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dysphagialab/swallow-detect/internal/models"
	"github.com/dysphagialab/swallow-detect/internal/utils"
)

// PresetStore holds named detection parameter packs loaded from a YAML file,
// so study protocols share one vetted configuration instead of drifting
// per-call-site defaults.
type PresetStore struct {
	presets map[string]models.DetectionParams
	logger  *slog.Logger
}

type presetFile struct {
	Presets []presetEntry `yaml:"presets"`
}

type presetEntry struct {
	Name   string                 `yaml:"name"`
	Params models.DetectionParams `yaml:"params"`
}

// LoadPresets reads the preset pack at path. An empty path or a missing file
// yields a nil store, which resolves every lookup to the defaults.
func LoadPresets(path string, defaults models.DetectionParams, logger *slog.Logger) (*PresetStore, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse preset pack %s: %w", path, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	presets := make(map[string]models.DetectionParams, len(file.Presets))
	for _, entry := range file.Presets {
		name := strings.ToLower(strings.TrimSpace(entry.Name))
		if name == "" {
			continue
		}
		params := entry.Params
		fillUnsetParams(&params, defaults)
		if err := ValidateParams(params); err != nil {
			return nil, fmt.Errorf("preset %q: %w", entry.Name, err)
		}
		presets[name] = params
	}
	logger.Info("detection presets loaded", slog.String("path", path), slog.Int("count", len(presets)))
	return &PresetStore{presets: presets, logger: logger}, nil
}

// Resolve returns the parameters for the named preset, or the defaults when
// name is empty. Unknown names are a configuration error.
func (s *PresetStore) Resolve(name string, defaults models.DetectionParams) (models.DetectionParams, error) {
	if name == "" {
		return defaults, nil
	}
	if s == nil {
		return models.DetectionParams{}, utils.ConfigErrorf("unknown preset %q (no preset pack loaded)", name)
	}
	params, ok := s.presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return models.DetectionParams{}, utils.ConfigErrorf("unknown preset %q", name)
	}
	return params, nil
}

// fillUnsetParams backfills zero-valued numeric fields and an empty interval
// method from the defaults. Boolean filter switches are taken as written:
// a preset that omits them disables the corresponding pass.
func fillUnsetParams(p *models.DetectionParams, defaults models.DetectionParams) {
	if p.HighFactor == 0 {
		p.HighFactor = defaults.HighFactor
	}
	if p.LowFactor == 0 {
		p.LowFactor = defaults.LowFactor
	}
	if p.MinDurationSec == 0 {
		p.MinDurationSec = defaults.MinDurationSec
	}
	if p.PeakZThreshold == 0 {
		p.PeakZThreshold = defaults.PeakZThreshold
	}
	if p.IntervalZThreshold == 0 {
		p.IntervalZThreshold = defaults.IntervalZThreshold
	}
	if p.IntervalMethod == "" {
		p.IntervalMethod = defaults.IntervalMethod
	}
}
