package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dysphagialab/swallow-detect/internal/models"
)

// Config captures the settings required to boot the analysis service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
	Presets   PresetsConfig   `yaml:"presets"`
	Cache     CacheConfig     `yaml:"cache"`
	Detection DetectionConfig `yaml:"detection"`
}

// ServerConfig controls HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// StorageConfig selects the analysis store backend.
type StorageConfig struct {
	Driver string `yaml:"driver"` // sqlite3 or postgres
	DSN    string `yaml:"dsn"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// PresetsConfig controls preset-pack loading for detection parameters.
type PresetsConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig controls in-process caching of analysis reads.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// DetectionConfig holds the default pipeline parameters; requests may
// override them per analysis.
type DetectionConfig struct {
	HighFactor         float64               `yaml:"highFactor"`
	LowFactor          float64               `yaml:"lowFactor"`
	MinDurationSec     float64               `yaml:"minDurationSec"`
	FilterLowPeaks     bool                  `yaml:"filterLowPeaks"`
	PeakZThreshold     float64               `yaml:"peakZThreshold"`
	FilterCloseEvents  bool                  `yaml:"filterCloseEvents"`
	IntervalMethod     models.IntervalMethod `yaml:"intervalMethod"`
	IntervalZThreshold float64               `yaml:"intervalZThreshold"`
}

// Params converts the configured defaults into pipeline parameters.
func (d DetectionConfig) Params() models.DetectionParams {
	return models.DetectionParams{
		HighFactor:         d.HighFactor,
		LowFactor:          d.LowFactor,
		MinDurationSec:     d.MinDurationSec,
		FilterLowPeaks:     d.FilterLowPeaks,
		PeakZThreshold:     d.PeakZThreshold,
		FilterCloseEvents:  d.FilterCloseEvents,
		IntervalMethod:     d.IntervalMethod,
		IntervalZThreshold: d.IntervalZThreshold,
	}
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("SWALLOW_DETECT_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Driver: "sqlite3",
			DSN:    "file:swallow-detect.db?_busy_timeout=5000&_journal_mode=WAL",
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Presets: PresetsConfig{Path: "configs/presets/default.yaml"},
		Cache:   CacheConfig{Enabled: true, TTL: 5 * time.Minute},
		Detection: DetectionConfig{
			HighFactor:         3,
			LowFactor:          1.5,
			MinDurationSec:     0.7,
			FilterLowPeaks:     true,
			PeakZThreshold:     1.5,
			FilterCloseEvents:  true,
			IntervalMethod:     models.IntervalPeakToPeak,
			IntervalZThreshold: 1.5,
		},
	}
}

func validate(cfg Config) error {
	switch cfg.Storage.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
	d := cfg.Detection
	if d.HighFactor < 0 || d.LowFactor < 0 {
		return fmt.Errorf("detection factors must be non-negative (high=%g low=%g)", d.HighFactor, d.LowFactor)
	}
	if d.LowFactor >= d.HighFactor {
		return fmt.Errorf("detection low factor %g must be below high factor %g", d.LowFactor, d.HighFactor)
	}
	if d.MinDurationSec < 0 {
		return fmt.Errorf("detection minimum duration must be non-negative, got %g", d.MinDurationSec)
	}
	if !d.IntervalMethod.Valid() {
		return fmt.Errorf("unrecognised interval method %q", d.IntervalMethod)
	}
	if d.PeakZThreshold < 0 || d.IntervalZThreshold < 0 {
		return fmt.Errorf("z-score thresholds must be non-negative")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SWALLOW_DETECT_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("SWALLOW_DETECT_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("SWALLOW_DETECT_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("SWALLOW_DETECT_STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("SWALLOW_DETECT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SWALLOW_DETECT_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("SWALLOW_DETECT_PRESETS_PATH"); v != "" {
		cfg.Presets.Path = v
	}
	if v := os.Getenv("SWALLOW_DETECT_CACHE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Cache.Enabled = b
		}
	}
	if v := os.Getenv("SWALLOW_DETECT_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
	if v := os.Getenv("SWALLOW_DETECT_HIGH_FACTOR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Detection.HighFactor = f
		}
	}
	if v := os.Getenv("SWALLOW_DETECT_LOW_FACTOR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Detection.LowFactor = f
		}
	}
	if v := os.Getenv("SWALLOW_DETECT_MIN_DURATION_SEC"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Detection.MinDurationSec = f
		}
	}
	if v := os.Getenv("SWALLOW_DETECT_INTERVAL_METHOD"); v != "" {
		cfg.Detection.IntervalMethod = models.IntervalMethod(v)
	}
}
