package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fastball-data/pitch.report/internal/pitch"
)

// TuningConfig is an optional JSON overlay for the analyzer's tunable
// thresholds. All fields are pointers so a partial file only overrides what
// it names; everything else keeps the compiled-in default from
// pitch.DefaultAnalyzerConfig. The schema doubles as the documented shape
// for a future runtime params endpoint.
type TuningConfig struct {
	// Association and track selection params
	AssociationGatePx *float64 `json:"association_gate_px,omitempty"`
	MinTrackPositions *int     `json:"min_track_positions,omitempty"`
	MaxTrackPositions *int     `json:"max_track_positions,omitempty"`
	MinDisplacementPx *float64 `json:"min_displacement_px,omitempty"`

	// Detection params
	MittMinConfidence *float64 `json:"mitt_min_confidence,omitempty"`
	BallMinConfidence *float64 `json:"ball_min_confidence,omitempty"`
	BallMinSizePx     *float64 `json:"ball_min_size_px,omitempty"`
	BallMaxSizePx     *float64 `json:"ball_max_size_px,omitempty"`

	// Calibration params
	MittHeightMeters      *float64 `json:"mitt_height_m,omitempty"`
	CalibrationScanFrames *int     `json:"calibration_scan_frames,omitempty"`

	// Speed estimation params
	SpeedKeepFraction    *float64 `json:"speed_keep_fraction,omitempty"`
	AssumedFlightSeconds *float64 `json:"assumed_flight_seconds,omitempty"`
	PlausibleMinKMH      *float64 `json:"plausible_min_kmh,omitempty"`
	PlausibleMaxKMH      *float64 `json:"plausible_max_kmh,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Applying it is a no-op; use LoadTuningConfig to read overrides from disk.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the JSON file retain their default
// values, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.AssociationGatePx != nil && *c.AssociationGatePx <= 0 {
		return fmt.Errorf("association_gate_px must be positive, got %f", *c.AssociationGatePx)
	}
	if c.MinTrackPositions != nil && *c.MinTrackPositions < 2 {
		return fmt.Errorf("min_track_positions must be at least 2, got %d", *c.MinTrackPositions)
	}
	if c.MaxTrackPositions != nil && *c.MaxTrackPositions < 2 {
		return fmt.Errorf("max_track_positions must be at least 2, got %d", *c.MaxTrackPositions)
	}
	if c.MinTrackPositions != nil && c.MaxTrackPositions != nil && *c.MaxTrackPositions < *c.MinTrackPositions {
		return fmt.Errorf("max_track_positions %d is below min_track_positions %d", *c.MaxTrackPositions, *c.MinTrackPositions)
	}
	if c.MinDisplacementPx != nil && *c.MinDisplacementPx < 0 {
		return fmt.Errorf("min_displacement_px must be non-negative, got %f", *c.MinDisplacementPx)
	}

	if c.MittMinConfidence != nil {
		if *c.MittMinConfidence <= 0 || *c.MittMinConfidence > 1 {
			return fmt.Errorf("mitt_min_confidence must be in (0, 1], got %f", *c.MittMinConfidence)
		}
	}
	if c.BallMinConfidence != nil {
		if *c.BallMinConfidence <= 0 || *c.BallMinConfidence > 1 {
			return fmt.Errorf("ball_min_confidence must be in (0, 1], got %f", *c.BallMinConfidence)
		}
	}
	if c.BallMinSizePx != nil && *c.BallMinSizePx <= 0 {
		return fmt.Errorf("ball_min_size_px must be positive, got %f", *c.BallMinSizePx)
	}
	if c.BallMaxSizePx != nil && *c.BallMaxSizePx <= 0 {
		return fmt.Errorf("ball_max_size_px must be positive, got %f", *c.BallMaxSizePx)
	}
	if c.BallMinSizePx != nil && c.BallMaxSizePx != nil && *c.BallMaxSizePx <= *c.BallMinSizePx {
		return fmt.Errorf("ball_max_size_px %f must exceed ball_min_size_px %f", *c.BallMaxSizePx, *c.BallMinSizePx)
	}

	if c.MittHeightMeters != nil && *c.MittHeightMeters <= 0 {
		return fmt.Errorf("mitt_height_m must be positive, got %f", *c.MittHeightMeters)
	}
	if c.CalibrationScanFrames != nil && *c.CalibrationScanFrames < 1 {
		return fmt.Errorf("calibration_scan_frames must be at least 1, got %d", *c.CalibrationScanFrames)
	}

	if c.SpeedKeepFraction != nil {
		if *c.SpeedKeepFraction <= 0 || *c.SpeedKeepFraction > 1 {
			return fmt.Errorf("speed_keep_fraction must be in (0, 1], got %f", *c.SpeedKeepFraction)
		}
	}
	if c.AssumedFlightSeconds != nil && *c.AssumedFlightSeconds <= 0 {
		return fmt.Errorf("assumed_flight_seconds must be positive, got %f", *c.AssumedFlightSeconds)
	}
	if c.PlausibleMinKMH != nil && *c.PlausibleMinKMH <= 0 {
		return fmt.Errorf("plausible_min_kmh must be positive, got %f", *c.PlausibleMinKMH)
	}
	if c.PlausibleMaxKMH != nil && *c.PlausibleMaxKMH <= 0 {
		return fmt.Errorf("plausible_max_kmh must be positive, got %f", *c.PlausibleMaxKMH)
	}
	if c.PlausibleMinKMH != nil && c.PlausibleMaxKMH != nil && *c.PlausibleMaxKMH <= *c.PlausibleMinKMH {
		return fmt.Errorf("plausible_max_kmh %f must exceed plausible_min_kmh %f", *c.PlausibleMaxKMH, *c.PlausibleMinKMH)
	}

	return nil
}

// ApplyTo overlays the set fields onto an analyzer config in place. Nil
// fields leave the target untouched.
func (c *TuningConfig) ApplyTo(cfg *pitch.AnalyzerConfig) {
	if c.AssociationGatePx != nil {
		cfg.AssociationGatePx = *c.AssociationGatePx
	}
	if c.MinTrackPositions != nil {
		cfg.MinTrackPositions = *c.MinTrackPositions
	}
	if c.MaxTrackPositions != nil {
		cfg.MaxTrackPositions = *c.MaxTrackPositions
	}
	if c.MinDisplacementPx != nil {
		cfg.MinDisplacementPx = *c.MinDisplacementPx
	}
	if c.MittMinConfidence != nil {
		cfg.MittMinConfidence = *c.MittMinConfidence
	}
	if c.BallMinConfidence != nil {
		cfg.BallMinConfidence = *c.BallMinConfidence
	}
	if c.BallMinSizePx != nil {
		cfg.BallMinSizePx = *c.BallMinSizePx
	}
	if c.BallMaxSizePx != nil {
		cfg.BallMaxSizePx = *c.BallMaxSizePx
	}
	if c.MittHeightMeters != nil {
		cfg.MittHeightMeters = *c.MittHeightMeters
	}
	if c.CalibrationScanFrames != nil {
		cfg.CalibrationScanFrames = *c.CalibrationScanFrames
	}
	if c.SpeedKeepFraction != nil {
		cfg.SpeedKeepFraction = *c.SpeedKeepFraction
	}
	if c.AssumedFlightSeconds != nil {
		cfg.AssumedFlightSeconds = *c.AssumedFlightSeconds
	}
	if c.PlausibleMinKMH != nil {
		cfg.PlausibleMinKMH = *c.PlausibleMinKMH
	}
	if c.PlausibleMaxKMH != nil {
		cfg.PlausibleMaxKMH = *c.PlausibleMaxKMH
	}
}

// AnalyzerConfig returns the compiled-in defaults with this overlay applied.
func (c *TuningConfig) AnalyzerConfig() pitch.AnalyzerConfig {
	cfg := pitch.DefaultAnalyzerConfig()
	c.ApplyTo(&cfg)
	return cfg
}
