package pitch

import (
	"math"
	"testing"
)

func TestSlowMotionFactor(t *testing.T) {
	cfg := DefaultAnalyzerConfig()

	tests := []struct {
		name       string
		fps        float64
		duration   float64
		wantFactor float64
		wantRaw    float64
	}{
		{"high fps is real time", 240, 8.0, 1, 0},
		{"just above fps cutoff", 60.5, 8.0, 1, 0},
		{"short clip is real time", 30, 1.5, 1, 0},
		{"duration exactly at cutoff", 30, 2.0, 1, 0},
		{"just over duration cutoff snaps to 4x", 30, 2.1, 4, 4.2},
		{"seven times flight snaps to 8x", 30, 3.5, 8, 7},
		{"raw exactly 6 stays at 4x", 30, 3.0, 4, 6},
		{"raw exactly 12 stays at 8x", 30, 6.0, 8, 12},
		{"long clip snaps to 16x", 30, 6.5, 16, 13},
		{"sixty fps is still eligible", 60, 8.0, 16, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factor, raw := SlowMotionFactor(tt.fps, tt.duration, cfg)
			if factor != tt.wantFactor {
				t.Errorf("factor = %v, want %v", factor, tt.wantFactor)
			}
			if math.Abs(raw-tt.wantRaw) > 1e-9 {
				t.Errorf("raw = %v, want %v", raw, tt.wantRaw)
			}
		})
	}
}

func TestSlowMotionFactor_LongerAssumedFlight(t *testing.T) {
	// With the default half-second flight every eligible clip lands at 4x
	// or above; a longer assumed flight reaches the small factors.
	cfg := DefaultAnalyzerConfig()
	cfg.AssumedFlightSeconds = 2.0

	tests := []struct {
		name       string
		duration   float64
		wantFactor float64
		wantRaw    float64
	}{
		{"raw below 1.5 is unscaled", 2.5, 1, 1.25},
		{"raw exactly 1.5 is unscaled", 3.0, 1, 1.5},
		{"raw just above 1.5 snaps to 2x", 4.0, 2, 2},
		{"raw exactly 3 stays at 2x", 6.0, 2, 3},
		{"raw above 3 snaps to 4x", 7.0, 4, 3.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factor, raw := SlowMotionFactor(30, tt.duration, cfg)
			if factor != tt.wantFactor {
				t.Errorf("factor = %v, want %v", factor, tt.wantFactor)
			}
			if math.Abs(raw-tt.wantRaw) > 1e-9 {
				t.Errorf("raw = %v, want %v", raw, tt.wantRaw)
			}
		})
	}
}
