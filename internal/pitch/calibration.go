package pitch

import (
	"context"
	"sort"

	"github.com/fastball-data/pitch.report/internal/monitoring"
)

// Calibration method labels reported on results.
const (
	CalibrationMitt       = "mitt_detection"
	CalibrationResolution = "resolution_estimate"
)

// CalibrationResult is the pixel-to-meter mapping for one clip and how it
// was obtained.
type CalibrationResult struct {
	ScaleMetersPerPixel float64
	MittDetected        bool
	Method              string
	SampleCount         int
	MedianHeightPx      float64
}

// Calibrate derives the clip's pixel-to-meter scale from the catcher's mitt.
// It scans the first cfg.CalibrationScanFrames frames of the reversed
// sequence (the catch scene), collects mitt detections that look like an
// upright mitt at a plausible size, and divides the known mitt height by the
// median detected height. Too few samples or an implausible scale falls back
// to a resolution-based estimate, so calibration always yields a usable
// scale. frames must be non-empty.
func Calibrate(ctx context.Context, det Detector, frames []Frame, cfg AnalyzerConfig) CalibrationResult {
	scan := cfg.CalibrationScanFrames
	if scan > len(frames) {
		scan = len(frames)
	}
	frameW, frameH := frames[0].Bounds()

	var heights []float64
	for i := 0; i < scan; i++ {
		if ctx.Err() != nil {
			break
		}
		for _, d := range DetectMitts(ctx, det, frames[i], cfg) {
			h, w := d.Height(), d.Width()
			sizeRatio := h / float64(frameH)
			if h > MittMinHeightPx && h < float64(frameH)*MittMaxFrameFraction &&
				h > w*MittMinAspectRatio &&
				sizeRatio > MittMinSizeRatio && sizeRatio < MittMaxSizeRatio {
				heights = append(heights, h)
			}
		}
	}

	if len(heights) >= MittMinSamples {
		med := median(heights)
		scale := cfg.MittHeightMeters / med
		if scale > ScaleFloorMPerPx && scale < ScaleCeilMPerPx {
			monitoring.Logf("calibration: mitt detected, scale=%.6f m/px (median height %.1fpx over %d samples)",
				scale, med, len(heights))
			return CalibrationResult{
				ScaleMetersPerPixel: scale,
				MittDetected:        true,
				Method:              CalibrationMitt,
				SampleCount:         len(heights),
				MedianHeightPx:      med,
			}
		}
		monitoring.Logf("calibration: rejecting implausible mitt scale %.6f m/px, falling back", scale)
	}

	// Resolution fallback. Portrait clips are usually zoomed-in phone
	// captures covering a narrower slice of the field.
	fieldWidthM, coverage := LandscapeFieldWidthM, LandscapeCoverage
	if frameH > frameW {
		fieldWidthM, coverage = PortraitFieldWidthM, PortraitCoverage
	}
	scale := fieldWidthM / (float64(frameW) * coverage)
	monitoring.Logf("calibration: no usable mitt, resolution estimate %dx%dpx -> %.6f m/px (field width %.1fm)",
		frameW, frameH, scale, fieldWidthM)
	return CalibrationResult{
		ScaleMetersPerPixel: scale,
		MittDetected:        false,
		Method:              CalibrationResolution,
		SampleCount:         len(heights),
	}
}

// median returns the middle of the sorted values, averaging the two middles
// for even counts. The input slice is sorted in place.
func median(values []float64) float64 {
	sort.Float64s(values)
	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}
