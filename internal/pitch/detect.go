package pitch

import (
	"context"

	"github.com/fastball-data/pitch.report/internal/monitoring"
)

// DetectBalls runs the detector for the ball classes on one frame and applies
// the size gate. Detector failures are logged and reported as no detections;
// one bad frame must not abort the clip.
func DetectBalls(ctx context.Context, det Detector, frame Frame, cfg AnalyzerConfig) []Detection {
	raw, err := det.Detect(ctx, frame, BallClassIDs, cfg.BallMinConfidence)
	if err != nil {
		monitoring.Debugf("ball detection failed on frame %d: %v", frame.Index(), err)
		return nil
	}
	out := raw[:0:0]
	for _, d := range raw {
		if d.Width() > cfg.BallMinSizePx && d.Width() < cfg.BallMaxSizePx &&
			d.Height() > cfg.BallMinSizePx && d.Height() < cfg.BallMaxSizePx {
			out = append(out, d)
		}
	}
	return out
}

// DetectMitts runs the detector for the glove class on one frame. No size
// gate is applied here; calibration applies its own plausibility checks.
func DetectMitts(ctx context.Context, det Detector, frame Frame, cfg AnalyzerConfig) []Detection {
	raw, err := det.Detect(ctx, frame, MittClassIDs, cfg.MittMinConfidence)
	if err != nil {
		monitoring.Debugf("mitt detection failed on frame %d: %v", frame.Index(), err)
		return nil
	}
	return raw
}
