package pitch

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/fastball-data/pitch.report/internal/monitoring"
	"github.com/fastball-data/pitch.report/internal/timeutil"
	"github.com/fastball-data/pitch.report/internal/units"
)

// Result is the outcome of analyzing one clip. The schema is stable across
// success and failure; numeric fields that only exist once their stage has
// run are pointers and omitted from JSON until set.
type Result struct {
	Success            bool     `json:"success"`
	Message            string   `json:"message,omitempty"`
	SpeedKMH           *float64 `json:"speed_kmh,omitempty"`
	SpeedMPH           *float64 `json:"speed_mph,omitempty"`
	DetectedFrames     int      `json:"detected_frames"`
	DetectionCount     int      `json:"detection_count"`
	MaxTrackLength     int      `json:"max_track_length"`
	FPS                float64  `json:"fps"`
	TotalFrames        int      `json:"total_frames"`
	TrackingDurationMS *float64 `json:"tracking_duration_ms,omitempty"`
	MittDetected       bool     `json:"mitt_detected"`
	CalibrationMethod  string   `json:"calibration_method,omitempty"`
	ScaleFactor        *float64 `json:"scale_factor,omitempty"`
	SlowmoFactor       *float64 `json:"slowmo_factor,omitempty"`
	Warning            string   `json:"warning,omitempty"`
	ElapsedMS          int64    `json:"elapsed_ms"`
	Source             string   `json:"source,omitempty"`

	// Per-interval speeds in m/s, before slow-motion correction. Carried
	// for persistence and plotting, not part of the response body.
	IntervalSpeedsMPS []float64 `json:"-"`
}

// SpeedPlotter writes a diagnostic chart of one analysis's interval speeds.
// Implementations pick their own output name and return the written path.
type SpeedPlotter interface {
	Plot(speedsKMH []float64, referenceKMH float64) (path string, err error)
}

// Analyzer runs the full pipeline over a video file: decode reversed,
// calibrate scale from the mitt, detect and track the ball, pick the best
// track, and convert its motion to a speed. One Analyzer is safe for
// sequential reuse; callers needing concurrency serialize around it.
type Analyzer struct {
	opener  VideoOpener
	det     Detector
	flow    FlowEstimator
	cfg     AnalyzerConfig
	clock   timeutil.Clock
	plotter SpeedPlotter
}

// NewAnalyzer builds an Analyzer. flow may be nil to disable flow-assisted
// prediction; clock may be nil for the real clock.
func NewAnalyzer(opener VideoOpener, det Detector, flow FlowEstimator, cfg AnalyzerConfig, clock timeutil.Clock) *Analyzer {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Analyzer{opener: opener, det: det, flow: flow, cfg: cfg, clock: clock}
}

// SetPlotter enables diagnostic speed charts after successful analyses.
func (a *Analyzer) SetPlotter(p SpeedPlotter) { a.plotter = p }

// Config returns the analyzer's configuration.
func (a *Analyzer) Config() AnalyzerConfig { return a.cfg }

// AnalyzeFile analyzes the clip at path. The returned error is reserved for
// hard failures (unreadable file, canceled context); every analytical dead
// end comes back as a Result with Success=false and a human-readable
// message.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*Result, error) {
	start := a.clock.Now()

	video, err := a.opener.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	defer video.Close()

	fps := video.FPS()
	if fps <= 0 {
		monitoring.Logf("analyze: container reports fps=%.2f, assuming %.0f", fps, FallbackFPS)
		fps = FallbackFPS
	}
	totalFrames := video.FrameCount()
	frames := video.Frames()

	res := &Result{
		FPS:         fps,
		TotalFrames: totalFrames,
	}
	if len(frames) == 0 {
		res.Message = "could not read any frames from the video"
		return a.finish(res, start), nil
	}

	durationSec := float64(totalFrames) / fps
	slowmo, rawFactor := SlowMotionFactor(fps, durationSec, a.cfg)
	if slowmo > 1 {
		monitoring.Logf("analyze: slow-motion detected %.1fx (fps=%.1f, duration=%.1fs, raw=%.1fx)",
			slowmo, fps, durationSec, rawFactor)
	} else {
		monitoring.Logf("analyze: treating clip as real time (fps=%.1f, duration=%.1fs)", fps, durationSec)
	}

	cal := Calibrate(ctx, a.det, frames, a.cfg)
	res.MittDetected = cal.MittDetected
	res.CalibrationMethod = cal.Method

	tracker := NewBallTracker(a.cfg.AssociationGatePx, a.flow)
	detectionCount := 0
	for idx, frame := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dets := DetectBalls(ctx, a.det, frame, a.cfg)
		detectionCount += len(dets)
		tracker.Update(frame, dets, idx)
	}
	res.DetectionCount = detectionCount
	monitoring.Logf("analyze: %d ball detections across %d frames, %d tracks",
		detectionCount, len(frames), tracker.TrackCount())

	best, maxLen := SelectBestTrack(tracker.Tracks(), a.cfg)
	res.MaxTrackLength = maxLen
	if best == nil {
		res.Message = fmt.Sprintf(
			"no ball flight detected (detections: %d, longest track: %d frames); film against a plain background in good light",
			detectionCount, maxLen)
		return a.finish(res, start), nil
	}
	res.DetectedFrames = maxLen

	est, err := EstimateSpeed(best.Positions, fps, cal.ScaleMetersPerPixel, a.cfg)
	if err != nil {
		monitoring.Logf("analyze: speed estimation failed: %v", err)
		res.Message = "could not compute a speed from the tracked flight"
		return a.finish(res, start), nil
	}

	corrected := est.SpeedKMH * slowmo
	if slowmo > 1 {
		monitoring.Logf("analyze: slow-motion corrected speed %.1f -> %.1f km/h", est.SpeedKMH, corrected)
	}

	res.Success = true
	res.SpeedKMH = ptrFloat(round1(corrected))
	res.SpeedMPH = ptrFloat(round1(corrected * units.MPHPerKMPH))
	res.TrackingDurationMS = ptrFloat(round1(float64(maxLen) / fps * 1000))
	res.ScaleFactor = ptrFloat(round6(cal.ScaleMetersPerPixel))
	res.SlowmoFactor = ptrFloat(round1(slowmo))
	res.IntervalSpeedsMPS = est.IntervalSpeedsMPS
	if corrected < a.cfg.PlausibleMinKMH || corrected > a.cfg.PlausibleMaxKMH {
		res.Warning = "measurement outside plausible range; the mitt may not have been detected correctly"
	}

	if a.plotter != nil {
		series := make([]float64, len(est.IntervalSpeedsMPS))
		for i, s := range est.IntervalSpeedsMPS {
			series[i] = units.ConvertSpeed(s*slowmo, units.KMPH)
		}
		if path, err := a.plotter.Plot(series, corrected); err != nil {
			monitoring.Logf("analyze: speed plot failed: %v", err)
		} else {
			monitoring.Logf("analyze: speed plot written to %s", path)
		}
	}

	return a.finish(res, start), nil
}

// finish stamps the elapsed wall time and logs the outcome.
func (a *Analyzer) finish(res *Result, start time.Time) *Result {
	res.ElapsedMS = a.clock.Since(start).Milliseconds()
	if res.Success {
		monitoring.Logf("analyze: done in %dms, speed %.1f km/h over %d frames",
			res.ElapsedMS, *res.SpeedKMH, res.DetectedFrames)
	} else {
		monitoring.Logf("analyze: no speed after %dms: %s", res.ElapsedMS, res.Message)
	}
	return res
}

func ptrFloat(v float64) *float64 { return &v }

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }
