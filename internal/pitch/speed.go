package pitch

import (
	"errors"
	"sort"

	"github.com/fastball-data/pitch.report/internal/units"
)

var (
	// ErrInsufficientTrack means the track has too few positions to
	// estimate a speed from.
	ErrInsufficientTrack = errors.New("track too short for speed estimation")
	// ErrNoValidIntervals means no consecutive pair of track positions
	// spanned a positive amount of time.
	ErrNoValidIntervals = errors.New("no valid frame intervals in track")
)

// SpeedEstimate is the outcome of speed estimation over one track. SpeedKMH
// is before any slow-motion correction; IntervalSpeedsMPS carries every
// valid per-interval speed in track order for persistence and charting.
type SpeedEstimate struct {
	SpeedKMH          float64
	IntervalSpeedsMPS []float64
	IntervalCount     int
	FilteredCount     int
	AveragedCount     int
}

// EstimateSpeed derives a speed from a track's positions. Each consecutive
// pair yields one interval speed in m/s; intervals with non-positive elapsed
// time are skipped. The slowest quarter of intervals is then dropped by
// threshold (values tying the cutoff stay in), and the reported speed is the
// mean of the fastest half of what remains, converted to km/h. Slow-motion
// correction is the caller's concern.
func EstimateSpeed(positions []TrackPoint, fps, scale float64, cfg AnalyzerConfig) (SpeedEstimate, error) {
	if len(positions) < cfg.MinTrackPositions {
		return SpeedEstimate{}, ErrInsufficientTrack
	}

	speeds := make([]float64, 0, len(positions)-1)
	for i := 1; i < len(positions); i++ {
		p1, p2 := positions[i-1], positions[i]
		elapsed := float64(p2.FrameIndex-p1.FrameIndex) / fps
		if elapsed <= 0 {
			continue
		}
		pixelDist := dist(p1.X, p1.Y, p2.X, p2.Y)
		speeds = append(speeds, pixelDist*scale/elapsed)
	}
	if len(speeds) == 0 {
		return SpeedEstimate{}, ErrNoValidIntervals
	}

	sorted := make([]float64, len(speeds))
	copy(sorted, speeds)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	// Drop the slow tail by value, not by count: every speed at or above
	// the cutoff survives, so ties at the threshold are kept.
	keepCount := int(float64(len(sorted)) * cfg.SpeedKeepFraction)
	if keepCount < 1 {
		keepCount = 1
	}
	threshold := sorted[keepCount-1]
	retained := sorted[:0:0]
	for _, s := range sorted {
		if s >= threshold {
			retained = append(retained, s)
		}
	}
	if len(retained) == 0 {
		retained = sorted
	}

	topCount := len(retained) / 2
	if topCount < 1 {
		topCount = 1
	}
	var sum float64
	for _, s := range retained[:topCount] {
		sum += s
	}
	avgMPS := sum / float64(topCount)

	return SpeedEstimate{
		SpeedKMH:          units.ConvertSpeed(avgMPS, units.KMPH),
		IntervalSpeedsMPS: speeds,
		IntervalCount:     len(speeds),
		FilteredCount:     len(retained),
		AveragedCount:     topCount,
	}, nil
}
