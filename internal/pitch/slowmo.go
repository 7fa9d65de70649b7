package pitch

// SlowMotionFactor estimates how much a clip was slowed down, from its
// container frame rate and duration. A clip at 60fps or less that still runs
// longer than two seconds cannot be a real-time pitch, so the assumed flight
// time gives a raw slowdown ratio, snapped to the common capture factors
// (16x, 8x, 4x, 2x). High-fps or short clips return factor 1 and raw 0.
func SlowMotionFactor(fps, durationSec float64, cfg AnalyzerConfig) (factor, raw float64) {
	if fps > SlowmoMaxFPS || durationSec <= SlowmoMinDurationSec {
		return 1, 0
	}
	raw = durationSec / cfg.AssumedFlightSeconds
	switch {
	case raw > 12:
		factor = 16
	case raw > 6:
		factor = 8
	case raw > 3:
		factor = 4
	case raw > 1.5:
		factor = 2
	default:
		factor = 1
	}
	return factor, raw
}
