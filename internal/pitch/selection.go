package pitch

// SelectBestTrack picks the track most likely to be the pitched ball: the
// eligible track with the most positions. Eligibility requires at least
// cfg.MinTrackPositions points, a first-to-last displacement strictly above
// cfg.MinDisplacementPx, and no more than cfg.MaxTrackPositions points
// (longer tracks are detector noise that never left the gate). Ties on
// length go to the earliest-created track. Returns nil when no track
// qualifies, along with the longest eligible length seen (0 when none).
func SelectBestTrack(tracks []*TrackedBall, cfg AnalyzerConfig) (best *TrackedBall, maxLen int) {
	for _, tr := range tracks {
		n := len(tr.Positions)
		if n < cfg.MinTrackPositions || n > cfg.MaxTrackPositions {
			continue
		}
		if tr.Displacement() <= cfg.MinDisplacementPx {
			continue
		}
		if n > maxLen {
			maxLen = n
			best = tr
		}
	}
	return best, maxLen
}
