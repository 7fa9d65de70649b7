package pitch

import (
	"github.com/fastball-data/pitch.report/internal/monitoring"
)

// TrackPoint is one associated centroid: pixel coordinates plus the index of
// the frame (in reversed order) it was observed on.
type TrackPoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	FrameIndex int     `json:"frame"`
}

// TrackedBall is one ball hypothesis: the centroids it has been associated
// with, in processing order, and the last frame index it was matched on.
// A track is never terminated; one that misses frames keeps competing for
// matches at its last known position.
type TrackedBall struct {
	ID        int64
	Positions []TrackPoint
	LastSeen  int

	// Flow-predicted position for the current frame. Valid only while
	// hasPred is set and LastSeen still names the previous frame.
	predX, predY float64
	hasPred      bool
}

// Last returns the most recent associated point.
func (tr *TrackedBall) Last() TrackPoint {
	return tr.Positions[len(tr.Positions)-1]
}

// Displacement returns the straight-line distance in pixels between the
// track's first and last points.
func (tr *TrackedBall) Displacement() float64 {
	if len(tr.Positions) < 2 {
		return 0
	}
	first, last := tr.Positions[0], tr.Last()
	return dist(first.X, first.Y, last.X, last.Y)
}

// matchPoint returns the position a detection is measured against on
// frameIdx: the flow prediction when one was just computed, otherwise the
// last associated position.
func (tr *TrackedBall) matchPoint(frameIdx int) (x, y float64) {
	if tr.hasPred && tr.LastSeen == frameIdx-1 {
		return tr.predX, tr.predY
	}
	last := tr.Last()
	return last.X, last.Y
}

// BallTracker associates per-frame ball detections into tracks by greedy
// nearest-neighbour matching. Between frames it runs dense optical flow and
// predicts where each recently seen track should be, so a fast ball is
// matched against its projected position rather than where it last was.
type BallTracker struct {
	gatePx float64
	flow   FlowEstimator

	tracks []*TrackedBall
	nextID int64
	prev   Frame
}

// NewBallTracker returns a tracker with the given association gate. A
// detection farther than gatePx from every candidate starts a new track.
// flow may be nil, which disables prediction.
func NewBallTracker(gatePx float64, flow FlowEstimator) *BallTracker {
	return &BallTracker{gatePx: gatePx, flow: flow}
}

// Tracks returns all tracks in creation order. The slice and its elements
// are owned by the tracker and remain valid across Update calls.
func (t *BallTracker) Tracks() []*TrackedBall { return t.tracks }

// TrackCount returns the number of tracks created so far.
func (t *BallTracker) TrackCount() int { return len(t.tracks) }

// predictPositions computes dense flow from the stored previous frame and
// projects every track that was matched on that frame. Out-of-bounds samples
// and flow errors leave the track without a prediction; the current frame
// becomes the stored previous frame either way.
func (t *BallTracker) predictPositions(frame Frame, frameIdx int) {
	if frame == nil {
		return
	}
	if t.prev != nil && len(t.tracks) > 0 && t.flow != nil {
		field, err := t.flow.Flow(t.prev, frame)
		if err != nil {
			monitoring.Debugf("optical flow failed on frame %d: %v", frameIdx, err)
		} else {
			for _, tr := range t.tracks {
				if tr.LastSeen != frameIdx-1 {
					continue
				}
				last := tr.Last()
				dx, dy, ok := field.SampleAt(int(last.X), int(last.Y))
				if !ok {
					continue
				}
				tr.predX, tr.predY = last.X+dx, last.Y+dy
				tr.hasPred = true
			}
		}
	}
	t.prev = frame
}

// Update folds one frame's detections into the track set. The first frame
// with detections seeds one track per centroid. After that, detections are
// taken in input order and each greedily claims the nearest unmatched track
// strictly inside the gate, earlier-created tracks winning exact distance
// ties. A detection with no track in range seeds a new track, which can
// itself be claimed by later detections in the same frame.
func (t *BallTracker) Update(frame Frame, detections []Detection, frameIdx int) {
	t.predictPositions(frame, frameIdx)

	if len(detections) == 0 {
		return
	}

	if len(t.tracks) == 0 {
		for _, det := range detections {
			cx, cy := det.Centroid()
			t.seed(cx, cy, frameIdx)
		}
		return
	}

	matched := make([]bool, len(t.tracks))
	for _, det := range detections {
		cx, cy := det.Centroid()
		bestIdx := -1
		bestDist := t.gatePx
		for i := 0; i < len(t.tracks); i++ {
			if matched[i] {
				continue
			}
			px, py := t.tracks[i].matchPoint(frameIdx)
			if d := dist(cx, cy, px, py); d < bestDist {
				bestDist = d
				bestIdx = i
			}
		}
		if bestIdx >= 0 {
			tr := t.tracks[bestIdx]
			tr.Positions = append(tr.Positions, TrackPoint{X: cx, Y: cy, FrameIndex: frameIdx})
			tr.LastSeen = frameIdx
			tr.hasPred = false
			matched[bestIdx] = true
			continue
		}
		t.seed(cx, cy, frameIdx)
		matched = append(matched, false)
	}
}

func (t *BallTracker) seed(cx, cy float64, frameIdx int) {
	t.tracks = append(t.tracks, &TrackedBall{
		ID:        t.nextID,
		Positions: []TrackPoint{{X: cx, Y: cy, FrameIndex: frameIdx}},
		LastSeen:  frameIdx,
	})
	t.nextID++
}
