package pitch

import (
	"context"
	"math"
)

// Frame is one decoded video frame, identified by its index in the reversed
// processing order. Implementations carry the pixel data; the pipeline only
// needs the index and dimensions.
type Frame interface {
	// Index returns the frame's position in the reversed sequence.
	Index() int
	// Bounds returns the frame dimensions in pixels.
	Bounds() (width, height int)
}

// Video is a fully decoded clip with its frames in reversed playback order
// (catch first, release last). Close releases any frame buffers; the clip
// and its frames must not be used afterwards.
type Video interface {
	FPS() float64
	FrameCount() int
	Frames() []Frame
	Close() error
}

// VideoOpener decodes a video file into a Video. A file that cannot be
// decoded as a supported container is a hard error for the request.
type VideoOpener interface {
	Open(ctx context.Context, path string) (Video, error)
}

// Detector locates objects of the requested classes in a frame. Results
// below minConfidence are not returned. A Detector error for one frame is
// tolerated by callers (treated as no detections); it must not carry state
// between frames.
type Detector interface {
	Detect(ctx context.Context, frame Frame, classIDs []int, minConfidence float64) ([]Detection, error)
}

// FlowField is a dense per-pixel displacement field between two consecutive
// frames. SampleAt reports ok=false outside the field's extent.
type FlowField interface {
	SampleAt(x, y int) (dx, dy float64, ok bool)
}

// FlowEstimator computes dense optical flow between two consecutive frames.
type FlowEstimator interface {
	Flow(prev, cur Frame) (FlowField, error)
}

// Detection is a single detector hit: a bounding box in pixel coordinates
// with a confidence score and the class that produced it.
type Detection struct {
	X1, Y1, X2, Y2 float64
	Confidence     float64
	ClassID        int
}

// Width returns the box width in pixels.
func (d Detection) Width() float64 { return d.X2 - d.X1 }

// Height returns the box height in pixels.
func (d Detection) Height() float64 { return d.Y2 - d.Y1 }

// Centroid returns the box center, the position proxy used for association.
func (d Detection) Centroid() (x, y float64) {
	return (d.X1 + d.X2) / 2, (d.Y1 + d.Y2) / 2
}

// dist returns the Euclidean distance between two points.
func dist(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}
