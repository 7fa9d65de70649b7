package pitch

import (
	"context"

	"github.com/fastball-data/pitch.report/internal/units"
)

// Scripted implementations of the pipeline's collaborators. These live in a
// regular file so the dev-mode server and the tools can run the full
// pipeline without a model file or camera footage.

// SyntheticFrame carries only an index and dimensions, no pixels.
type SyntheticFrame struct {
	Idx int
	W   int
	H   int
}

// Index returns the frame's position in the reversed sequence.
func (f SyntheticFrame) Index() int { return f.Idx }

// Bounds returns the frame dimensions in pixels.
func (f SyntheticFrame) Bounds() (width, height int) { return f.W, f.H }

// SyntheticVideo is an in-memory Video over SyntheticFrames.
type SyntheticVideo struct {
	FrameRate float64
	FrameList []Frame
	Closed    bool
}

// NewSyntheticVideo builds a clip of n frames of the given size.
func NewSyntheticVideo(n, w, h int, fps float64) *SyntheticVideo {
	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = SyntheticFrame{Idx: i, W: w, H: h}
	}
	return &SyntheticVideo{FrameRate: fps, FrameList: frames}
}

func (v *SyntheticVideo) FPS() float64    { return v.FrameRate }
func (v *SyntheticVideo) FrameCount() int { return len(v.FrameList) }
func (v *SyntheticVideo) Frames() []Frame { return v.FrameList }
func (v *SyntheticVideo) Close() error    { v.Closed = true; return nil }

// ScriptedOpener returns a fixed Video for any path, or a fixed error.
type ScriptedOpener struct {
	Video       Video
	Err         error
	OpenedPaths []string
}

// Open records the requested path and returns the scripted video.
func (o *ScriptedOpener) Open(ctx context.Context, path string) (Video, error) {
	o.OpenedPaths = append(o.OpenedPaths, path)
	if o.Err != nil {
		return nil, o.Err
	}
	return o.Video, nil
}

// ScriptedDetector serves canned detections keyed by frame index, split into
// ball and mitt scripts by the requested class filter. Detections below the
// requested confidence are dropped, like the real detector.
type ScriptedDetector struct {
	Balls map[int][]Detection
	Mitts map[int][]Detection
	Errs  map[int]error
	Calls int
}

// Detect returns the scripted detections for the frame and class filter.
func (d *ScriptedDetector) Detect(ctx context.Context, frame Frame, classIDs []int, minConfidence float64) ([]Detection, error) {
	d.Calls++
	if err := d.Errs[frame.Index()]; err != nil {
		return nil, err
	}
	script := d.Balls
	if containsInt(classIDs, ClassMitt) {
		script = d.Mitts
	}
	var out []Detection
	for _, det := range script[frame.Index()] {
		if det.Confidence >= minConfidence {
			out = append(out, det)
		}
	}
	return out, nil
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// ConstantFlow is a uniform displacement field over a W×H extent.
type ConstantFlow struct {
	DX, DY float64
	W, H   int
}

// SampleAt returns the constant displacement inside the extent.
func (f ConstantFlow) SampleAt(x, y int) (dx, dy float64, ok bool) {
	if x < 0 || y < 0 || x >= f.W || y >= f.H {
		return 0, 0, false
	}
	return f.DX, f.DY, true
}

// ScriptedFlow serves canned flow fields keyed by the current frame's index,
// falling back to Default when the frame has no entry.
type ScriptedFlow struct {
	Fields  map[int]FlowField
	Errs    map[int]error
	Default FlowField
	Calls   int
}

// Flow returns the scripted field for the current frame.
func (s *ScriptedFlow) Flow(prev, cur Frame) (FlowField, error) {
	s.Calls++
	if err := s.Errs[cur.Index()]; err != nil {
		return nil, err
	}
	if f, ok := s.Fields[cur.Index()]; ok {
		return f, nil
	}
	if s.Default != nil {
		return s.Default, nil
	}
	w, h := cur.Bounds()
	return ConstantFlow{W: w, H: h}, nil
}

// LinearFlight describes a synthetic straight-line pitch: a ball moving at a
// constant per-frame step with a stationary mitt for calibration. The zero
// value is not useful; NewLinearFlight fills in a plausible scenario.
type LinearFlight struct {
	Frames       int
	BallFrames   int
	Width        int
	Height       int
	FPS          float64
	StartX       float64
	StartY       float64
	StepX        float64
	StepY        float64
	BallSizePx   float64
	MittHeightPx float64
	Confidence   float64
}

// NewLinearFlight returns a portrait clip whose ball crosses six frames at
// 200px per frame, fast enough that association relies on flow prediction,
// with a mitt sized for a clean calibration.
func NewLinearFlight() LinearFlight {
	return LinearFlight{
		Frames:       60,
		BallFrames:   6,
		Width:        720,
		Height:       1280,
		FPS:          30,
		StartX:       360,
		StartY:       80,
		StepX:        0,
		StepY:        200,
		BallSizePx:   20,
		MittHeightPx: 160,
		Confidence:   0.9,
	}
}

// Build materializes the flight as a video, detector script, and flow
// estimator whose field matches the ball's motion exactly.
func (f LinearFlight) Build() (*SyntheticVideo, *ScriptedDetector, *ScriptedFlow) {
	video := NewSyntheticVideo(f.Frames, f.Width, f.Height, f.FPS)

	det := &ScriptedDetector{
		Balls: make(map[int][]Detection),
		Mitts: make(map[int][]Detection),
	}
	half := f.BallSizePx / 2
	for i := 0; i < f.BallFrames && i < f.Frames; i++ {
		cx := f.StartX + float64(i)*f.StepX
		cy := f.StartY + float64(i)*f.StepY
		det.Balls[i] = append(det.Balls[i], Detection{
			X1: cx - half, Y1: cy - half, X2: cx + half, Y2: cy + half,
			Confidence: f.Confidence,
			ClassID:    ClassSportsBall,
		})
	}
	if f.MittHeightPx > 0 {
		mittW := f.MittHeightPx / 1.4
		mx := float64(f.Width) / 2
		my := float64(f.Height) - f.MittHeightPx
		mitt := Detection{
			X1: mx - mittW/2, Y1: my - f.MittHeightPx/2,
			X2: mx + mittW/2, Y2: my + f.MittHeightPx/2,
			Confidence: f.Confidence,
			ClassID:    ClassMitt,
		}
		for i := 0; i < f.Frames; i++ {
			det.Mitts[i] = append(det.Mitts[i], mitt)
		}
	}

	flow := &ScriptedFlow{
		Default: ConstantFlow{DX: f.StepX, DY: f.StepY, W: f.Width, H: f.Height},
	}
	return video, det, flow
}

// ExpectedSpeedKMH returns the speed the pipeline should report for the
// flight before slow-motion correction.
func (f LinearFlight) ExpectedSpeedKMH(scaleMetersPerPixel float64) float64 {
	stepPx := dist(0, 0, f.StepX, f.StepY)
	return stepPx * f.FPS * scaleMetersPerPixel * units.KMPHPerMPS
}
