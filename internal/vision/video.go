package vision

import (
	"context"
	"fmt"
	"path/filepath"

	"gocv.io/x/gocv"

	"github.com/fastball-data/pitch.report/internal/monitoring"
	"github.com/fastball-data/pitch.report/internal/pitch"
)

// MatFrame is a decoded frame backed by an OpenCV Mat. The index is the
// frame's position in the reversed playback order.
type MatFrame struct {
	idx int
	mat gocv.Mat
}

// Index returns the frame's position in the reversed sequence.
func (f *MatFrame) Index() int { return f.idx }

// Bounds returns the frame dimensions in pixels.
func (f *MatFrame) Bounds() (width, height int) { return f.mat.Cols(), f.mat.Rows() }

// Mat exposes the underlying pixel data for detection and flow.
func (f *MatFrame) Mat() gocv.Mat { return f.mat }

// matOf unwraps a pipeline frame back to its Mat-backed implementation.
func matOf(frame pitch.Frame) (*MatFrame, error) {
	mf, ok := frame.(*MatFrame)
	if !ok || mf == nil {
		return nil, fmt.Errorf("frame %d carries no pixel data", frame.Index())
	}
	return mf, nil
}

// Clip is a fully decoded video held in memory, frames in reversed playback
// order.
type Clip struct {
	fps    float64
	frames []pitch.Frame
	closed bool
}

// FPS returns the container frame rate, 0 when the container did not report
// one.
func (c *Clip) FPS() float64 { return c.fps }

// FrameCount returns the number of decoded frames.
func (c *Clip) FrameCount() int { return len(c.frames) }

// Frames returns the decoded frames, catch scene first.
func (c *Clip) Frames() []pitch.Frame { return c.frames }

// Close releases every frame's pixel buffer. Safe to call more than once.
func (c *Clip) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	for _, frame := range c.frames {
		if mf, ok := frame.(*MatFrame); ok {
			_ = mf.mat.Close()
		}
	}
	c.frames = nil
	return nil
}

// FileOpener decodes video files through OpenCV's VideoCapture.
type FileOpener struct{}

// Open decodes the whole file into memory and reverses the frame order, so
// the analysis walks from the catch back toward the release. The pitched
// ball is closest to the camera at the catch, which makes the reversed
// prefix the best place to find the mitt and pick up the ball.
func (FileOpener) Open(ctx context.Context, path string) (pitch.Video, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video %s: %w", filepath.Base(path), err)
	}
	defer capture.Close()

	fps := capture.Get(gocv.VideoCaptureFPS)

	var mats []gocv.Mat
	for {
		if err := ctx.Err(); err != nil {
			closeMats(mats)
			return nil, err
		}
		mat := gocv.NewMat()
		if ok := capture.Read(&mat); !ok || mat.Empty() {
			mat.Close()
			break
		}
		mats = append(mats, mat)
	}

	frames := make([]pitch.Frame, len(mats))
	for i, m := range mats {
		ridx := len(mats) - 1 - i
		frames[ridx] = &MatFrame{idx: ridx, mat: m}
	}

	monitoring.Logf("video: decoded %d frames at %.2f fps from %s", len(frames), fps, filepath.Base(path))
	return &Clip{fps: fps, frames: frames}, nil
}

func closeMats(mats []gocv.Mat) {
	for i := range mats {
		_ = mats[i].Close()
	}
}
