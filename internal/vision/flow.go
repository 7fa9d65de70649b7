package vision

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/fastball-data/pitch.report/internal/pitch"
)

// FarnebackFlow computes dense optical flow between consecutive frames. It
// holds no state, so one instance can serve back-to-back analyses.
type FarnebackFlow struct{}

// NewFarnebackFlow returns a flow estimator.
func NewFarnebackFlow() *FarnebackFlow {
	return &FarnebackFlow{}
}

// Flow computes the dense displacement field from prev to cur.
func (f *FarnebackFlow) Flow(prev, cur pitch.Frame) (pitch.FlowField, error) {
	pm, err := matOf(prev)
	if err != nil {
		return nil, err
	}
	cm, err := matOf(cur)
	if err != nil {
		return nil, err
	}

	prevGray := gocv.NewMat()
	defer prevGray.Close()
	curGray := gocv.NewMat()
	defer curGray.Close()
	gocv.CvtColor(pm.mat, &prevGray, gocv.ColorBGRToGray)
	gocv.CvtColor(cm.mat, &curGray, gocv.ColorBGRToGray)

	flow := gocv.NewMat()
	defer flow.Close()
	gocv.CalcOpticalFlowFarneback(prevGray, curGray, &flow, 0.5, 3, 15, 3, 5, 1.2, 0)

	return newDenseFlow(flow)
}

// denseFlow is a flow field copied out of its Mat, two float32 values per
// pixel in row-major order.
type denseFlow struct {
	vals []float32
	w, h int
}

func newDenseFlow(flow gocv.Mat) (*denseFlow, error) {
	data, err := flow.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read flow field: %w", err)
	}
	vals := make([]float32, len(data))
	copy(vals, data)
	return &denseFlow{vals: vals, w: flow.Cols(), h: flow.Rows()}, nil
}

// SampleAt returns the displacement at the given pixel.
func (f *denseFlow) SampleAt(x, y int) (dx, dy float64, ok bool) {
	if x < 0 || y < 0 || x >= f.w || y >= f.h {
		return 0, 0, false
	}
	i := (y*f.w + x) * 2
	return float64(f.vals[i]), float64(f.vals[i+1]), true
}
