package vision

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/fastball-data/pitch.report/internal/pitch"
)

const (
	// yoloInputSize is the square side length the model was exported with.
	yoloInputSize = 640
	// boxChannels is the number of leading output channels holding the box
	// geometry; the class scores follow.
	boxChannels = 4
	// nmsIoU is the overlap threshold for non-maximum suppression.
	nmsIoU = 0.45
)

// YOLODetector runs a YOLOv8 ONNX model through OpenCV's DNN module. The
// network is not thread-safe, so Detect serializes internally.
type YOLODetector struct {
	net gocv.Net
	mu  sync.Mutex
}

// NewYOLODetector loads the model file and pins inference to the CPU.
func NewYOLODetector(modelPath string) (*YOLODetector, error) {
	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("failed to load detection model from %s", modelPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set DNN backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set DNN target: %w", err)
	}
	return &YOLODetector{net: net}, nil
}

// Detect runs one inference pass and returns the boxes of the requested
// classes at or above minConfidence, in frame pixel coordinates.
//
// The frame is padded bottom-right into a square before resizing to the
// model's input, so boxes map back to frame space with a single scale
// factor. The model output is [1, 4+classes, anchors] with box geometry in
// input-pixel space.
func (d *YOLODetector) Detect(ctx context.Context, frame pitch.Frame, classIDs []int, minConfidence float64) ([]pitch.Detection, error) {
	mf, err := matOf(frame)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	w, h := mf.Bounds()
	side := w
	if h > side {
		side = h
	}

	square := gocv.NewMatWithSize(side, side, gocv.MatTypeCV8UC3)
	roi := square.Region(image.Rect(0, 0, w, h))
	mf.mat.CopyTo(&roi)
	roi.Close()

	blob := gocv.BlobFromImage(square, 1.0/255.0, image.Pt(yoloInputSize, yoloInputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	square.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	blob.Close()
	defer out.Close()

	dims := out.Size()
	if len(dims) != 3 || dims[1] <= boxChannels {
		return nil, fmt.Errorf("unexpected model output shape %v", dims)
	}
	classCount := dims[1] - boxChannels
	anchors := dims[2]
	scale := float64(side) / yoloInputSize

	var (
		dets   []pitch.Detection
		rects  []image.Rectangle
		scores []float32
	)
	for a := 0; a < anchors; a++ {
		bestID, bestScore := -1, float32(0)
		for _, id := range classIDs {
			if id < 0 || id >= classCount {
				continue
			}
			if s := out.GetFloatAt3(0, boxChannels+id, a); s > bestScore {
				bestID, bestScore = id, s
			}
		}
		if bestID < 0 || float64(bestScore) < minConfidence {
			continue
		}

		cx := float64(out.GetFloatAt3(0, 0, a))
		cy := float64(out.GetFloatAt3(0, 1, a))
		bw := float64(out.GetFloatAt3(0, 2, a))
		bh := float64(out.GetFloatAt3(0, 3, a))

		x1, y1, x2, y2 := boxToCorners(cx, cy, bw, bh, scale)
		x1, y1, x2, y2 = clampBox(x1, y1, x2, y2, float64(w), float64(h))
		if x2 <= x1 || y2 <= y1 {
			continue
		}

		dets = append(dets, pitch.Detection{
			X1: x1, Y1: y1, X2: x2, Y2: y2,
			Confidence: float64(bestScore),
			ClassID:    bestID,
		})
		rects = append(rects, image.Rect(int(x1), int(y1), int(x2), int(y2)))
		scores = append(scores, bestScore)
	}

	if len(dets) <= 1 {
		return dets, nil
	}

	keep := gocv.NMSBoxes(rects, scores, float32(minConfidence), nmsIoU)
	kept := make([]pitch.Detection, 0, len(keep))
	for _, i := range keep {
		if i >= 0 && i < len(dets) {
			kept = append(kept, dets[i])
		}
	}
	return kept, nil
}

// Close releases the loaded network.
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// boxToCorners converts a center-size box in model input space to corner
// coordinates in frame space.
func boxToCorners(cx, cy, w, h, scale float64) (x1, y1, x2, y2 float64) {
	return (cx - w/2) * scale, (cy - h/2) * scale, (cx + w/2) * scale, (cy + h/2) * scale
}

// clampBox limits corner coordinates to the frame extent.
func clampBox(x1, y1, x2, y2, w, h float64) (float64, float64, float64, float64) {
	return clamp(x1, 0, w), clamp(y1, 0, h), clamp(x2, 0, w), clamp(y2, 0, h)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
