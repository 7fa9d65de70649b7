// Package pitch implements the ball-flight analysis pipeline: per-frame ball
// detection is associated into candidate tracks with optical-flow-assisted
// prediction, the pixel scale is calibrated from the catcher's mitt (with a
// resolution-based fallback), the best flight candidate is selected, and an
// outlier-robust speed estimate is produced with slow-motion correction.
//
// Frames arrive in reverse playback order so the catch (mitt visible, ball
// near rest) is processed first and the release last. The pipeline owns no
// video or model code; it consumes the VideoOpener, Detector and
// FlowEstimator interfaces, implemented with gocv in internal/vision and
// with scripted fakes in testing_helpers.go.
package pitch
