// Package vision provides the OpenCV-backed implementations of the analysis
// pipeline's collaborators: video decoding via GoCV, YOLOv8 ONNX object
// detection, and dense Farneback optical flow. Everything above this package
// works on the interfaces in internal/pitch and never touches a Mat.
package vision
