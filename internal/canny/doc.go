// Package canny implements the per-frame Canny edge detector.
//
// A frame passes through five stages, strictly forward, with no state kept
// between frames:
//
//  1. Grayscale: RGB -> luminance using ITU-R BT.601 weights
//     (0.299*R + 0.587*G + 0.114*B), alpha ignored.
//
//  2. Smooth: separable 5-tap Gaussian [1,4,6,4,1]/16, one horizontal and one
//     vertical pass. Samples outside the frame are clamped to the nearest
//     valid coordinate.
//
//  3. Gradient: 3x3 Sobel operators. Magnitude is computed with math.Hypot,
//     direction is folded into [0,180) degrees.
//
//  4. Suppress: non-maximum suppression against the two neighbours selected
//     by the direction bin. Equal magnitudes count as a maximum.
//
//  5. Hysteresis: classify into strong/weak/none, then promote weak pixels
//     8-connected to strong ones using an explicit worklist.
//
// # Border
//
// The outermost 1-pixel ring has no defined gradient and is never an edge.
// Frames narrower or shorter than 3 pixels therefore produce an all-zero mask.
//
// # Buffers
//
// Detect allocates fresh buffers on every call. A Detector keeps a scratch
// set sized to the last frame and reallocates only when the dimensions
// change; it must not be shared between goroutines.
//
// # Errors
//
// The pipeline is total over its input domain. Malformed input (non-positive
// dimensions, a pixel buffer that does not match them, negative or inverted
// thresholds) is rejected before any processing with one of the sentinel
// errors below; use errors.Is to test for them.
package canny
