// Package imaging connects the edge detector to Go images and files.
//
// It loads frames from disk through a cache, converts between image.Image
// and pipeline frames, resamples frames down before detection and masks back
// up afterwards, composites edge overlays, and encodes results as PNG.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based with (0,0) at the
// top-left corner. Every image this package returns has a zero origin.
//
// # Resampling
//
// Frames are downscaled with bilinear filtering; the resulting size is
// floor(width*scale) x floor(height*scale), never below 1x1. Masks are
// upscaled with nearest-neighbour sampling so every sample stays exactly 0
// or 255.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. The conversion and
// resampling helpers are stateless; helpers that take a destination image
// reuse it and must not be called concurrently with the same destination.
package imaging
