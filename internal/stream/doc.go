// Package stream drives the edge detector over a live sequence of frames.
//
// A Driver pulls the freshest frame from a Source on every tick of a
// time.Ticker, runs the detector at the current settings and hands the
// result to a Sink. Frames produced while the driver is busy are never
// queued: a Source always answers with its most recent frame, and the
// ticker drops ticks for a slow receiver. A slow pipeline therefore lowers
// the effective frame rate instead of building latency.
//
// # Settings
//
// Thresholds, downscale factor and overlay colour may be changed from any
// goroutine with Driver.Apply. The driver reads one snapshot per frame, so a
// frame is always processed with a consistent set of values.
//
// # Ownership
//
// Run and Step must be called from a single goroutine. The detector scratch
// and display buffers belong to that goroutine. Apply and Stats are safe for
// concurrent use.
package stream
