package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"

	"github.com/anthonynsimon/bild/imgio"

	"github.com/ironsheep/canny-live/internal/canny"
)

// EdgeOptions controls a single-image edge detection run.
type EdgeOptions struct {
	// Params are the hysteresis thresholds (0 <= Low <= High).
	Params canny.Params

	// Tuning holds the sentinel values and direction bins. The zero value
	// selects canny.DefaultTuning.
	Tuning canny.Tuning

	// Scale downsamples the image before detection; the mask is scaled back
	// to the original size. Zero means 1.
	Scale float64

	// Overlay, when set, paints edges over the source in this hex colour
	// instead of returning the plain black and white mask.
	Overlay string
}

// EdgeDetectResult contains an edge-detected image encoded as base64 PNG.
//
// Unless an overlay colour was requested, the image is a mask where white
// pixels (255) are edges and black pixels (0) are not.
type EdgeDetectResult struct {
	// Width of the output image in pixels (same as input).
	Width int `json:"width"`

	// Height of the output image in pixels (same as input).
	Height int `json:"height"`

	// ImageBase64 is the output image encoded as base64 PNG.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png" for edge detection results.
	MimeType string `json:"mime_type"`

	// EdgePixels is the number of edge pixels found at the processing
	// resolution, before the mask is scaled back up.
	EdgePixels int `json:"edge_pixels"`
}

// RenderEdges runs the detector on img and returns the display image at the
// source size together with the edge pixel count.
func RenderEdges(img image.Image, opts EdgeOptions) (*image.NRGBA, int, error) {
	tuning := opts.Tuning
	if tuning == (canny.Tuning{}) {
		tuning = canny.DefaultTuning()
	}
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}

	frame, err := Downscale(img, scale)
	if err != nil {
		return nil, 0, err
	}
	mask, err := canny.Detect(frame, opts.Params, tuning)
	if err != nil {
		return nil, 0, err
	}

	b := img.Bounds()
	out := UpscaleInto(nil, mask, b.Dx(), b.Dy())
	if opts.Overlay != "" {
		tint, err := ParseTint(opts.Overlay)
		if err != nil {
			return nil, 0, err
		}
		out = Overlay(nil, img, out, tint)
	}
	return out, canny.EdgeCount(mask), nil
}

// EdgeDetect performs Canny edge detection on an image and returns the
// result as base64 PNG.
//
// # Threshold Selection
//
// Magnitudes are in luminance units (0-255 input), so a hard black/white
// step yields magnitudes of several hundred. Lower thresholds detect more
// edges but increase noise.
//
// Recommended starting points:
//   - Webcam frames: low=60, high=120
//   - Clean diagrams: low=50, high=150
//   - Noisy images: low=75, high=175
func EdgeDetect(img image.Image, opts EdgeOptions) (*EdgeDetectResult, error) {
	out, edges, err := RenderEdges(img, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := EncodePNG(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode edge image: %w", err)
	}

	return &EdgeDetectResult{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
		EdgePixels:  edges,
	}, nil
}

// EncodePNG writes img to w as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return imgio.PNGEncoder()(w, img)
}

// SavePNG writes img to path as PNG.
func SavePNG(path string, img image.Image) error {
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
