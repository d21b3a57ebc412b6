package canny

import (
	"errors"
	"fmt"
	"image"
)

// Channels is the number of interleaved 8-bit samples per pixel (R, G, B, A).
const Channels = 4

// Sentinel errors returned for contract violations.
var (
	ErrInvalidDimensions = errors.New("frame dimensions must be at least 1x1")
	ErrBufferSize        = errors.New("pixel buffer length does not match frame dimensions")
	ErrNegativeThreshold = errors.New("thresholds must be non-negative")
	ErrInvalidThreshold  = errors.New("thresholds must be finite numbers")
	ErrThresholdOrder    = errors.New("low threshold must not exceed high threshold")
	ErrInvalidTuning     = errors.New("invalid tuning")
)

// Frame is a row-major RGBA pixel buffer with no stride padding.
//
// The layout matches image.NRGBA with Stride == 4*Width and a zero origin,
// so frames convert to and from the image package without reordering.
type Frame struct {
	// Width of the frame in pixels.
	Width int

	// Height of the frame in pixels.
	Height int

	// Pix holds 4*Width*Height samples: R, G, B, A for each pixel.
	Pix []uint8
}

// NewFrame allocates a zeroed frame of the given size.
func NewFrame(width, height int) (*Frame, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, width, height)
	}
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, Channels*width*height),
	}, nil
}

// Validate checks the frame against the input contract.
func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: nil frame", ErrInvalidDimensions)
	}
	if f.Width < 1 || f.Height < 1 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, f.Width, f.Height)
	}
	if want := Channels * f.Width * f.Height; len(f.Pix) != want {
		return fmt.Errorf("%w: got %d samples, want %d", ErrBufferSize, len(f.Pix), want)
	}
	return nil
}

// Image returns an *image.NRGBA view sharing the frame's pixel buffer.
func (f *Frame) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    f.Pix,
		Stride: Channels * f.Width,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// FrameFromNRGBA wraps an NRGBA image as a frame without copying when its
// layout allows it, and copies otherwise.
func FrameFromNRGBA(img *image.NRGBA) *Frame {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if b.Min == (image.Point{}) && img.Stride == Channels*w && len(img.Pix) == Channels*w*h {
		return &Frame{Width: w, Height: h, Pix: img.Pix}
	}

	pix := make([]uint8, Channels*w*h)
	for y := 0; y < h; y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		copy(pix[y*Channels*w:(y+1)*Channels*w], src[:Channels*w])
	}
	return &Frame{Width: w, Height: h, Pix: pix}
}
