package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"

	"github.com/ironsheep/canny-live/internal/canny"
)

// ScaledSize returns floor(w*scale) x floor(h*scale), never smaller than 1x1.
func ScaledSize(w, h int, scale float64) (int, int) {
	sw := int(math.Floor(float64(w) * scale))
	sh := int(math.Floor(float64(h) * scale))
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}
	return sw, sh
}

// ToFrame converts any image into a pipeline frame with a zero origin.
// Frames already in contiguous NRGBA layout are wrapped without copying.
func ToFrame(img image.Image) *canny.Frame {
	if n, ok := img.(*image.NRGBA); ok {
		return canny.FrameFromNRGBA(n)
	}
	return canny.FrameFromNRGBA(imaging.Clone(img))
}

// Downscale converts img to a frame resampled by scale using bilinear
// filtering. A scale of 1 only converts.
func Downscale(img image.Image, scale float64) (*canny.Frame, error) {
	if scale <= 0 || scale > 1 {
		return nil, fmt.Errorf("scale %g outside (0,1]", scale)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: got %dx%d", canny.ErrInvalidDimensions, b.Dx(), b.Dy())
	}
	if scale == 1 {
		return ToFrame(img), nil
	}

	w, h := ScaledSize(b.Dx(), b.Dy(), scale)
	return canny.FrameFromNRGBA(imaging.Resize(img, w, h, imaging.Linear)), nil
}

// UpscaleInto scales a mask to the size of dst with nearest-neighbour
// sampling, which keeps every sample exactly 0 or 255. When dst is nil or has
// the wrong size a new image of width x height is allocated and returned.
func UpscaleInto(dst *image.NRGBA, mask *canny.Frame, width, height int) *image.NRGBA {
	if dst == nil || dst.Bounds().Dx() != width || dst.Bounds().Dy() != height {
		dst = image.NewNRGBA(image.Rect(0, 0, width, height))
	}
	src := mask.Image()
	if mask.Width == width && mask.Height == height {
		copy(dst.Pix, src.Pix)
		return dst
	}
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}
