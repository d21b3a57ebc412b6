package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/canny-live/internal/canny"
)

// ParseTint parses an overlay colour such as "#FF0000", "ff0000" or "#f00".
func ParseTint(hex string) (color.NRGBA, error) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] != '#' {
		hex = "#" + hex
	}
	if len(hex) != 4 && len(hex) != 7 {
		return color.NRGBA{}, fmt.Errorf("invalid overlay color %q: want #RGB or #RRGGBB", hex)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid overlay color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// Overlay draws src into dst and paints every edge pixel of mask in tint.
// mask must have the same size as src. dst is reallocated when nil or of the
// wrong size, and returned.
func Overlay(dst *image.NRGBA, src image.Image, mask *image.NRGBA, tint color.NRGBA) *image.NRGBA {
	b := src.Bounds()
	rect := image.Rect(0, 0, b.Dx(), b.Dy())
	if dst == nil || dst.Bounds() != rect {
		dst = image.NewNRGBA(rect)
	}
	draw.Draw(dst, rect, src, b.Min, draw.Src)

	for y := 0; y < rect.Dy(); y++ {
		for x := 0; x < rect.Dx(); x++ {
			if mask.Pix[mask.PixOffset(x, y)] == canny.MaskOn {
				dst.SetNRGBA(x, y, tint)
			}
		}
	}
	return dst
}
