package canny

import "math"

const radToDeg = 180 / math.Pi

// Gradient computes the Sobel gradient of src for every interior pixel,
// writing the magnitude into mag and the direction in degrees, folded into
// [0,180), into dir. The 1-pixel border ring of both outputs is set to 0.
//
//	Kx = [-1 0 1; -2 0 2; -1 0 1]
//	Ky = [-1 -2 -1; 0 0 0; 1 2 1]
func Gradient(src, mag, dir []float64, w, h int) {
	zeroBorder(mag, w, h)
	zeroBorder(dir, w, h)

	for y := 1; y < h-1; y++ {
		up := (y - 1) * w
		mid := y * w
		down := (y + 1) * w
		for x := 1; x < w-1; x++ {
			tl, t, tr := src[up+x-1], src[up+x], src[up+x+1]
			l, r := src[mid+x-1], src[mid+x+1]
			bl, b, br := src[down+x-1], src[down+x], src[down+x+1]

			gx := -tl + tr - 2*l + 2*r - bl + br
			gy := -tl - 2*t - tr + bl + 2*b + br

			mag[mid+x] = math.Hypot(gx, gy)
			dir[mid+x] = foldDirection(math.Atan2(gy, gx) * radToDeg)
		}
	}
}

// foldDirection maps an angle in (-180,180] degrees onto [0,180). A gradient
// and its opposite describe the same edge orientation.
func foldDirection(deg float64) float64 {
	if deg < 0 {
		deg += 180
	}
	if deg >= 180 {
		deg -= 180
	}
	return deg
}

// zeroBorder clears the outermost ring of a w*h buffer.
func zeroBorder(buf []float64, w, h int) {
	for x := 0; x < w; x++ {
		buf[x] = 0
		buf[(h-1)*w+x] = 0
	}
	for y := 0; y < h; y++ {
		buf[y*w] = 0
		buf[y*w+w-1] = 0
	}
}
