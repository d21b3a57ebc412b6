package canny

// Smooth applies the separable [1,4,6,4,1]/16 Gaussian to src, using tmp for
// the horizontal pass and writing the result into dst. All three slices
// must hold w*h samples and dst must not alias src or tmp.
//
// Samples outside the frame are clamped to the nearest edge pixel, so a
// border is never darkened by implicit zero padding.
func Smooth(src, tmp, dst []float64, w, h int) {
	for y := 0; y < h; y++ {
		row := src[y*w : (y+1)*w]
		out := tmp[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			a := row[clamp(x-2, 0, w-1)]
			b := row[clamp(x-1, 0, w-1)]
			c := row[x]
			d := row[clamp(x+1, 0, w-1)]
			e := row[clamp(x+2, 0, w-1)]
			out[x] = (a + 4*b + 6*c + 4*d + e) / 16
		}
	}

	for y := 0; y < h; y++ {
		r0 := clamp(y-2, 0, h-1) * w
		r1 := clamp(y-1, 0, h-1) * w
		r2 := y * w
		r3 := clamp(y+1, 0, h-1) * w
		r4 := clamp(y+2, 0, h-1) * w
		for x := 0; x < w; x++ {
			dst[r2+x] = (tmp[r0+x] + 4*tmp[r1+x] + 6*tmp[r2+x] + 4*tmp[r3+x] + tmp[r4+x]) / 16
		}
	}
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
