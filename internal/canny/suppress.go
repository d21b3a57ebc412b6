package canny

// Suppress thins gradient ridges to single-pixel width. For each interior
// pixel the direction selects one of four bins delimited by bins, and the
// magnitude is kept only if it is greater than or equal to both neighbours
// of that bin; otherwise dst is 0. Plateaus of equal magnitude survive.
//
//	[0,b0) or [b3,180)  (x-1,y)   (x+1,y)
//	[b0,b1)             (x+1,y-1) (x-1,y+1)
//	[b1,b2)             (x,y-1)   (x,y+1)
//	[b2,b3)             (x-1,y-1) (x+1,y+1)
func Suppress(mag, dir, dst []float64, w, h int, bins [4]float64) {
	zeroBorder(dst, w, h)

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			a := dir[i]
			m := mag[i]

			var m1, m2 float64
			switch {
			case a < bins[0] || a >= bins[3]:
				m1, m2 = mag[i-1], mag[i+1]
			case a < bins[1]:
				m1, m2 = mag[i-w+1], mag[i+w-1]
			case a < bins[2]:
				m1, m2 = mag[i-w], mag[i+w]
			default:
				m1, m2 = mag[i-w-1], mag[i+w+1]
			}

			if m >= m1 && m >= m2 {
				dst[i] = m
			} else {
				dst[i] = 0
			}
		}
	}
}
