package canny

// Grayscale writes the BT.601 luminance of every pixel of f into dst and
// returns it. dst is reallocated if it is shorter than Width*Height.
func Grayscale(f *Frame, dst []float64) []float64 {
	n := f.Width * f.Height
	if len(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]

	for i := 0; i < n; i++ {
		p := f.Pix[i*Channels : i*Channels+3 : i*Channels+3]
		dst[i] = 0.299*float64(p[0]) + 0.587*float64(p[1]) + 0.114*float64(p[2])
	}
	return dst
}
