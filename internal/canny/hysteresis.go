package canny

// Classify labels every interior pixel of the thinned magnitude buffer:
// magnitude >= high is t.Strong, magnitude >= low is t.Weak, anything else
// is 0. The border ring is always 0 because its gradient is undefined.
func Classify(nms []float64, class []uint8, w, h int, low, high float64, t Tuning) {
	for i := range class[:w*h] {
		class[i] = 0
	}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			v := nms[i]
			switch {
			case v >= high:
				class[i] = t.Strong
			case v >= low:
				class[i] = t.Weak
			}
		}
	}
}

// Propagate promotes every weak pixel that is 8-connected, directly or
// transitively, to a strong pixel. It uses stack as worklist storage and
// returns it, possibly grown, so callers can reuse it across frames.
//
// Only interior pixels can be strong, so every neighbour index visited
// stays inside the buffer.
func Propagate(class []uint8, w, h int, t Tuning, stack []int) []int {
	stack = stack[:0]
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			if i := y*w + x; class[i] == t.Strong {
				stack = append(stack, i)
			}
		}
	}

	neighbours := [8]int{-w - 1, -w, -w + 1, -1, 1, w - 1, w, w + 1}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, off := range neighbours {
			j := i + off
			if class[j] == t.Weak {
				class[j] = t.Strong
				stack = append(stack, j)
			}
		}
	}
	return stack
}

// Finalize clears every pixel that is not t.Strong, leaving a buffer that
// holds only 0 and t.Strong. Applying it again is a no-op.
func Finalize(class []uint8, t Tuning) {
	for i, v := range class {
		if v != t.Strong {
			class[i] = 0
		}
	}
}

// Hysteresis runs Classify, Propagate and Finalize on freshly allocated
// buffers and returns the final classification.
func Hysteresis(nms []float64, w, h int, low, high float64, t Tuning) []uint8 {
	class := make([]uint8, w*h)
	Classify(nms, class, w, h, low, high, t)
	Propagate(class, w, h, t, nil)
	Finalize(class, t)
	return class
}
