package canny

// scratch holds the intermediate buffers for one frame size.
type scratch struct {
	w, h  int
	gray  []float64
	tmp   []float64
	blur  []float64
	mag   []float64
	dir   []float64
	nms   []float64
	class []uint8
	stack []int
}

func newScratch(w, h int) *scratch {
	n := w * h
	return &scratch{
		w:     w,
		h:     h,
		gray:  make([]float64, n),
		tmp:   make([]float64, n),
		blur:  make([]float64, n),
		mag:   make([]float64, n),
		dir:   make([]float64, n),
		nms:   make([]float64, n),
		class: make([]uint8, n),
	}
}

// Detector runs the pipeline with a reusable scratch set. The scratch is
// reallocated only when the frame dimensions change.
//
// A Detector is owned by a single driver loop and must not be used from
// more than one goroutine at a time.
type Detector struct {
	tuning  Tuning
	scratch *scratch
	allocs  int
}

// NewDetector creates a detector with the given tuning.
func NewDetector(t Tuning) (*Detector, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Detector{tuning: t}, nil
}

// Tuning returns the detector's tuning constants.
func (d *Detector) Tuning() Tuning {
	return d.tuning
}

// Allocations reports how many times the scratch set has been allocated.
func (d *Detector) Allocations() int {
	return d.allocs
}

// Detect runs all five stages on f and returns a new mask frame of the same
// size. Edge pixels are MaskOn in R, G and B; every alpha sample is 255.
func (d *Detector) Detect(f *Frame, p Params) (*Frame, error) {
	out := &Frame{}
	if err := d.DetectInto(out, f, p); err != nil {
		return nil, err
	}
	return out, nil
}

// DetectInto is Detect writing into dst, whose pixel buffer is reused when
// it already has the right length.
func (d *Detector) DetectInto(dst, f *Frame, p Params) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}

	s := d.scratch
	if s == nil || s.w != f.Width || s.h != f.Height {
		s = newScratch(f.Width, f.Height)
		d.scratch = s
		d.allocs++
	}

	run(s, f, p, d.tuning)
	widen(dst, s.class, f.Width, f.Height, d.tuning)
	return nil
}

// Detect runs the pipeline on freshly allocated buffers.
func Detect(f *Frame, p Params, t Tuning) (*Frame, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	s := newScratch(f.Width, f.Height)
	run(s, f, p, t)

	out := &Frame{}
	widen(out, s.class, f.Width, f.Height, t)
	return out, nil
}

func run(s *scratch, f *Frame, p Params, t Tuning) {
	w, h := f.Width, f.Height
	s.gray = Grayscale(f, s.gray)
	Smooth(s.gray, s.tmp, s.blur, w, h)
	Gradient(s.blur, s.mag, s.dir, w, h)
	Suppress(s.mag, s.dir, s.nms, w, h, t.Bins)
	Classify(s.nms, s.class, w, h, p.Low, p.High, t)
	s.stack = Propagate(s.class, w, h, t, s.stack)
	Finalize(s.class, t)
}

// widen expands a finalized classification buffer into an RGBA mask.
func widen(dst *Frame, class []uint8, w, h int, t Tuning) {
	n := w * h
	if len(dst.Pix) != Channels*n {
		dst.Pix = make([]uint8, Channels*n)
	}
	dst.Width, dst.Height = w, h

	for i, v := range class[:n] {
		var m uint8
		if v == t.Strong {
			m = MaskOn
		}
		px := dst.Pix[i*Channels : i*Channels+4 : i*Channels+4]
		px[0], px[1], px[2], px[3] = m, m, m, 255
	}
}

// EdgeCount returns the number of edge pixels in a mask produced by Detect.
func EdgeCount(mask *Frame) int {
	n := 0
	for i := 0; i < len(mask.Pix); i += Channels {
		if mask.Pix[i] == MaskOn {
			n++
		}
	}
	return n
}
